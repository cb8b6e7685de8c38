package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/logrusorgru/aurora/v4"
	"github.com/projectdiscovery/arpscan/pkg/types"
)

// Header is the column order shared by the console table and CSV files
var Header = []string{"IP", "MAC", "Vendor Name", "Block Type", "Private", "Last Update"}

// Row returns the cells of host in Header order
func Row(host types.HostRecord) []string {
	return []string{
		host.IP,
		host.MAC,
		host.VendorName,
		host.BlockType,
		types.FormatPrivate(host.Private),
		host.LastUpdate,
	}
}

// Render writes title followed by an aligned table of hosts. Nothing is
// written for an empty host list.
func Render(w io.Writer, title string, hosts []types.HostRecord, colors bool) error {
	if len(hosts) == 0 {
		return nil
	}

	au := aurora.New(aurora.WithColors(colors))
	if title != "" {
		if _, err := fmt.Fprintln(w, au.Bold(title)); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeRow(tw, Header)
	for _, host := range hosts {
		writeRow(tw, Row(host))
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			_, _ = io.WriteString(w, "\t")
		}
		_, _ = io.WriteString(w, cell)
	}
	_, _ = io.WriteString(w, "\n")
}
