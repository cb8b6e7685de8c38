package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/projectdiscovery/arpscan/pkg/monitor"
	"github.com/projectdiscovery/arpscan/pkg/types"
	fileutil "github.com/projectdiscovery/utils/file"
)

const timestampLayout = "2006-01-02_15-04-05"

// Report is the JSON document written for a snapshot. NewHosts and
// RemovedHosts are present only when a previous snapshot was compared.
type Report struct {
	Hosts        []types.HostRecord  `json:"hosts"`
	NewHosts     *[]types.HostRecord `json:"newHosts,omitempty"`
	RemovedHosts *[]types.HostRecord `json:"removedHosts,omitempty"`
}

// NewReport builds the report for current. changes is nil on a first scan.
func NewReport(current *types.Snapshot, changes *monitor.Changes) Report {
	report := Report{Hosts: []types.HostRecord{}}
	if current != nil && current.Hosts != nil {
		report.Hosts = current.Hosts
	}
	if changes != nil {
		added := nonNil(changes.Added)
		removed := nonNil(changes.Removed)
		report.NewHosts = &added
		report.RemovedHosts = &removed
	}
	return report
}

// WriteJSON writes the report for current to path
func WriteJSON(path string, current *types.Snapshot, changes *monitor.Changes) error {
	data, err := json.Marshal(NewReport(current, changes))
	if err != nil {
		return fmt.Errorf("could not encode json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("could not write json: %w", err)
	}
	return nil
}

// WriteCSV writes a header row followed by one row per host
func WriteCSV(path string, hosts []types.HostRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create csv: %w", err)
	}

	w := csv.NewWriter(f)
	_ = w.Write(Header)
	for _, host := range hosts {
		_ = w.Write(Row(host))
	}
	w.Flush()

	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not write csv: %w", err)
	}
	return f.Close()
}

// UniquePath returns path when nothing exists there. Otherwise it inserts a
// timestamp before the extension, and a counter when that is taken too.
func UniquePath(path string, now time.Time) string {
	if !fileutil.FileExists(path) {
		return path
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext) + "_" + now.Format(timestampLayout)
	candidate := base + ext
	for i := 1; fileutil.FileExists(candidate); i++ {
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
	return candidate
}

func nonNil(hosts []types.HostRecord) []types.HostRecord {
	if hosts == nil {
		return []types.HostRecord{}
	}
	return hosts
}
