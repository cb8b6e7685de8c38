// Package macvendor maps hardware addresses to vendor metadata using a locally
// cached copy of the maclookup.app vendor database.
package macvendor

import (
	"strings"
	"time"
)

// Unknown is the value used for every field of an entry that is not in the database
const Unknown = "Unknown"

// Entry is a single vendor database record
type Entry struct {
	MacPrefix  string `json:"macPrefix"`
	VendorName string `json:"vendorName"`
	Private    *bool  `json:"private"`
	BlockType  string `json:"blockType"`
	LastUpdate string `json:"lastUpdate"`
}

// Database is the on-disk representation of the vendor cache.
// LastUpdate is the time of the last successful remote download.
type Database struct {
	LastUpdate      time.Time `json:"lastUpdate"`
	MacInformations []Entry   `json:"macInformations"`
}

// UnknownEntry returns the synthetic entry used when no prefix matches
func UnknownEntry(mac string) Entry {
	return Entry{
		MacPrefix:  formatPrefix(normalizeHex(mac)),
		VendorName: Unknown,
		BlockType:  Unknown,
		Private:    nil,
		LastUpdate: Unknown,
	}
}

// prefixLengths are the assignment block sizes in hex digits, longest first:
// MA-S (36 bit), MA-M (28 bit) and MA-L (24 bit).
var prefixLengths = []int{9, 7, 6}

var hexReplacer = strings.NewReplacer(":", "", "-", "", ".", "", " ", "")

// normalizeHex strips separators and upper-cases a hardware address or prefix
func normalizeHex(v string) string {
	return strings.ToUpper(strings.TrimSpace(hexReplacer.Replace(v)))
}

// formatPrefix renders the first three octets of a normalized address as AA:BB:CC
func formatPrefix(hex string) string {
	if len(hex) > 6 {
		hex = hex[:6]
	}
	var b strings.Builder
	for i := 0; i < len(hex); i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		end := i + 2
		if end > len(hex) {
			end = len(hex)
		}
		b.WriteString(hex[i:end])
	}
	return b.String()
}

// buildIndex keys every entry by its normalized prefix. The first entry wins
// when the database contains duplicates.
func buildIndex(entries []Entry) map[string]Entry {
	index := make(map[string]Entry, len(entries))
	for _, entry := range entries {
		key := normalizeHex(entry.MacPrefix)
		if key == "" {
			continue
		}
		if _, exists := index[key]; !exists {
			index[key] = entry
		}
	}
	return index
}

// lookupIndex performs a longest prefix match of mac against the index
func lookupIndex(index map[string]Entry, hex string) (Entry, bool) {
	for _, length := range prefixLengths {
		if len(hex) < length {
			continue
		}
		if entry, ok := index[hex[:length]]; ok {
			return entry, true
		}
	}
	return Entry{}, false
}
