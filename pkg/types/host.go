package types

import (
	"bytes"
	"net"
	"net/netip"
	"sort"
	"strings"
	"time"
)

// HostRecord is a host discovered during a sweep, enriched with vendor metadata.
// Two records describe the same host when their MAC fields are equal.
type HostRecord struct {
	IP         string `json:"ip"`
	MAC        string `json:"mac"`
	VendorName string `json:"vendorName,omitempty"`
	BlockType  string `json:"blockType,omitempty"`
	// Private is nil when the vendor database does not know
	Private    *bool  `json:"private,omitempty"`
	LastUpdate string `json:"lastUpdate,omitempty"`
}

// Snapshot is the complete set of hosts discovered by one sweep
type Snapshot struct {
	ID      string       `json:"-"`
	Hosts   []HostRecord `json:"hosts"`
	TakenAt time.Time    `json:"-"`
}

// MACs returns the set of hardware addresses contained in the snapshot
func (s *Snapshot) MACs() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Hosts))
	for _, host := range s.Hosts {
		set[host.MAC] = struct{}{}
	}
	return set
}

// SortHosts orders hosts by ascending IP address, then by MAC.
func SortHosts(hosts []HostRecord) {
	sort.SliceStable(hosts, func(i, j int) bool {
		a, errA := netip.ParseAddr(hosts[i].IP)
		b, errB := netip.ParseAddr(hosts[j].IP)
		if errA == nil && errB == nil {
			if c := a.Compare(b); c != 0 {
				return c < 0
			}
		} else if hosts[i].IP != hosts[j].IP {
			return hosts[i].IP < hosts[j].IP
		}
		return hosts[i].MAC < hosts[j].MAC
	})
}

// FormatMAC renders a hardware address as upper-case dash separated octets
// (AA-BB-CC-DD-EE-FF).
func FormatMAC(mac net.HardwareAddr) string {
	return strings.ToUpper(strings.ReplaceAll(mac.String(), ":", "-"))
}

// IsZeroMAC reports whether the address is empty or made of zero octets only
func IsZeroMAC(mac net.HardwareAddr) bool {
	return len(mac) == 0 || len(bytes.Trim(mac, "\x00")) == 0
}

// FormatPrivate renders the tri-state private flag for tabular output
func FormatPrivate(private *bool) string {
	switch {
	case private == nil:
		return "Unknown"
	case *private:
		return "True"
	default:
		return "False"
	}
}

// BoolPtr returns a pointer to a copy of v
func BoolPtr(v bool) *bool {
	return &v
}
