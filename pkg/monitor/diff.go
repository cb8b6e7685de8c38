package monitor

import "github.com/projectdiscovery/arpscan/pkg/types"

// Changes lists hosts that appeared in or disappeared from a snapshot
type Changes struct {
	Added   []types.HostRecord
	Removed []types.HostRecord
}

// Empty reports whether nothing changed
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Diff compares current against previous by MAC only. A host that kept its
// MAC but changed IP or vendor data is not reported. Both slices are non-nil
// and keep snapshot order.
func Diff(current, previous *types.Snapshot) Changes {
	changes := Changes{
		Added:   []types.HostRecord{},
		Removed: []types.HostRecord{},
	}
	if current == nil {
		current = &types.Snapshot{}
	}
	if previous == nil {
		previous = &types.Snapshot{}
	}

	before := previous.MACs()
	after := current.MACs()

	for _, host := range current.Hosts {
		if _, ok := before[host.MAC]; !ok {
			changes.Added = append(changes.Added, host)
		}
	}
	for _, host := range previous.Hosts {
		if _, ok := after[host.MAC]; !ok {
			changes.Removed = append(changes.Removed, host)
		}
	}
	return changes
}
