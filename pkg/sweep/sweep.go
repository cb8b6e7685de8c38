package sweep

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/projectdiscovery/arpscan/pkg/iprange"
	"github.com/projectdiscovery/arpscan/pkg/macvendor"
	"github.com/projectdiscovery/arpscan/pkg/peerdiscovery/arp"
	"github.com/projectdiscovery/arpscan/pkg/types"
	mapsutil "github.com/projectdiscovery/utils/maps"
	syncutil "github.com/projectdiscovery/utils/sync"
	"github.com/rs/xid"
)

const (
	// DefaultConcurrency is used when Options.Concurrency is not positive
	DefaultConcurrency = 256
	// DefaultTimeout bounds a single resolve attempt
	DefaultTimeout = time.Second
)

// Options configures a sweep
type Options struct {
	Concurrency int
	Retries     int
	Timeout     time.Duration
	// Silent suppresses progress callbacks
	Silent bool
	// OnAttemptError is called for every failed resolve attempt, including
	// ones that a later retry recovers from
	OnAttemptError func(addr netip.Addr, attempt int, err error)
}

// Progress is emitted once per address after its task finished
type Progress struct {
	Processed int64
	Total     int64
	Address   netip.Addr
	Outcome   types.Outcome
	Result    Result
}

// VendorLookup enriches a hardware address with vendor metadata
type VendorLookup func(mac string) macvendor.Entry

// concurrency returns the worker count for a range of total addresses
func (o Options) concurrency(total uint64) int {
	size := o.Concurrency
	if size <= 0 {
		size = DefaultConcurrency
	}
	if total > 0 && uint64(size) > total {
		size = int(total)
	}
	if size < 1 {
		size = 1
	}
	return size
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// Run resolves every address of rng and returns the active hosts sorted by IP.
// It returns once every address has a terminal outcome. When ctx is cancelled
// the remaining addresses end without a usable answer and Run returns the
// context error instead of a partial snapshot.
func Run(ctx context.Context, rng *iprange.Range, resolver arp.Resolver, lookup VendorLookup, opts Options, onProgress func(Progress)) (*types.Snapshot, error) {
	total := rng.Count()
	awg, err := syncutil.New(syncutil.WithSize(opts.concurrency(total)))
	if err != nil {
		return nil, fmt.Errorf("failed to create adaptive waitgroup: %w", err)
	}

	hosts := mapsutil.NewSyncLockMap[string, types.HostRecord]()
	var processed atomic.Int64
	timeout := opts.timeout()

	for addr := range rng.All() {
		if ctx.Err() != nil {
			break
		}
		awg.Add()
		go func(addr netip.Addr) {
			defer awg.Done()

			var onFailure FailureFunc
			if opts.OnAttemptError != nil {
				onFailure = func(attempt int, err error) {
					opts.OnAttemptError(addr, attempt, err)
				}
			}
			result := Attempt(ctx, func(ctx context.Context) (net.HardwareAddr, error) {
				return resolver.Resolve(ctx, addr)
			}, opts.Retries, timeout, onFailure)

			outcome := result.Outcome()
			if outcome == types.Active {
				_ = hosts.Set(addr.String(), newHostRecord(addr, result.MAC, lookup))
			}

			n := processed.Add(1)
			if onProgress != nil && !opts.Silent {
				onProgress(Progress{
					Processed: n,
					Total:     int64(total),
					Address:   addr,
					Outcome:   outcome,
					Result:    result,
				})
			}
		}(addr)
	}
	awg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot := &types.Snapshot{
		ID:      xid.New().String(),
		Hosts:   []types.HostRecord{},
		TakenAt: time.Now(),
	}
	_ = hosts.Iterate(func(_ string, host types.HostRecord) error {
		snapshot.Hosts = append(snapshot.Hosts, host)
		return nil
	})
	types.SortHosts(snapshot.Hosts)
	return snapshot, nil
}

func newHostRecord(addr netip.Addr, mac net.HardwareAddr, lookup VendorLookup) types.HostRecord {
	formatted := types.FormatMAC(mac)
	host := types.HostRecord{
		IP:  addr.String(),
		MAC: formatted,
	}
	if lookup == nil {
		return host
	}
	entry := lookup(formatted)
	host.VendorName = entry.VendorName
	host.BlockType = entry.BlockType
	host.Private = entry.Private
	host.LastUpdate = entry.LastUpdate
	return host
}
