//go:build !windows

package arp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/j-keck/arping"
)

// ArpingResolver writes raw ARP requests, optionally on a fixed interface
type ArpingResolver struct {
	Interface string
}

func newArpingResolver(opts Options) (Resolver, error) {
	if opts.Interface != "" {
		if _, err := net.InterfaceByName(opts.Interface); err != nil {
			return nil, fmt.Errorf("invalid interface %q: %w", opts.Interface, err)
		}
	}
	// arping keeps a single package level timeout
	if opts.Timeout > 0 {
		arping.SetTimeout(opts.Timeout)
	}
	return &ArpingResolver{Interface: opts.Interface}, nil
}

// Resolve sends one ARP request to ip. The request is bounded by the arping
// timeout rather than ctx.
func (r *ArpingResolver) Resolve(ctx context.Context, ip netip.Addr) (net.HardwareAddr, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil
	}

	var (
		mac net.HardwareAddr
		err error
	)
	dst := net.IP(ip.AsSlice())
	if r.Interface != "" {
		mac, _, err = arping.PingOverIfaceByName(dst, r.Interface)
	} else {
		mac, _, err = arping.Ping(dst)
	}
	if errors.Is(err, arping.ErrTimeout) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("arping failed: %w", err)
	}
	return mac, nil
}
