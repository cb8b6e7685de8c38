//go:build !windows

package arp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"os/exec"
	"time"

	fileutil "github.com/projectdiscovery/utils/file"
	osutils "github.com/projectdiscovery/utils/os"
)

const (
	linuxARPTable = "/proc/net/arp"
	nudgePort     = 12345
	pollInterval  = 50 * time.Millisecond
)

// Supported reports whether the neighbor table can be read on this host
func Supported() error {
	switch {
	case osutils.IsLinux():
		if !fileutil.FileExists(linuxARPTable) {
			return fmt.Errorf("%w: %s not found", ErrUnsupported, linuxARPTable)
		}
		return nil
	case osutils.IsOSX():
		if _, err := exec.LookPath("arp"); err != nil {
			return fmt.Errorf("%w: %s", ErrUnsupported, err)
		}
		return nil
	default:
		return ErrUnsupported
	}
}

// TableResolver lets the kernel resolve the address and reads the result from
// the neighbor table
type TableResolver struct {
	PollInterval time.Duration
	read         func(ctx context.Context, ip netip.Addr) ([]Peer, error)
}

// NewTableResolver returns a resolver for the current operating system
func NewTableResolver() *TableResolver {
	r := &TableResolver{PollInterval: pollInterval}
	switch {
	case osutils.IsLinux():
		r.read = readLinuxARPTable
	case osutils.IsOSX():
		r.read = readDarwinARPEntry
	}
	return r
}

// Resolve nudges ip and polls the neighbor table until it holds a complete
// entry or ctx is done
func (r *TableResolver) Resolve(ctx context.Context, ip netip.Addr) (net.HardwareAddr, error) {
	if r.read == nil {
		return nil, ErrUnsupported
	}
	if err := nudge(ctx, ip); err != nil {
		return nil, err
	}

	interval := r.PollInterval
	if interval <= 0 {
		interval = pollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		peers, err := r.read(ctx, ip)
		if err != nil {
			return nil, err
		}
		if mac := findPeer(peers, ip); mac != nil {
			return mac, nil
		}

		select {
		case <-ctx.Done():
			return nil, nil
		case <-ticker.C:
		}
	}
}

// nudge sends a single UDP datagram so the kernel issues an ARP request
func nudge(ctx context.Context, ip netip.Addr) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp4", netip.AddrPortFrom(ip, nudgePort).String())
	if err != nil {
		return fmt.Errorf("could not reach %s: %w", ip, err)
	}
	defer func() {
		_ = conn.Close()
	}()
	// Write errors such as host unreachable only mean that no reply arrived
	_, _ = conn.Write([]byte{0})
	return nil
}

func readLinuxARPTable(_ context.Context, _ netip.Addr) ([]Peer, error) {
	f, err := os.Open(linuxARPTable)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return parseLinuxARPTable(f)
}

func readDarwinARPEntry(ctx context.Context, ip netip.Addr) ([]Peer, error) {
	output, err := exec.CommandContext(ctx, "arp", "-n", ip.String()).Output()
	if err != nil {
		var exitErr *exec.ExitError
		// arp exits non-zero when there is no entry
		if errors.As(err, &exitErr) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to execute arp -n: %w", err)
	}
	return parseDarwinARPTable(bytes.NewReader(output))
}
