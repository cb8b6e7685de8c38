package arp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupported is returned when ARP resolution is not available on this platform
var ErrUnsupported = errors.New("arp resolution is not supported on this platform")

// Resolution methods
const (
	MethodTable  = "table"
	MethodArping = "arping"
)

// Resolver resolves the hardware address of a single host. Implementations
// honor the context deadline as the attempt timeout.
type Resolver interface {
	Resolve(ctx context.Context, ip netip.Addr) (net.HardwareAddr, error)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(ctx context.Context, ip netip.Addr) (net.HardwareAddr, error)

// Resolve calls f(ctx, ip)
func (f ResolverFunc) Resolve(ctx context.Context, ip netip.Addr) (net.HardwareAddr, error) {
	return f(ctx, ip)
}

// Options selects and configures a resolver
type Options struct {
	Method    string
	Interface string
	// Timeout bounds a single arping request
	Timeout time.Duration
}

// New returns the resolver for opts.Method
func New(opts Options) (Resolver, error) {
	switch strings.ToLower(opts.Method) {
	case "", MethodTable:
		if err := Supported(); err != nil {
			return nil, err
		}
		return NewTableResolver(), nil
	case MethodArping:
		return newArpingResolver(opts)
	default:
		return nil, fmt.Errorf("unknown resolution method %q", opts.Method)
	}
}

// Peer is a neighbor table entry
type Peer struct {
	IP  netip.Addr
	MAC net.HardwareAddr
}

// linux neighbor entry flag for a completed entry
const atfComplete = 0x2

// parseLinuxARPTable parses the contents of /proc/net/arp
func parseLinuxARPTable(r io.Reader) ([]Peer, error) {
	var peers []Peer
	scanner := bufio.NewScanner(r)

	// Skip header line
	if !scanner.Scan() {
		return peers, scanner.Err()
	}

	for scanner.Scan() {
		// Format: IP address HW type Flags HW address Mask Device
		fields := strings.Fields(scanner.Text())
		if len(fields) < 6 {
			continue
		}

		flags, err := strconv.ParseUint(strings.TrimPrefix(fields[2], "0x"), 16, 32)
		if err != nil || flags&atfComplete == 0 {
			continue
		}

		ip, err := netip.ParseAddr(fields[0])
		if err != nil || !ip.Is4() {
			continue
		}

		mac, err := parseHardwareAddr(fields[3])
		if err != nil || isZero(mac) {
			continue
		}

		peers = append(peers, Peer{IP: ip, MAC: mac})
	}

	return peers, scanner.Err()
}

// parseDarwinARPTable parses the output of arp -a or arp -n on macOS
func parseDarwinARPTable(r io.Reader) ([]Peer, error) {
	var peers []Peer
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		// "? (192.168.1.1) at aa:bb:cc:dd:ee:ff on en0 ifscope [ethernet]"
		// "192.168.1.9 (192.168.1.9) -- no entry"
		line := strings.TrimSpace(scanner.Text())

		ipStart := strings.Index(line, "(")
		ipEnd := strings.Index(line, ")")
		if ipStart == -1 || ipEnd == -1 || ipStart >= ipEnd {
			continue
		}

		_, rest, found := strings.Cut(line[ipEnd:], " at ")
		if !found {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 || fields[0] == "(incomplete)" {
			continue
		}

		ip, err := netip.ParseAddr(line[ipStart+1 : ipEnd])
		if err != nil || !ip.Is4() {
			continue
		}

		mac, err := parseHardwareAddr(fields[0])
		if err != nil || isZero(mac) {
			continue
		}

		peers = append(peers, Peer{IP: ip, MAC: mac})
	}

	return peers, scanner.Err()
}

// parseHardwareAddr accepts the unpadded octets macOS prints (0:1a:2b:3:4:5)
func parseHardwareAddr(s string) (net.HardwareAddr, error) {
	octets := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == '-' })
	if len(octets) != 6 {
		return nil, fmt.Errorf("invalid hardware address %q", s)
	}
	mac := make(net.HardwareAddr, 0, len(octets))
	for _, octet := range octets {
		v, err := strconv.ParseUint(octet, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hardware address %q: %w", s, err)
		}
		mac = append(mac, byte(v))
	}
	return mac, nil
}

func findPeer(peers []Peer, ip netip.Addr) net.HardwareAddr {
	for _, peer := range peers {
		if peer.IP == ip {
			return peer.MAC
		}
	}
	return nil
}

func isZero(mac net.HardwareAddr) bool {
	for _, b := range mac {
		if b != 0 {
			return false
		}
	}
	return true
}
