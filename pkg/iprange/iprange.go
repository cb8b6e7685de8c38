package iprange

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"math/bits"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/projectdiscovery/mapcidr"
)

// ErrInvalidRange is matched by every error returned from Parse
var ErrInvalidRange = errors.New("invalid ip range")

// InvalidRangeError describes why an input could not be parsed
type InvalidRangeError struct {
	Input  string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid ip range %q: %s", e.Input, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidRange) work for wrapped range errors
func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// Range is an immutable inclusive span of IPv4 addresses
type Range struct {
	start netip.Addr
	end   netip.Addr
}

// New returns the range [start, end]. Both addresses must be IPv4.
func New(start, end netip.Addr) (*Range, error) {
	input := start.String() + "-" + end.String()
	if !start.Is4() || !end.Is4() {
		return nil, &InvalidRangeError{Input: input, Reason: "only IPv4 addresses are supported"}
	}
	if start.Compare(end) > 0 {
		return nil, &InvalidRangeError{Input: input, Reason: "start address is greater than end address"}
	}
	return &Range{start: start, end: end}, nil
}

// Parse parses any of the notations listed in the package documentation
func Parse(text string) (*Range, error) {
	input := strings.TrimSpace(text)
	if input == "" {
		return nil, &InvalidRangeError{Input: text, Reason: "empty input"}
	}

	switch {
	case strings.Contains(input, "/"):
		return parseNetwork(input)
	case strings.Contains(input, "-"):
		return parseSpan(input)
	default:
		addr, err := parseIPv4(input)
		if err != nil {
			return nil, &InvalidRangeError{Input: text, Reason: err.Error()}
		}
		return &Range{start: addr, end: addr}, nil
	}
}

// parseNetwork handles both 10.0.0.0/8 and 10.0.0.0/255.0.0.0
func parseNetwork(input string) (*Range, error) {
	base, suffix, _ := strings.Cut(input, "/")
	base, suffix = strings.TrimSpace(base), strings.TrimSpace(suffix)

	addr, err := parseIPv4(base)
	if err != nil {
		return nil, &InvalidRangeError{Input: input, Reason: err.Error()}
	}

	ones, err := strconv.Atoi(suffix)
	if err != nil {
		// not a prefix length, try a dotted netmask
		ones, err = maskLength(suffix)
		if err != nil {
			return nil, &InvalidRangeError{Input: input, Reason: err.Error()}
		}
	}
	if ones < 0 || ones > 32 {
		return nil, &InvalidRangeError{Input: input, Reason: fmt.Sprintf("prefix length %d out of range", ones)}
	}

	network := &net.IPNet{
		IP:   net.IP(addr.AsSlice()).Mask(net.CIDRMask(ones, 32)),
		Mask: net.CIDRMask(ones, 32),
	}
	count := mapcidr.AddressCountIpnet(network)
	start := toUint32(netip.AddrFrom4([4]byte(network.IP.To4())))

	return &Range{
		start: fromUint32(start),
		end:   fromUint32(start + uint32(count-1)),
	}, nil
}

// parseSpan handles a.b.c.d-e.f.g.h and the a.b.c.d-h shorthand
func parseSpan(input string) (*Range, error) {
	left, right, _ := strings.Cut(input, "-")
	left, right = strings.TrimSpace(left), strings.TrimSpace(right)

	start, err := parseIPv4(left)
	if err != nil {
		return nil, &InvalidRangeError{Input: input, Reason: err.Error()}
	}

	var end netip.Addr
	if strings.Contains(right, ".") {
		end, err = parseIPv4(right)
		if err != nil {
			return nil, &InvalidRangeError{Input: input, Reason: err.Error()}
		}
	} else {
		octet, err := strconv.ParseUint(right, 10, 8)
		if err != nil {
			return nil, &InvalidRangeError{Input: input, Reason: fmt.Sprintf("malformed last octet %q", right)}
		}
		b := start.As4()
		b[3] = byte(octet)
		end = netip.AddrFrom4(b)
	}

	if start.Compare(end) > 0 {
		return nil, &InvalidRangeError{Input: input, Reason: "start address is greater than end address"}
	}
	return &Range{start: start, end: end}, nil
}

func parseIPv4(value string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(value)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("malformed address %q", value)
	}
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("address %q is not IPv4", value)
	}
	return addr, nil
}

// maskLength converts a dotted netmask into its prefix length
func maskLength(value string) (int, error) {
	mask, err := parseIPv4(value)
	if err != nil {
		return 0, fmt.Errorf("malformed netmask %q", value)
	}
	m := toUint32(mask)
	ones := bits.LeadingZeros32(^m)
	if ones < 32 && m != ^uint32(0)<<(32-ones) {
		return 0, fmt.Errorf("netmask %q is not contiguous", value)
	}
	return ones, nil
}

// Start returns the first address of the range
func (r *Range) Start() netip.Addr {
	return r.start
}

// End returns the last address of the range
func (r *Range) End() netip.Addr {
	return r.end
}

// Count returns the number of addresses in the range (always >= 1)
func (r *Range) Count() uint64 {
	return uint64(toUint32(r.end)-toUint32(r.start)) + 1
}

// All yields every address of the range in ascending order
func (r *Range) All() iter.Seq[netip.Addr] {
	return func(yield func(netip.Addr) bool) {
		for addr := r.start; ; addr = addr.Next() {
			if !yield(addr) || addr == r.end {
				return
			}
		}
	}
}

// CIDRs returns the minimal list of networks covering the range
func (r *Range) CIDRs() ([]*net.IPNet, error) {
	return mapcidr.GetCIDRFromIPRange(net.IP(r.start.AsSlice()), net.IP(r.end.AsSlice()))
}

func (r *Range) String() string {
	if r.start == r.end {
		return r.start.String()
	}
	return r.start.String() + "-" + r.end.String()
}

func toUint32(addr netip.Addr) uint32 {
	b := addr.As4()
	return binary.BigEndian.Uint32(b[:])
}

func fromUint32(v uint32) netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b)
}
