package common

import (
	"net"
	"net/netip"
)

// LocalNetworks returns the IPv4 prefixes assigned to up, non-loopback interfaces
func LocalNetworks() ([]netip.Prefix, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var addrs []net.Addr
	for _, iface := range interfaces {
		// Skip loopback and down interfaces
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if iface.Flags&net.FlagUp == 0 {
			continue
		}

		ifaceAddrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		addrs = append(addrs, ifaceAddrs...)
	}
	return prefixesFromAddrs(addrs), nil
}

// prefixesFromAddrs converts interface addresses to masked IPv4 prefixes,
// dropping duplicates
func prefixesFromAddrs(addrs []net.Addr) []netip.Prefix {
	var networks []netip.Prefix
	seen := make(map[netip.Prefix]struct{})

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}

		// Only process IPv4 addresses
		ip4 := ipNet.IP.To4()
		if ip4 == nil {
			continue
		}
		ones, bits := ipNet.Mask.Size()
		if bits != 32 {
			continue
		}

		ip, _ := netip.AddrFromSlice(ip4)
		network := netip.PrefixFrom(ip, ones).Masked()
		if _, exists := seen[network]; exists {
			continue
		}
		seen[network] = struct{}{}
		networks = append(networks, network)
	}
	return networks
}

// Covers reports whether both ends of the span [start, end] fall inside a
// single network
func Covers(networks []netip.Prefix, start, end netip.Addr) bool {
	for _, network := range networks {
		if network.Contains(start) && network.Contains(end) {
			return true
		}
	}
	return false
}
