// Package iprange expands textual IPv4 ranges into ordered address sequences.
//
// Supported notations:
//   - single address: 192.168.1.10
//   - CIDR: 192.168.1.0/24
//   - address and netmask: 192.168.1.0/255.255.255.0
//   - explicit range: 192.168.1.1-192.168.1.20
//   - last octet shorthand: 192.168.1.10-20
//
// A Range never materializes its addresses: the count is computed from the
// bounds and iteration walks the range lazily in ascending order.
//
// Example:
//
//	rng, err := iprange.Parse("192.168.1.0/30")
//	for addr := range rng.All() {
//		fmt.Println(addr) // 192.168.1.0 .. 192.168.1.3
//	}
package iprange
