// Package arp resolves the hardware address of individual IPv4 hosts on the
// local segment.
//
// Two strategies are available:
//   - table: the operating system performs the request. On Linux and macOS a
//     single UDP datagram is sent to the host so the kernel issues an ARP
//     request, then the neighbor table is polled until the entry appears or
//     the attempt deadline passes. On Windows SendARP from iphlpapi is used.
//   - arping: a raw ARP request is written to the wire. This requires
//     elevated privileges and is not available on Windows.
//
// A resolver returns a nil address and a nil error when the host did not
// answer in time.
package arp
