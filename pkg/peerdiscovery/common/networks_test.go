package common

import (
	"net"
	"net/netip"
	"testing"
)

func TestPrefixesFromAddrs(t *testing.T) {
	addrs := []net.Addr{
		&net.IPNet{IP: net.ParseIP("192.168.1.23"), Mask: net.CIDRMask(24, 32)},
		&net.IPNet{IP: net.ParseIP("192.168.1.40"), Mask: net.CIDRMask(24, 32)},
		&net.IPNet{IP: net.ParseIP("10.0.5.1"), Mask: net.CIDRMask(16, 32)},
		&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
		&net.IPAddr{IP: net.ParseIP("172.16.0.1")},
	}

	got := prefixesFromAddrs(addrs)
	want := []netip.Prefix{
		netip.MustParsePrefix("192.168.1.0/24"),
		netip.MustParsePrefix("10.0.0.0/16"),
	}
	if len(got) != len(want) {
		t.Fatalf("prefixesFromAddrs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("prefix[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestCovers(t *testing.T) {
	networks := []netip.Prefix{
		netip.MustParsePrefix("192.168.1.0/24"),
		netip.MustParsePrefix("10.0.0.0/16"),
	}
	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"inside", "192.168.1.1", "192.168.1.254", true},
		{"second network", "10.0.3.1", "10.0.3.9", true},
		{"spans two networks", "192.168.1.200", "192.168.2.10", false},
		{"outside", "172.16.0.1", "172.16.0.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Covers(networks, netip.MustParseAddr(tt.start), netip.MustParseAddr(tt.end))
			if got != tt.want {
				t.Errorf("Covers() = %v, want %v", got, tt.want)
			}
		})
	}
}
