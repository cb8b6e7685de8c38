//go:build windows

package arp

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	iphlpapi    = windows.NewLazySystemDLL("iphlpapi.dll")
	procSendARP = iphlpapi.NewProc("SendARP")
)

// Supported reports whether SendARP can be loaded
func Supported() error {
	if err := procSendARP.Find(); err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupported, err)
	}
	return nil
}

// TableResolver resolves addresses through SendARP
type TableResolver struct{}

// NewTableResolver returns a SendARP resolver
func NewTableResolver() *TableResolver {
	return &TableResolver{}
}

type sendARPResult struct {
	mac net.HardwareAddr
	err error
}

// Resolve calls SendARP for ip. SendARP blocks on its own timeout, so the
// call is abandoned once ctx is done.
func (r *TableResolver) Resolve(ctx context.Context, ip netip.Addr) (net.HardwareAddr, error) {
	done := make(chan sendARPResult, 1)
	go func() {
		mac, err := sendARP(ip)
		done <- sendARPResult{mac: mac, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, nil
	case res := <-done:
		return res.mac, res.err
	}
}

func sendARP(ip netip.Addr) (net.HardwareAddr, error) {
	dst := ip.As4()
	var buf [8]byte
	size := uint32(len(buf))

	ret, _, _ := procSendARP.Call(
		uintptr(binary.LittleEndian.Uint32(dst[:])),
		0,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
	)
	if ret != 0 {
		errno := syscall.Errno(ret)
		// no reply from the host
		if errors.Is(errno, windows.ERROR_BAD_NET_NAME) || errors.Is(errno, windows.ERROR_GEN_FAILURE) {
			return nil, nil
		}
		return nil, fmt.Errorf("SendARP failed: %w", errno)
	}
	if size == 0 || size > uint32(len(buf)) {
		return nil, nil
	}
	return net.HardwareAddr(buf[:size]), nil
}

func newArpingResolver(Options) (Resolver, error) {
	return nil, fmt.Errorf("%w: arping is not available on windows", ErrUnsupported)
}
