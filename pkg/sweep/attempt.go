package sweep

import (
	"context"
	"net"
	"time"

	"github.com/projectdiscovery/arpscan/pkg/types"
)

// Result is the outcome of the last resolve attempt for an address
type Result struct {
	MAC      net.HardwareAddr
	Err      error
	Attempts int
}

// Outcome classifies the result
func (r Result) Outcome() types.Outcome {
	switch {
	case r.Err != nil:
		return types.Failed
	case types.IsZeroMAC(r.MAC):
		return types.Inactive
	default:
		return types.Active
	}
}

// ResolveFunc performs a single resolve attempt
type ResolveFunc func(ctx context.Context) (net.HardwareAddr, error)

// FailureFunc is called for every attempt that returned an error. attempt is
// 1-based.
type FailureFunc func(attempt int, err error)

// Attempt calls resolve until it yields a usable address or retries additional
// attempts have been made. Every attempt gets its own timeout when timeout is
// positive. Retrying stops early once ctx is done.
//
// Both an error and a missing or all-zero address count as a failed attempt and
// are retried. onFailure may be nil.
func Attempt(ctx context.Context, resolve ResolveFunc, retries int, timeout time.Duration, onFailure FailureFunc) Result {
	if retries < 0 {
		retries = 0
	}

	var result Result
	for i := 0; i <= retries; i++ {
		mac, err := attemptOnce(ctx, resolve, timeout)
		result = Result{MAC: mac, Err: err, Attempts: i + 1}
		if err != nil && onFailure != nil && ctx.Err() == nil {
			onFailure(i+1, err)
		}
		if result.Outcome() == types.Active || ctx.Err() != nil {
			break
		}
	}
	return result
}

func attemptOnce(ctx context.Context, resolve ResolveFunc, timeout time.Duration) (net.HardwareAddr, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return resolve(ctx)
}
