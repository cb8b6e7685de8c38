package client

import (
	"net/http"
	"time"

	"github.com/projectdiscovery/arpscan/pkg/version"
)

// DefaultTimeout bounds every request made by clients built with New
const DefaultTimeout = 20 * time.Second

// New creates an http client with the given timeout that tags every request
// with the arpscan user agent.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	client := &http.Client{
		Timeout: timeout,
	}

	// Create a custom RoundTripper to add headers to every request
	client.Transport = roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", "arpscan/"+version.GetVersion())
		req.Header.Set("Accept", "application/json")
		return transport.RoundTrip(req)
	})

	return client
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (rf roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return rf(req)
}
