package macvendor

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// Fetcher downloads the complete vendor database
type Fetcher interface {
	Fetch(ctx context.Context) ([]Entry, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context) ([]Entry, error)

// Fetch calls f(ctx)
func (f FetcherFunc) Fetch(ctx context.Context) ([]Entry, error) {
	return f(ctx)
}

// HTTPFetcher downloads the vendor database as a JSON array over HTTP
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher for url using client
func NewHTTPFetcher(url string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{URL: url, Client: client}
}

// Fetch downloads and parses the vendor database
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	return parseEntries(body)
}

// parseEntries converts the maclookup.app JSON array into entries
func parseEntries(body []byte) ([]Entry, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("vendor database is not valid JSON")
	}

	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return nil, fmt.Errorf("vendor database is not a JSON array")
	}

	var entries []Entry
	result.ForEach(func(_, value gjson.Result) bool {
		prefix := value.Get("macPrefix").String()
		if prefix == "" {
			return true
		}
		entries = append(entries, Entry{
			MacPrefix:  prefix,
			VendorName: value.Get("vendorName").String(),
			Private:    triState(value.Get("private")),
			BlockType:  value.Get("blockType").String(),
			LastUpdate: value.Get("lastUpdate").String(),
		})
		return true
	})

	if len(entries) == 0 {
		return nil, fmt.Errorf("vendor database is empty")
	}
	return entries, nil
}

// triState keeps null and missing values distinct from false
func triState(value gjson.Result) *bool {
	var v bool
	switch value.Type {
	case gjson.True:
		v = true
	case gjson.False:
		v = false
	default:
		return nil
	}
	return &v
}
