package transport

import (
	"context"
	"net/url"
)

// Response headers defined by the remote library API.
const (
	HeaderAPIVersion   = "Zotero-API-Version"
	HeaderAPIKey       = "Zotero-API-Key"
	HeaderLibraryVer   = "Last-Modified-Version"
	HeaderTotalResults = "Total-Results"
	HeaderBackoff      = "Backoff"
	HeaderRetryAfter   = "Retry-After"
)

// APIVersion is the remote API version this client speaks.
const APIVersion = "3"

// APIResponse is a decoded-enough API response: the raw body plus the
// versioning and pagination headers the sync pipeline needs.
type APIResponse struct {
	Body         []byte
	StatusCode   int
	Version      int // Last-Modified-Version header, 0 when absent
	TotalResults int // Total-Results header, 0 when absent
}

// Transport is the HTTP surface consumed by the library client.
type Transport interface {
	// GetJSON issues a GET for a JSON resource under the API base URL.
	GetJSON(ctx context.Context, path string, query url.Values) (*APIResponse, error)

	// Download fetches raw bytes (attachment content).
	Download(ctx context.Context, path string) ([]byte, error)

	// SetAPIKey sets the credential sent with every request.
	SetAPIKey(key string)

	// Close releases idle connections.
	Close() error
}
