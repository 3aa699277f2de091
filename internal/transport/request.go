// Package transport provides the HTTP transport abstraction layer
// used by every probe the scanner issues.
package transport

// Request represents an HTTP request to be sent by the transport client.
// Probes are unauthenticated GETs, so there are no header, cookie or body
// fields; the User-Agent comes from the client options.
type Request struct {
	// Method is the HTTP method. Empty means GET.
	Method string

	// URL is the target URL.
	URL string
}
