package transport

import (
	"net/http"
	"time"
)

// Response represents an HTTP response received from the transport client.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Body is the response body, truncated to the client's body limit.
	Body []byte

	// Truncated reports whether the body was cut at the body limit.
	Truncated bool

	// Duration is the round-trip time for the request.
	Duration time.Duration

	// URL is the final URL after any redirects.
	URL string
}

// OK reports whether the response carries a 200 status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode == http.StatusOK
}
