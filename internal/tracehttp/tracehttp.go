// Package tracehttp dumps outgoing HTTP traffic for debugging remote API calls.
package tracehttp

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"sync"
)

// traceTransport is an http.RoundTripper that writes the request and
// response to out while delegating the real work to another RoundTripper.
type traceTransport struct {
	delegate http.RoundTripper
	out      io.Writer
	mu       sync.Mutex
}

// RoundTrip writes a dump of the request and response around the delegate's
// round trip. Bodies are included; a failed dump is skipped, never fatal.
func (t *traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if dump, err := httputil.DumpRequestOut(req, true); err == nil {
		t.write(">>> ", dump)
	}

	resp, err := t.delegate.RoundTrip(req)
	if err != nil {
		t.write("!!! ", []byte(err.Error()))
		return resp, err
	}

	if dump, dumpErr := httputil.DumpResponse(resp, true); dumpErr == nil {
		t.write("<<< ", dump)
	}
	return resp, nil
}

func (t *traceTransport) write(prefix string, dump []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "%s%s\n", prefix, dump)
}

// Wrap returns a RoundTripper tracing d into out. A nil d means
// http.DefaultTransport.
func Wrap(d http.RoundTripper, out io.Writer) http.RoundTripper {
	if d == nil {
		d = http.DefaultTransport
	}
	return &traceTransport{delegate: d, out: out}
}
