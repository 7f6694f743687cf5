// Package gemini talks to the Gemini API v1beta REST surface: File Search
// stores and their documents, uploads, and content generation grounded on a
// File Search store.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"emailwriter/internal/config"
	"emailwriter/internal/tracehttp"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
)

const apiVersion = "v1beta"

// apiClient performs authenticated, rate limited JSON calls
type apiClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func newAPIClient(cfg *config.Config, logger zerolog.Logger) *apiClient {
	baseURL := strings.TrimRight(cfg.GeminiBaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultGeminiBaseURL
	}

	// The tracer sits outside the key transport so dumps never carry the key.
	var rt http.RoundTripper = &transport.APIKey{Key: cfg.GeminiAPIKey, Transport: http.DefaultTransport}
	if cfg.TraceHTTP {
		rt = tracehttp.Wrap(rt, os.Stderr)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &apiClient{
		baseURL: baseURL,
		http:    &http.Client{Transport: rt},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// endpoint builds {base}/{prefix}/{resource}?{query}
func (c *apiClient) endpoint(prefix, resource string, query url.Values) string {
	u := c.baseURL + "/" + prefix + "/" + strings.TrimLeft(resource, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// call sends a JSON request against the versioned API and decodes the
// JSON response into out when out is non-nil
func (c *apiClient) call(ctx context.Context, method, resource string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(apiVersion, resource, query), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

// send paces and executes req. Non-2xx responses come back as *googleapi.Error.
func (c *apiClient) send(req *http.Request, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return err
	}

	c.logger.Debug().Str("method", req.Method).Str("path", req.URL.Path).Msg("Gemini API request")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer googleapi.CloseBody(resp)

	if err := googleapi.CheckResponse(resp); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
