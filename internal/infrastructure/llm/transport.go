package llm

import (
	"net/http"
	"time"

	"better-todo/internal/application/port/output"
)

// loggingTransport logs every provider round trip without request bodies, which
// carry user content and credentials.
type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Warn("provider request failed", "method", req.Method, "url", req.URL.String(), "error", err)
		return nil, err
	}
	t.logger.Debug("provider response",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return resp, nil
}

// NewHTTPClient returns the client shared by provider adapters.
func NewHTTPClient(timeout time.Duration, logger output.LoggerPort) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &loggingTransport{base: http.DefaultTransport, logger: logger},
	}
}
