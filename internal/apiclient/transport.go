package apiclient

import (
	"net/http"
	"time"

	"github.com/nkiryanov/sims/internal/logger"
)

type loggingTransport struct {
	next   http.RoundTripper
	logger logger.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.next.RoundTrip(req)

	attrs := []any{
		"method", req.Method,
		"url", req.URL.Redacted(),
		"request_id", req.Header.Get(HeaderRequestID),
		"duration", time.Since(start),
	}
	if err != nil {
		t.logger.Warn("Backend request failed", append(attrs, "error", err)...)
		return nil, err
	}

	t.logger.Debug("Backend request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}
