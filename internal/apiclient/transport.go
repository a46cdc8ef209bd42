package apiclient

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/observability"
)

// RequestIDHeader correlates client and backend logs.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID makes backend calls issued with ctx carry id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the id set by WithRequestID, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// loggingTransport stamps a request id, logs every call and records metrics.
type loggingTransport struct {
	next    http.RoundTripper
	logger  *zap.Logger
	metrics *observability.Metrics
}

func newLoggingTransport(next http.RoundTripper, logger *zap.Logger, metrics *observability.Metrics) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next, logger: logger, metrics: metrics}
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		if requestID = RequestIDFrom(req.Context()); requestID == "" {
			requestID = uuid.NewString()
		}
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		t.metrics.RecordAPICall(req.URL.Path, req.Method, 0, elapsed)
		t.logger.Warn("backend call failed",
			zap.String("request_id", requestID),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	t.metrics.RecordAPICall(req.URL.Path, req.Method, resp.StatusCode, elapsed)
	log := t.logger.Debug
	if resp.StatusCode >= 500 {
		log = t.logger.Warn
	}
	log("backend call",
		zap.String("request_id", requestID),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
	)
	return resp, nil
}
