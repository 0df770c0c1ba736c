package forwarder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ForwardedFromValue marks deliveries relayed by this service.
const ForwardedFromValue = "chatico-mapper"

// responseTruncateLimit caps how much of a worker app's response body is
// kept for the audit trail.
const responseTruncateLimit = 500

// Result describes the outcome of one forwarding attempt.
type Result struct {
	Success      bool
	StatusCode   int
	ResponseText string
	Error        string
	// WebhookID echoes the correlation ID the delivery was sent under.
	WebhookID string
	Duration  time.Duration
}

// Forwarder delivers the original webhook body to a worker app endpoint.
// webhookID is the caller's correlation ID: it goes out as X-Webhook-ID
// and the same value must end up in the audit row for the attempt.
type Forwarder interface {
	Forward(ctx context.Context, targetURL, webhookID string, body []byte, headers http.Header) Result
}

// httpForwarder forwards over plain HTTP POST with a bounded timeout and
// no retries: each comment gets exactly one attempt per delivery.
type httpForwarder struct {
	client *http.Client
}

func NewHTTPForwarder(timeout time.Duration) Forwarder {
	return &httpForwarder{client: &http.Client{Timeout: timeout}}
}

// hop-by-hop and destination-specific headers that must not be passed
// through; Host and Content-Length are rebuilt for the new destination.
var skipHeaders = map[string]bool{
	"Host":           true,
	"Content-Length": true,
	"Connection":     true,
}

// Forward POSTs the exact body bytes to targetURL. The body is never
// re-encoded: a worker app that re-verifies X-Hub-Signature-256 must see
// the bytes the original signature was computed over.
func (f *httpForwarder) Forward(ctx context.Context, targetURL, webhookID string, body []byte, headers http.Header) Result {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return Result{
			Error:     fmt.Sprintf("Request error: %v", err),
			WebhookID: webhookID,
			Duration:  time.Since(start),
		}
	}

	for name, values := range headers {
		if skipHeaders[http.CanonicalHeaderKey(name)] {
			continue
		}
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	req.Header.Set("X-Webhook-ID", webhookID)
	req.Header.Set("X-Forwarded-From", ForwardedFromValue)

	resp, err := f.client.Do(req)
	if err != nil {
		reason := "Request error: " + err.Error()
		if isTimeout(err) {
			reason = "Request timeout"
		}
		log.Printf("forward to %s failed: %v", targetURL, err)
		return Result{
			Error:     reason,
			WebhookID: webhookID,
			Duration:  time.Since(start),
		}
	}
	defer resp.Body.Close()

	responseText := readTruncated(resp.Body)
	result := Result{
		StatusCode:   resp.StatusCode,
		ResponseText: responseText,
		WebhookID:    webhookID,
		Duration:     time.Since(start),
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		result.Success = true
	default:
		result.Error = fmt.Sprintf("Worker app returned %d", resp.StatusCode)
	}
	return result
}

func isTimeout(err error) bool {
	if t, ok := err.(interface{ Timeout() bool }); ok && t.Timeout() {
		return true
	}
	// http.Client wraps context deadline errors in url.Error without a
	// Timeout method on older paths; fall back to string matching.
	return strings.Contains(err.Error(), "context deadline exceeded") ||
		strings.Contains(err.Error(), "Client.Timeout exceeded")
}

func readTruncated(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, responseTruncateLimit))
	if err != nil {
		return ""
	}
	return string(data)
}
