package forwarder

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	body    []byte
	headers http.Header
}

func captureServer(t *testing.T, status int, responseBody string) (*httptest.Server, *received) {
	t.Helper()
	got := &received{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		got.body = body
		got.headers = r.Header.Clone()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(responseBody))
	}))
	t.Cleanup(server.Close)
	return server, got
}

func TestForwardPreservesBodyBytes(t *testing.T) {
	server, got := captureServer(t, http.StatusOK, "ok")
	f := NewHTTPForwarder(5 * time.Second)

	// Byte-level quirks a re-serialization would destroy: key order,
	// spacing, unicode escapes.
	body := []byte(`{"b":1,  "a": "é", "entry":[{}]}`)
	result := f.Forward(context.Background(), server.URL, "wh-1", body, http.Header{})

	assert.True(t, result.Success)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, body, got.body)
}

func TestForwardHeaderPassthrough(t *testing.T) {
	server, got := captureServer(t, http.StatusOK, "")
	f := NewHTTPForwarder(5 * time.Second)

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("X-Hub-Signature-256", "sha256=abc")
	headers.Set("X-Trace-Id", "trace-1")
	headers.Set("Host", "mapper.internal")
	headers.Set("Content-Length", "9999")

	result := f.Forward(context.Background(), server.URL, "wh-2", []byte(`{"a":1}`), headers)
	require.True(t, result.Success)

	assert.Equal(t, "application/json", got.headers.Get("Content-Type"))
	assert.Equal(t, "sha256=abc", got.headers.Get("X-Hub-Signature-256"))
	assert.Equal(t, "trace-1", got.headers.Get("X-Trace-Id"))

	// Host/Content-Length describe the new request, not the original.
	assert.NotEqual(t, "mapper.internal", got.headers.Get("Host"))
	assert.NotEqual(t, "9999", got.headers.Get("Content-Length"))

	// Correlation headers carry the caller's ID, not a fresh one.
	assert.Equal(t, ForwardedFromValue, got.headers.Get("X-Forwarded-From"))
	assert.Equal(t, "wh-2", got.headers.Get("X-Webhook-ID"))
	assert.Equal(t, "wh-2", result.WebhookID)
}

func TestForwardAcceptedStatuses(t *testing.T) {
	for _, status := range []int{200, 201, 202, 204} {
		server, _ := captureServer(t, status, "")
		f := NewHTTPForwarder(5 * time.Second)

		result := f.Forward(context.Background(), server.URL, "wh-3", []byte("{}"), http.Header{})
		assert.True(t, result.Success, "status %d should be a success", status)
		assert.Empty(t, result.Error)
	}
}

func TestForwardRejectedStatus(t *testing.T) {
	server, _ := captureServer(t, http.StatusBadGateway, "upstream broken")
	f := NewHTTPForwarder(5 * time.Second)

	result := f.Forward(context.Background(), server.URL, "wh-3", []byte("{}"), http.Header{})

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusBadGateway, result.StatusCode)
	assert.Equal(t, "Worker app returned 502", result.Error)
	assert.Equal(t, "upstream broken", result.ResponseText)
}

func TestForwardTruncatesResponseBody(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	server, _ := captureServer(t, http.StatusInternalServerError, string(long))
	f := NewHTTPForwarder(5 * time.Second)

	result := f.Forward(context.Background(), server.URL, "wh-3", []byte("{}"), http.Header{})
	assert.Len(t, result.ResponseText, responseTruncateLimit)
}

func TestForwardTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)
	f := NewHTTPForwarder(20 * time.Millisecond)

	result := f.Forward(context.Background(), server.URL, "wh-3", []byte("{}"), http.Header{})

	assert.False(t, result.Success)
	assert.Equal(t, "Request timeout", result.Error)
}

func TestForwardConnectionError(t *testing.T) {
	f := NewHTTPForwarder(time.Second)

	// Nothing listens here.
	result := f.Forward(context.Background(), "http://127.0.0.1:1", "wh-4", []byte("{}"), http.Header{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Request error: ")
}
