package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusErrorTemporary(t *testing.T) {
	assert.True(t, (&StatusError{Code: http.StatusTooManyRequests}).Temporary())
	assert.True(t, (&StatusError{Code: http.StatusBadGateway}).Temporary())
	assert.False(t, (&StatusError{Code: http.StatusForbidden}).Temporary())
}

func TestNewWebhookDefaults(t *testing.T) {
	w := NewWebhook("test hook", "http://example.invalid", nil, 0, -1)
	require.NotNil(t, w.Client)
	assert.Equal(t, DefaultWebhookTimeout, w.Client.Timeout)
	assert.Zero(t, w.RetryLimit)
	assert.Equal(t, defaultBackoff, w.Backoff)
}

func TestWebhookPostJSONRetriesUntilLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	hook := NewWebhook("test hook", srv.URL, srv.Client(), 0, 2)
	hook.Backoff = time.Millisecond

	err := hook.PostJSON(context.Background(), map[string]string{"k": "v"})
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "busy", se.Body)
	assert.Contains(t, err.Error(), "test hook 503")
	assert.Equal(t, int32(3), hits.Load())
}

func TestWebhookPostJSONEncodeError(t *testing.T) {
	hook := NewWebhook("test hook", "http://example.invalid", nil, 0, 0)
	err := hook.PostJSON(context.Background(), make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode test hook payload")
}
