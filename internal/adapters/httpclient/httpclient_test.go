package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/http/cookiejar"
	"testing"
	"time"

	apperrors "github.com/campus-tools/adeplanning/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_Success(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	client := New(Config{UserAgent: "adeplanning-test"})
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/x?ticket=1", nil)
	require.NoError(t, err)

	resp, err := Do(client, req, apperrors.StageCalendarFetch)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(resp.Body))
	assert.Equal(t, "/x", resp.URL.Path)
	assert.Equal(t, "adeplanning-test", gotUA)
}

func TestDo_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/feed?secret=1", nil)
	require.NoError(t, err)

	resp, err := Do(New(Config{}), req, apperrors.StageCalendarFetch)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.True(t, apperrors.IsTransport(err))
	assert.Equal(t, apperrors.StageCalendarFetch, apperrors.GetStage(err))

	var statusErr *apperrors.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.NotContains(t, statusErr.URL, "secret")
}

func TestDo_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = Do(New(Config{}), req, apperrors.StageRPCLogin)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestWithJar(t *testing.T) {
	base := New(Config{Timeout: time.Second})
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	withJar := WithJar(base, jar)
	assert.Nil(t, base.Jar, "base client must not be modified")
	assert.Equal(t, jar, withJar.Jar)
	assert.Equal(t, time.Second, withJar.Timeout)
	assert.NotNil(t, WithJar(nil, jar).Transport)
}
