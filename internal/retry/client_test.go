package retry

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

func flakyServer(failures int32, failStatus int) (*httptest.Server, *atomic.Int32) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= failures {
			w.WriteHeader(failStatus)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	return srv, &calls
}

func doGet(t *testing.T, c *Client, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := c.Do(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func TestDo_RetriesServerError(t *testing.T) {
	srv, calls := flakyServer(1, http.StatusInternalServerError)
	defer srv.Close()

	c := NewClient(WithMaxRetries(1), WithInitialRetryDelay(time.Millisecond))

	resp := doGet(t, c, srv.URL)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_RetriesTooManyRequests(t *testing.T) {
	srv, calls := flakyServer(1, http.StatusTooManyRequests)
	defer srv.Close()

	c := NewClient(WithMaxRetries(1), WithInitialRetryDelay(time.Millisecond))

	resp := doGet(t, c, srv.URL)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_ClientErrorIsFinal(t *testing.T) {
	srv, calls := flakyServer(10, http.StatusBadRequest)
	defer srv.Close()

	c := NewClient(WithMaxRetries(3), WithInitialRetryDelay(time.Millisecond))

	resp := doGet(t, c, srv.URL)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load(), "a 4xx answer must not be retried")
}

func TestDo_BudgetExhaustedReturnsLastResponse(t *testing.T) {
	srv, calls := flakyServer(10, http.StatusInternalServerError)
	defer srv.Close()

	c := NewClient(WithMaxRetries(1), WithInitialRetryDelay(time.Millisecond))

	resp := doGet(t, c, srv.URL)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_ZeroRetries(t *testing.T) {
	srv, calls := flakyServer(10, http.StatusInternalServerError)
	defer srv.Close()

	c := NewClient(WithMaxRetries(0))

	resp := doGet(t, c, srv.URL)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_NetworkErrorAfterRetries(t *testing.T) {
	c := NewClient(WithMaxRetries(1), WithInitialRetryDelay(time.Millisecond))

	req, err := http.NewRequest(http.MethodGet, "http://127.0.0.1:1", nil)
	require.NoError(t, err)

	_, err = c.Do(context.Background(), req)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "request failed after 1 retries")
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	srv, _ := flakyServer(10, http.StatusInternalServerError)
	defer srv.Close()

	c := NewClient(WithMaxRetries(3), WithInitialRetryDelay(10*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Do(ctx, req)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "cancellation must cut the backoff short")
}
