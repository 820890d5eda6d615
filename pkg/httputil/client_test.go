package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ibdscreener/pkg/logger"
)

func TestNew(t *testing.T) {
	client := New("http://localhost:8080/", logger.Nop())
	require.NotNil(t, client)

	assert.NotNil(t, client.httpClient)
	assert.Equal(t, 3, client.retryConfig.MaxRetries)
	assert.True(t, client.retryConfig.Enabled)
	assert.Equal(t, "http://localhost:8080/api/runs/latest", client.URL("/api/runs/latest"))
}

func TestOptions(t *testing.T) {
	client := New("", nil).WithTimeout(5*time.Second).WithRetry(5, 2*time.Second)
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	assert.Equal(t, 5, client.retryConfig.MaxRetries)
	assert.Equal(t, 2*time.Second, client.retryConfig.InitialDelay)

	client.DisableRetry()
	assert.False(t, client.retryConfig.Enabled)
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/screeners", r.URL.Path)
		w.Write([]byte(`[{"name":"Momentum 97"}]`))
	}))
	defer server.Close()

	var out []map[string]string
	err := New(server.URL, logger.Nop()).GetJSON(context.Background(), "/api/screeners", &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Momentum 97", out[0]["name"])
}

func TestPostJSONInto(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "v", in["k"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"created":true}`))
	}))
	defer server.Close()

	var out struct {
		Created bool `json:"created"`
	}
	err := New(server.URL, logger.Nop()).PostJSONInto(context.Background(), "/x", map[string]string{"k": "v"}, &out)
	require.NoError(t, err)
	assert.True(t, out.Created)
}

func TestRetry_ServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(server.URL, logger.Nop()).WithRetry(3, time.Millisecond)
	require.NoError(t, client.PostJSONInto(context.Background(), "/api/screeners/run", nil, nil))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestStatusError_NoRetryOnClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "no screening run stored", http.StatusNotFound)
	}))
	defer server.Close()

	err := New(server.URL, logger.Nop()).WithRetry(3, time.Millisecond).GetJSON(context.Background(), "/api/runs/latest", nil)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "no screening run stored", se.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetry_StopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(server.URL, logger.Nop()).WithRetry(5, time.Hour).Get(ctx, "/")
	assert.Error(t, err)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(http.StatusTooManyRequests))
	assert.True(t, IsRetryableError(http.StatusInternalServerError))
	assert.False(t, IsRetryableError(http.StatusNotFound))
	assert.False(t, IsRetryableError(http.StatusOK))
}
