package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/socialdash/internal/utils"
)

func TestDoJSONStatusErrors(t *testing.T) {
	cases := []struct {
		name      string
		code      int
		retryable bool
	}{
		{"internal error", http.StatusInternalServerError, true},
		{"too many requests", http.StatusTooManyRequests, true},
		{"not found", http.StatusNotFound, false},
		{"unauthorized", http.StatusUnauthorized, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.code)
			}))
			defer srv.Close()

			err := doJSON(context.Background(), NewHTTPClient(2*time.Second), http.MethodGet, srv.URL, "", nil, nil)
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.code, se.Code)
			assert.Equal(t, tc.retryable, se.Retryable())
		})
	}
}

func TestDoJSONTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	err := doJSON(context.Background(), NewHTTPClient(50*time.Millisecond), http.MethodGet, srv.URL, "", nil, nil)
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestDoJSONSendsTokenAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct{ OK bool }
	err := doJSON(context.Background(), NewHTTPClient(time.Second), http.MethodPost, srv.URL, "secret", map[string]string{"a": "b"}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestDoJSONDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	var out map[string]any
	err := doJSON(context.Background(), NewHTTPClient(time.Second), http.MethodGet, srv.URL, "", nil, &out)
	assert.True(t, isDecodeErr(err))
	assert.EqualError(t, doJSON(context.Background(), NewHTTPClient(time.Second), http.MethodGet, "", "", nil, nil), "empty url")
}

func newRequester(retries int) *requester {
	return &requester{
		c:       NewHTTPClient(time.Second),
		backoff: utils.NewBackoff(time.Millisecond, retries),
	}
}

func TestRequesterRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	require.NoError(t, newRequester(2).do(context.Background(), http.MethodGet, srv.URL, nil, nil))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRequesterDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	err := newRequester(3).do(context.Background(), http.MethodGet, srv.URL, nil, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRequesterGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := newRequester(1).do(context.Background(), http.MethodGet, srv.URL, nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
