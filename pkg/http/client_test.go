package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildURL(t *testing.T) {
	u, err := BuildURL("https://example.my.salesforce.com", "/services/data/v53.0/query",
		map[string]string{"q": "SELECT Id FROM Case"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.my.salesforce.com/services/data/v53.0/query?q=SELECT+Id+FROM+Case", u)

	u, err = BuildURL("http://127.0.0.1:8443", "/services/data/v53.0/sobjects", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8443/services/data/v53.0/sobjects", u)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	client := NewClientWithLogger(zap.NewNop())
	resp, err := client.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetReturnsClientErrorsUnretried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`[{"errorCode": "INVALID_SESSION_ID"}]`))
	}))
	defer srv.Close()

	client := NewClientWithLogger(zap.NewNop())
	resp, err := client.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err, "4xx is a response, not a transport failure")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "INVALID_SESSION_ID")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetriesGiveUpAfterMaxElapsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClientWithLogger(zap.NewNop())
	_, err := client.Do(RequestOptions{
		Method:          http.MethodGet,
		URL:             srv.URL,
		Context:         context.Background(),
		MaxElapsed:      200 * time.Millisecond,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestPostFormEncoding(t *testing.T) {
	var gotContentType, gotGrant string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotGrant = r.FormValue("grant_type")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClientWithLogger(zap.NewNop())
	_, err := client.PostForm(context.Background(), srv.URL, map[string]string{
		"grant_type": "refresh_token",
	})
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "refresh_token", gotGrant)
}

func TestRequestIDHeader(t *testing.T) {
	var requestIDs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestIDs = append(requestIDs, r.Header.Get("X-Request-Id"))
		if len(requestIDs) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClientWithLogger(zap.NewNop())
	_, err := client.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)

	require.Len(t, requestIDs, 2)
	assert.NotEmpty(t, requestIDs[0])
	assert.Equal(t, requestIDs[0], requestIDs[1], "retries of one logical request share the correlation id")
}
