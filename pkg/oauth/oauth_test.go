package oauth_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/natserract/sftools/pkg/config"
	"github.com/natserract/sftools/pkg/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newOAuth(t *testing.T, handler http.HandlerFunc, cfg *config.Config) (*oauth.OAuth, *config.Config) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.Instance = srv.URL
	if cfg.ClientID == "" {
		cfg.ClientID = "client-1"
	}
	return oauth.NewWithLogger(cfg, zap.NewNop()), cfg
}

func TestRefreshAccessToken(t *testing.T) {
	var gotGrant, gotClient, gotRefresh string
	o, cfg := newOAuth(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/oauth2/token", r.URL.Path)
		gotGrant = r.FormValue("grant_type")
		gotClient = r.FormValue("client_id")
		gotRefresh = r.FormValue("refresh_token")
		w.Write([]byte(`{"access_token": "fresh-token", "token_type": "Bearer"}`))
	}, &config.Config{RefreshToken: "refresh-1"})

	token, err := o.RefreshAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", token)

	assert.Equal(t, "refresh_token", gotGrant)
	assert.Equal(t, "client-1", gotClient)
	assert.Equal(t, "refresh-1", gotRefresh)

	// refreshed token is stored in memory, refresh token left alone
	assert.Equal(t, "fresh-token", cfg.AccessToken)
	assert.Equal(t, "refresh-1", cfg.RefreshToken)
}

func TestRefreshAccessTokenWithoutRefreshToken(t *testing.T) {
	var calls int32
	o, _ := newOAuth(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, &config.Config{})

	_, err := o.RefreshAccessToken(context.Background())
	assert.ErrorIs(t, err, oauth.ErrNoRefreshToken)
	assert.Zero(t, atomic.LoadInt32(&calls), "no request may be made without a refresh token")
}

func TestRefreshAccessTokenRejected(t *testing.T) {
	o, cfg := newOAuth(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "invalid_grant", "error_description": "expired refresh token"}`))
	}, &config.Config{RefreshToken: "stale"})

	_, err := o.RefreshAccessToken(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, oauth.ErrNoRefreshToken)
	assert.Contains(t, err.Error(), "400")
	assert.Empty(t, cfg.AccessToken)
}

func TestRefreshAccessTokenEmptyToken(t *testing.T) {
	o, _ := newOAuth(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token_type": "Bearer"}`))
	}, &config.Config{RefreshToken: "refresh-1"})

	_, err := o.RefreshAccessToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no access token")
}

func TestDeviceFlow(t *testing.T) {
	var polls int32
	o, cfg := newOAuth(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.FormValue("response_type") {
		case "device_code":
			w.Write([]byte(`{
				"verification_uri": "https://example.test/setup/connect",
				"interval": 1,
				"user_code": "USER-CODE",
				"device_code": "DEVICE-CODE"
			}`))
			return
		}

		require.Equal(t, "device", r.FormValue("grant_type"))
		require.Equal(t, "DEVICE-CODE", r.FormValue("code"))

		if atomic.AddInt32(&polls, 1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": "authorization_pending"}`))
			return
		}
		w.Write([]byte(`{"access_token": "device-access", "refresh_token": "device-refresh"}`))
	}, &config.Config{})

	var out bytes.Buffer
	require.NoError(t, o.RequestAccessToken(context.Background(), &out))

	assert.Equal(t, int32(2), atomic.LoadInt32(&polls))
	assert.Equal(t, "device-access", cfg.AccessToken)
	assert.Equal(t, "device-refresh", cfg.RefreshToken)
	assert.Contains(t, out.String(), "https://example.test/setup/connect?user_code=USER-CODE")
	assert.Contains(t, out.String(), "approved.")
}

func TestDeviceFlowDenied(t *testing.T) {
	o, cfg := newOAuth(t, func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("response_type") == "device_code" {
			w.Write([]byte(`{"verification_uri": "https://example.test/c", "interval": 1, "user_code": "U", "device_code": "D"}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "access_denied", "error_description": "the user said no"}`))
	}, &config.Config{})

	var out bytes.Buffer
	err := o.RequestAccessToken(context.Background(), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
	assert.Empty(t, cfg.AccessToken)
}

func TestDeviceFlowCancelled(t *testing.T) {
	o, _ := newOAuth(t, func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("response_type") == "device_code" {
			w.Write([]byte(`{"verification_uri": "https://example.test/c", "interval": 1, "user_code": "U", "device_code": "D"}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "authorization_pending"}`))
	}, &config.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := o.RequestAccessToken(ctx, &out)
	assert.ErrorIs(t, err, context.Canceled)
}
