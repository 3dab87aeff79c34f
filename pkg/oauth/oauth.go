// Package oauth implements the Salesforce OAuth device flow and access token
// refresh.
//
// Device flow:
// https://www.oauth.com/oauth2-servers/device-flow/authorization-request/
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/natserract/sftools/pkg/config"
	httpclient "github.com/natserract/sftools/pkg/http"
	"go.uber.org/zap"
)

// ErrNoRefreshToken is returned by RefreshAccessToken when no refresh token
// is configured. Callers treat this as "refresh is not possible", not as a
// transient failure.
var ErrNoRefreshToken = errors.New("no refresh token configured")

// verificationTimeout bounds how long we wait for the user to approve the
// device code.
const verificationTimeout = 5 * time.Minute

// OAuth performs token requests against the configured instance's token
// endpoint.
type OAuth struct {
	config     *config.Config
	httpClient *httpclient.Client
	logger     *zap.Logger
}

// New creates an OAuth helper with the default production logger.
func New(cfg *config.Config) *OAuth {
	logger, _ := zap.NewProduction()
	return NewWithLogger(cfg, logger)
}

// NewWithLogger creates an OAuth helper with a custom logger.
func NewWithLogger(cfg *config.Config, logger *zap.Logger) *OAuth {
	return &OAuth{
		config:     cfg,
		httpClient: httpclient.NewClientWithLogger(logger),
		logger:     logger,
	}
}

// TokenResponse is the token endpoint response for both the device grant and
// the refresh grant.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	InstanceURL  string `json:"instance_url,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	IssuedAt     string `json:"issued_at,omitempty"`
}

// errorResponse is the token endpoint error payload.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// verification is the device flow verification code response.
type verification struct {
	VerificationURI string `json:"verification_uri"`
	Interval        int    `json:"interval"`
	UserCode        string `json:"user_code"`
	DeviceCode      string `json:"device_code"`
}

// url returns the approval URL the user must visit.
func (v *verification) url() string {
	q := url.Values{}
	q.Set("user_code", v.UserCode)
	return fmt.Sprintf("%s?%s", v.VerificationURI, q.Encode())
}

// polling control errors, internal to the device flow loop
var (
	errAuthorizationPending = errors.New("authorization pending")
	errSlowDown             = errors.New("slow down")
)

// RefreshAccessToken exchanges the configured refresh token for a new access
// token and updates the in-memory config. Persisting the new token is the
// caller's decision.
//
// https://www.oauth.com/oauth2-servers/making-authenticated-requests/refreshing-an-access-token/
func (o *OAuth) RefreshAccessToken(ctx context.Context) (string, error) {
	if o.config.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	o.logger.Info("Refreshing access token", zap.String("url", o.config.TokenURL()))

	resp, err := o.httpClient.PostForm(ctx, o.config.TokenURL(), map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     o.config.ClientID,
		"refresh_token": o.config.RefreshToken,
	})
	if err != nil {
		o.logger.Error("Token refresh request failed", zap.Error(err))
		return "", fmt.Errorf("token refresh request failed: %w", err)
	}

	if resp.StatusCode != 200 {
		o.logger.Error("Token refresh failed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(resp.Body)))
		return "", fmt.Errorf("token refresh failed with status %d: %s", resp.StatusCode, string(resp.Body))
	}

	var token TokenResponse
	if err := json.Unmarshal(resp.Body, &token); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response contains no access token")
	}

	o.config.SetTokens(token.AccessToken, "")
	o.logger.Info("Successfully refreshed access token")

	return token.AccessToken, nil
}

// RequestAccessToken interactively performs the device flow: it prints the
// approval URL to out, then polls the token endpoint until the user approves
// or the verification times out. New tokens are stored in the in-memory
// config; persisting them is the caller's decision.
func (o *OAuth) RequestAccessToken(ctx context.Context, out io.Writer) error {
	v, err := o.requestVerificationCode(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Please approve access: %s\n", v.url())
	fmt.Fprint(out, "Waiting for verification...")

	interval := v.Interval
	if interval <= 0 {
		interval = 1
	}

	deadline := time.Now().Add(verificationTimeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(interval) * time.Second):
		}
		fmt.Fprint(out, ".")

		token, err := o.requestDeviceToken(ctx, v.DeviceCode)
		switch {
		case err == nil:
			o.config.SetTokens(token.AccessToken, token.RefreshToken)
			fmt.Fprintln(out, "approved.")
			o.logger.Info("Device flow approved")
			return nil
		case errors.Is(err, errSlowDown):
			interval++
		case errors.Is(err, errAuthorizationPending):
			// keep polling
		default:
			fmt.Fprintln(out)
			return err
		}
	}

	fmt.Fprintln(out)
	return fmt.Errorf("verification timeout after %s", verificationTimeout)
}

func (o *OAuth) requestVerificationCode(ctx context.Context) (*verification, error) {
	resp, err := o.httpClient.PostForm(ctx, o.config.TokenURL(), map[string]string{
		"response_type": "device_code",
		"scope":         "full refresh_token",
		"client_id":     o.config.ClientID,
	})
	if err != nil {
		return nil, fmt.Errorf("verification code request failed: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("verification code request failed with status %d: %s", resp.StatusCode, string(resp.Body))
	}

	var v verification
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return nil, fmt.Errorf("failed to parse verification response: %w", err)
	}
	return &v, nil
}

func (o *OAuth) requestDeviceToken(ctx context.Context, deviceCode string) (*TokenResponse, error) {
	resp, err := o.httpClient.PostForm(ctx, o.config.TokenURL(), map[string]string{
		"grant_type": "device",
		"client_id":  o.config.ClientID,
		"code":       deviceCode,
	})
	if err != nil {
		return nil, fmt.Errorf("device token request failed: %w", err)
	}

	if resp.StatusCode == 200 {
		var token TokenResponse
		if err := json.Unmarshal(resp.Body, &token); err != nil {
			return nil, fmt.Errorf("failed to parse token response: %w", err)
		}
		return &token, nil
	}

	if resp.StatusCode == 400 {
		var e errorResponse
		if err := json.Unmarshal(resp.Body, &e); err != nil {
			return nil, fmt.Errorf("failed to parse error response: %w", err)
		}
		switch e.Error {
		case "authorization_pending":
			return nil, errAuthorizationPending
		case "slow_down":
			return nil, errSlowDown
		case "server_error", "invalid_request":
			return nil, fmt.Errorf("error waiting for authorization: %s", e.ErrorDescription)
		case "invalid_grant":
			return nil, fmt.Errorf("invalid grant for this app: %s", e.ErrorDescription)
		case "access_denied":
			return nil, fmt.Errorf("user denied access: %s", e.ErrorDescription)
		default:
			return nil, fmt.Errorf("unknown error: %s (%s)", e.Error, e.ErrorDescription)
		}
	}

	return nil, fmt.Errorf("unexpected response status: %d", resp.StatusCode)
}
