// Package rest implements the salesforce.Transport interface over the
// Salesforce REST API.
//
// https://developer.salesforce.com/docs/atlas.en-us.api_rest.meta/api_rest/resources_list.htm
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/natserract/sftools/pkg/config"
	httpclient "github.com/natserract/sftools/pkg/http"
	"github.com/natserract/sftools/pkg/salesforce"
	"go.uber.org/zap"
)

// APIError is a non-retryable REST API failure, carrying the upstream error
// code (e.g. MALFORMED_QUERY, NOT_FOUND).
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("salesforce api error %s (status %d): %s", e.ErrorCode, e.StatusCode, e.Message)
}

// apiErrorEntry is one entry of the REST error payload, which is a JSON
// array.
type apiErrorEntry struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// Client calls the Salesforce REST API. The session token is guarded by a
// mutex: the client itself issues strictly sequential calls, but a
// multi-threaded embedding must not observe a torn token during refresh.
type Client struct {
	instanceURL string
	version     string
	httpClient  *httpclient.Client
	logger      *zap.Logger

	mu        sync.RWMutex
	sessionID string
}

// New creates a REST transport bound to the configured instance, API version
// and access token.
func New(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		instanceURL: cfg.InstanceURL(),
		version:     cfg.APIVersion,
		sessionID:   cfg.AccessToken,
		httpClient:  httpclient.NewClientWithLogger(logger),
		logger:      logger,
	}
}

// SetSessionID rebinds the transport to a new access token.
func (c *Client) SetSessionID(token string) {
	c.mu.Lock()
	c.sessionID = token
	c.mu.Unlock()
}

func (c *Client) session() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

func (c *Client) basePath() string {
	return fmt.Sprintf("/services/data/v%s", c.version)
}

func (c *Client) authHeaders() map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", c.session()),
	}
}

// get performs an authorized GET and classifies non-2xx responses.
func (c *Client) get(ctx context.Context, path string, queryParams map[string]string) ([]byte, error) {
	endpoint, err := httpclient.BuildURL(c.instanceURL, path, queryParams)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL: %w", err)
	}

	resp, err := c.httpClient.Get(ctx, endpoint, c.authHeaders())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, c.apiError(resp)
	}
	return resp.Body, nil
}

// apiError maps a REST error response to the client error taxonomy. A 401
// with errorCode INVALID_SESSION_ID becomes ErrSessionExpired so the caller
// can refresh and retry.
func (c *Client) apiError(resp *httpclient.Response) error {
	var entries []apiErrorEntry
	if err := json.Unmarshal(resp.Body, &entries); err != nil || len(entries) == 0 {
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  "UNKNOWN",
			Message:    string(resp.Body),
		}
	}

	e := entries[0]
	if resp.StatusCode == http.StatusUnauthorized && e.ErrorCode == "INVALID_SESSION_ID" {
		c.logger.Debug("Session rejected by API", zap.String("message", e.Message))
		return fmt.Errorf("%s: %w", e.Message, salesforce.ErrSessionExpired)
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		ErrorCode:  e.ErrorCode,
		Message:    e.Message,
	}
}

// queryResponse is the REST query result shape.
type queryResponse struct {
	TotalSize int                 `json:"totalSize"`
	Done      bool                `json:"done"`
	Records   []salesforce.Record `json:"records"`
}

// CountQuery executes a COUNT() clause. The REST API reports the count in
// totalSize with an empty records array.
func (c *Client) CountQuery(ctx context.Context, clause string) (int, error) {
	body, err := c.get(ctx, c.basePath()+"/query", map[string]string{"q": clause})
	if err != nil {
		return 0, err
	}

	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return 0, fmt.Errorf("failed to parse count response: %w", err)
	}
	return qr.TotalSize, nil
}

// DataQuery executes a SOQL clause and returns one page of records.
func (c *Client) DataQuery(ctx context.Context, clause string) (*salesforce.QueryResult, error) {
	body, err := c.get(ctx, c.basePath()+"/query", map[string]string{"q": clause})
	if err != nil {
		return nil, err
	}

	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, fmt.Errorf("failed to parse query response: %w", err)
	}
	return &salesforce.QueryResult{
		TotalSize: qr.TotalSize,
		Records:   qr.Records,
	}, nil
}

// Search executes a SOSL clause.
func (c *Client) Search(ctx context.Context, clause string) (*salesforce.SearchResult, error) {
	body, err := c.get(ctx, c.basePath()+"/search", map[string]string{"q": clause})
	if err != nil {
		return nil, err
	}

	var sr struct {
		SearchRecords []salesforce.Record `json:"searchRecords"`
	}
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return &salesforce.SearchResult{SearchRecords: sr.SearchRecords}, nil
}

// Describe lists all object types of the org.
func (c *Client) Describe(ctx context.Context) (*salesforce.DescribeResult, error) {
	body, err := c.get(ctx, c.basePath()+"/sobjects", nil)
	if err != nil {
		return nil, err
	}

	var dr salesforce.DescribeResult
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, fmt.Errorf("failed to parse describe response: %w", err)
	}
	return &dr, nil
}

// DescribeObject returns field metadata for one object type.
func (c *Client) DescribeObject(ctx context.Context, name string) (*salesforce.ObjectDescribe, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/sobjects/%s/describe", c.basePath(), name), nil)
	if err != nil {
		return nil, err
	}

	var od salesforce.ObjectDescribe
	if err := json.Unmarshal(body, &od); err != nil {
		return nil, fmt.Errorf("failed to parse object describe response: %w", err)
	}
	return &od, nil
}

// Delete removes the object with the given id. The API responds 204 on
// success.
func (c *Client) Delete(ctx context.Context, objectType, id string) error {
	endpoint, err := httpclient.BuildURL(c.instanceURL,
		fmt.Sprintf("%s/sobjects/%s/%s", c.basePath(), objectType, id), nil)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}

	resp, err := c.httpClient.Delete(ctx, endpoint, c.authHeaders())
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return c.apiError(resp)
	}
	return nil
}

// Interface check against the capability surface the client consumes.
var _ salesforce.Transport = (*Client)(nil)
