// Package salesforce is a convenience client for SOQL queries and SOSL
// searches against a Salesforce org.
//
// The client layers three things over a Transport: pagination of query
// results around the hard server-side row caps, a one-shot refresh-and-retry
// of expired sessions, and typed object wrappers resolved through an explicit
// type registry.
package salesforce

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/natserract/sftools/pkg/config"
	"github.com/natserract/sftools/pkg/soql"
	"go.uber.org/zap"
)

// Hard caps of the upstream query service. These are service limits, not
// tunables.
const (
	// maxQueryRows is the row cap of a single query() call.
	maxQueryRows = 2000
	// maxPreloadRows is the row cap when selecting FIELDS(ALL).
	maxPreloadRows = 200
	// maxQueryOffset is the server-side OFFSET cap; the maximum retrievable
	// row count for one logical query is maxQueryOffset plus one page.
	maxQueryOffset = 2000
)

// SF is the convenience interface to Salesforce. All calls are synchronous
// and strictly sequential; one RPC call is outstanding at a time.
type SF struct {
	config    *config.Config
	transport Transport
	refresher TokenRefresher
	logger    *zap.Logger

	// DryRun disables destructive operations (Delete logs and returns).
	DryRun bool

	// objectNames caches the queryable+searchable object names from
	// Describe. Not session-bound, so never invalidated.
	objectNames []string
	types       map[string]*SFType
}

// New creates a client with the default production logger.
func New(cfg *config.Config, transport Transport, refresher TokenRefresher) *SF {
	logger, _ := zap.NewProduction()
	return NewWithLogger(cfg, transport, refresher, logger)
}

// NewWithLogger creates a client with a custom logger.
func NewWithLogger(cfg *config.Config, transport Transport, refresher TokenRefresher, logger *zap.Logger) *SF {
	return &SF{
		config:    cfg,
		transport: transport,
		refresher: refresher,
		logger:    logger,
		types:     make(map[string]*SFType),
	}
}

// Config returns the client's configuration.
func (sf *SF) Config() *config.Config {
	return sf.config
}

// withRefresh runs op, and when it fails with an expired session, refreshes
// the access token exactly once, rebinds it, and retries op once more.
//
// If the refresh itself fails (typically no valid refresh credential), the
// ORIGINAL expiry error is returned so callers see what actually broke the
// call. A second expiry on the retry is not caught and propagates.
func withRefresh[T any](ctx context.Context, sf *SF, op func() (T, error)) (T, error) {
	result, err := op()
	if err == nil || !errors.Is(err, ErrSessionExpired) {
		return result, err
	}

	sf.logger.Info("Session expired, refreshing access token")
	token, refreshErr := sf.refresher.RefreshAccessToken(ctx)
	if refreshErr != nil {
		sf.logger.Warn("Token refresh failed, surfacing original session expiry",
			zap.Error(refreshErr))
		return result, err
	}
	sf.afterRefresh(token)

	return op()
}

// afterRefresh rebinds a freshly refreshed access token into the transport
// and persists it. Persistence failures are logged, never fatal: the
// in-memory session is already valid.
func (sf *SF) afterRefresh(token string) {
	sf.transport.SetSessionID(token)
	sf.config.SetTokens(token, "")
	if err := sf.config.Save(); err != nil {
		sf.logger.Warn("Failed to persist refreshed access token", zap.Error(err))
	}
}

// QueryCount returns the number of rows matching the query without
// retrieving them.
func (sf *SF) QueryCount(ctx context.Context, from, where string) (int, error) {
	q := &soql.Query{
		Select: []string{"COUNT()"},
		From:   from,
		Where:  where,
		// COUNT() queries must not carry ORDER BY
		OrderBy: []string{},
	}
	clause, err := q.Clause()
	if err != nil {
		return 0, err
	}

	sf.logger.Debug("Counting query results", zap.String("clause", clause))
	return withRefresh(ctx, sf, func() (int, error) {
		return sf.transport.CountQuery(ctx, clause)
	})
}

// Query executes a SOQL query, transparently paginating around the service
// row caps, and returns the full merged result.
//
// When preloadFields is true the caller's select list is replaced entirely by
// FIELDS(ALL), which lowers the page size cap from 2000 to 200 rows.
//
// The total retrievable row count for one logical query is bounded by the
// OFFSET cap: queries matching more than 2000 + pageSize rows fail with
// *QueryTooLargeError before any data page is requested. Narrow the WHERE
// expression to retrieve more.
func (sf *SF) Query(ctx context.Context, q *soql.Query, preloadFields bool) (*QueryResult, error) {
	pageSize := maxQueryRows
	sel := q.Select
	if preloadFields {
		sel = []string{"FIELDS(ALL)"}
		pageSize = maxPreloadRows
	}

	page := &soql.Query{
		Select:  sel,
		From:    q.From,
		Where:   q.Where,
		OrderBy: q.OrderBy,
		Limit:   pageSize,
	}
	// Validate the page clause before spending a COUNT round-trip on it.
	if _, err := page.Clause(); err != nil {
		return nil, err
	}

	count, err := sf.QueryCount(ctx, q.From, q.Where)
	if err != nil {
		return nil, err
	}

	max := maxQueryOffset + pageSize
	if count > max {
		return nil, &QueryTooLargeError{Count: count, Max: max}
	}

	results := &QueryResult{TotalSize: count}
	if count == 0 {
		return results, nil
	}

	sf.logger.Debug("Executing paginated query",
		zap.String("from", q.From),
		zap.Int("total", count),
		zap.Int("page_size", pageSize))

	for results.Count() < count {
		page.Offset = results.Count()
		clause, err := page.Clause()
		if err != nil {
			return nil, err
		}

		pageResult, err := withRefresh(ctx, sf, func() (*QueryResult, error) {
			return sf.transport.DataQuery(ctx, clause)
		})
		if err != nil {
			return nil, err
		}

		if added := results.add(pageResult.Records); added == 0 {
			return nil, &PaginationProgressError{Accumulated: results.Count(), Total: count}
		}
	}

	return results, nil
}

// Search executes a SOSL search with the same session-refresh wrapping as
// Query. When escapeFind is true (recommended for user input), all SOSL
// reserved characters in find are escaped. The find string must not include
// the enclosing braces; they are added here.
func (sf *SF) Search(ctx context.Context, find, returning string, escapeFind bool) (*SearchResult, error) {
	if find == "" {
		return nil, &soql.ValidationError{Reason: "FIND is required"}
	}
	if returning == "" {
		return nil, &soql.ValidationError{Reason: "RETURNING is required"}
	}
	if escapeFind {
		find = soql.EscapeSOSL(find)
	}
	clause := fmt.Sprintf("FIND {%s} RETURNING %s", find, returning)

	sf.logger.Debug("Executing search", zap.String("clause", clause))
	return withRefresh(ctx, sf, func() (*SearchResult, error) {
		return sf.transport.Search(ctx, clause)
	})
}

// ObjectNames returns the names of all object types that are both queryable
// and searchable. The listing is cached on the client.
func (sf *SF) ObjectNames(ctx context.Context) ([]string, error) {
	if sf.objectNames != nil {
		return sf.objectNames, nil
	}

	desc, err := withRefresh(ctx, sf, func() (*DescribeResult, error) {
		return sf.transport.Describe(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("describe failed: %w", err)
	}

	names := make([]string, 0, len(desc.SObjects))
	for _, o := range desc.SObjects {
		if o.Queryable && o.Searchable {
			names = append(names, o.Name)
		}
	}
	sf.objectNames = names
	return names, nil
}

// Type resolves a typed wrapper for the named object type, validating the
// name against the org's queryable types. Wrappers are cached per name.
func (sf *SF) Type(ctx context.Context, name string) (*SFType, error) {
	if t, ok := sf.types[name]; ok {
		return t, nil
	}

	names, err := sf.ObjectNames(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(names, name) {
		return nil, fmt.Errorf("no queryable object type %q", name)
	}

	t := newSFType(sf, name)
	sf.types[name] = t
	return t, nil
}
