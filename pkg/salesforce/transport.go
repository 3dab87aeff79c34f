package salesforce

import "context"

// Transport is the narrow capability interface this client needs from the
// upstream RPC service. A transport must wrap ErrSessionExpired into any
// failure caused by an invalid access token; all other failures propagate
// unchanged.
type Transport interface {
	// CountQuery executes a COUNT() SOQL clause and returns the matching
	// row count.
	CountQuery(ctx context.Context, clause string) (int, error)

	// DataQuery executes a SOQL clause and returns one page of records.
	DataQuery(ctx context.Context, clause string) (*QueryResult, error)

	// Search executes a SOSL clause.
	Search(ctx context.Context, clause string) (*SearchResult, error)

	// Describe lists all object types of the org.
	Describe(ctx context.Context) (*DescribeResult, error)

	// DescribeObject returns field metadata for one object type.
	DescribeObject(ctx context.Context, name string) (*ObjectDescribe, error)

	// Delete removes the object with the given id.
	Delete(ctx context.Context, objectType, id string) error

	// SetSessionID rebinds the transport to a new access token after a
	// refresh.
	SetSessionID(token string)
}

// TokenRefresher exchanges a refresh credential for a new access token.
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context) (string, error)
}

// DescribeResult is the org-wide object type listing.
type DescribeResult struct {
	SObjects []SObjectDescription `json:"sobjects"`
}

// SObjectDescription describes one object type of the org.
type SObjectDescription struct {
	Name       string `json:"name"`
	Queryable  bool   `json:"queryable"`
	Searchable bool   `json:"searchable"`
}

// ObjectDescribe is the per-type field metadata.
type ObjectDescribe struct {
	Name   string             `json:"name"`
	Fields []FieldDescription `json:"fields"`
}

// FieldDescription describes one field of an object type.
type FieldDescription struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}
