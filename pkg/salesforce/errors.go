package salesforce

import (
	"errors"
	"fmt"
)

// ErrSessionExpired signals that the upstream rejected the current access
// token. Transport implementations wrap this sentinel so the client can
// refresh credentials once and retry; all other transport failures propagate
// unchanged.
var ErrSessionExpired = errors.New("session expired or invalid")

// QueryTooLargeError reports a query whose result set cannot be fully
// retrieved: OFFSET is capped server-side at 2000, so the maximum retrievable
// row count is 2000 plus one page. The error is raised before any data page
// is requested.
type QueryTooLargeError struct {
	Count int
	Max   int
}

func (e *QueryTooLargeError) Error() string {
	return fmt.Sprintf("query matches too many results (%d), maximum retrievable is %d", e.Count, e.Max)
}

// PaginationProgressError guards against a pagination loop that makes no
// progress: a page returned zero new records while the accumulated count is
// still below the server-reported total. That indicates a server-side
// inconsistency, so we abort instead of looping.
type PaginationProgressError struct {
	Accumulated int
	Total       int
}

func (e *PaginationProgressError) Error() string {
	return fmt.Sprintf("pagination made no progress at %d of %d records", e.Accumulated, e.Total)
}

// TotalSizeMismatchError reports an attempt to merge results whose
// server-reported totals disagree. The totals are authoritative and fixed per
// logical query; a mismatch means the inputs came from different queries and
// must not be silently combined.
type TotalSizeMismatchError struct {
	A int
	B int
}

func (e *TotalSizeMismatchError) Error() string {
	return fmt.Sprintf("cannot merge results with different totals: %d != %d", e.A, e.B)
}
