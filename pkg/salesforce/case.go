package salesforce

import (
	"context"
	"fmt"
	"strconv"

	"github.com/natserract/sftools/pkg/soql"
)

func init() {
	RegisterType("Case", TypeHooks{
		ResolveKey:    caseNumberToID,
		RestrictWhere: onlyOpenCases,
	})
}

// onlyOpenCases restricts Case queries to open cases. Closed cases can still
// be reached through Get, which bypasses query restrictions.
func onlyOpenCases(where string) string {
	return soql.WhereAnd(where, "IsClosed = FALSE")
}

// caseNumberToID resolves a case number to the Case Id. Case numbers are at
// most 8 digits, zero-padded. Keys that don't parse as a case number, and
// numbers with no match, are returned unchanged so they are treated as Ids.
func caseNumberToID(ctx context.Context, t *SFType, key string) (string, error) {
	n, err := strconv.Atoi(key)
	if err != nil || len(strconv.Itoa(n)) > 8 {
		return key, nil
	}

	where := fmt.Sprintf("CaseNumber = '%08d'", n)
	result, err := t.rawQuery(ctx, where)
	if err != nil {
		return "", err
	}
	if id := result.First().ID(); id != "" {
		return id, nil
	}
	return key, nil
}

// CaseComments returns all CaseComment objects attached to the given case.
func CaseComments(ctx context.Context, sf *SF, caseID string) ([]*SFObject, error) {
	t, err := sf.Type(ctx, "CaseComment")
	if err != nil {
		return nil, err
	}
	return t.Query(ctx, fmt.Sprintf("ParentId = '%s'", caseID))
}
