package salesforce

import (
	"context"

	"github.com/natserract/sftools/pkg/soql"
)

// CommentsContaining returns all CaseComment objects whose body contains the
// given string.
func CommentsContaining(ctx context.Context, sf *SF, search string) ([]*SFObject, error) {
	t, err := sf.Type(ctx, "CaseComment")
	if err != nil {
		return nil, err
	}
	return t.Query(ctx, soql.WhereLike("CommentBody", search))
}
