package salesforce

import (
	"context"
	"fmt"
)

func init() {
	RegisterType("User", TypeHooks{
		ResolveKey: userAliasToID,
	})
}

// userAliasToID resolves a User alias to the User Id. Keys with no matching
// alias are returned unchanged so they are treated as Ids.
func userAliasToID(ctx context.Context, t *SFType, key string) (string, error) {
	result, err := t.rawQuery(ctx, fmt.Sprintf("Alias = '%s'", key))
	if err != nil {
		return "", err
	}
	if id := result.First().ID(); id != "" {
		return id, nil
	}
	return key, nil
}
