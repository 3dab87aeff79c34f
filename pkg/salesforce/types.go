package salesforce

import (
	"context"
	"fmt"

	"github.com/natserract/sftools/pkg/soql"
	"go.uber.org/zap"
)

// TypeHooks customize lookup and query behavior for a specific object type.
// Hooks are registered at init time; unregistered types get default behavior.
type TypeHooks struct {
	// ResolveKey maps a caller-supplied lookup key (e.g. a user alias or a
	// case number) to an object Id. Returning the key unchanged means "treat
	// it as an Id".
	ResolveKey func(ctx context.Context, t *SFType, key string) (string, error)

	// RestrictWhere rewrites the WHERE expression of Query calls, e.g. to
	// restrict cases to open ones. Raw lookups bypass it.
	RestrictWhere func(where string) string
}

var typeRegistry = map[string]TypeHooks{}

// RegisterType installs hooks for the named object type. Intended to be
// called from init; later registrations for the same name replace earlier
// ones.
func RegisterType(name string, hooks TypeHooks) {
	typeRegistry[name] = hooks
}

// SFType is a typed handle on one object type. It caches the type's field
// metadata and keeps an identity map of retrieved objects, so a record seen
// twice maps to the same *SFObject with merged fields.
type SFType struct {
	sf    *SF
	name  string
	hooks TypeHooks

	fields  []FieldDescription
	objects map[string]*SFObject
}

func newSFType(sf *SF, name string) *SFType {
	return &SFType{
		sf:      sf,
		name:    name,
		hooks:   typeRegistry[name],
		objects: make(map[string]*SFObject),
	}
}

// Name returns the object type name.
func (t *SFType) Name() string {
	return t.name
}

// Fields returns the field metadata for this type, fetched once and cached.
func (t *SFType) Fields(ctx context.Context) ([]FieldDescription, error) {
	if t.fields != nil {
		return t.fields, nil
	}

	desc, err := withRefresh(ctx, t.sf, func() (*ObjectDescribe, error) {
		return t.sf.transport.DescribeObject(ctx, t.name)
	})
	if err != nil {
		return nil, fmt.Errorf("describe %s failed: %w", t.name, err)
	}
	t.fields = desc.Fields
	return t.fields, nil
}

// FieldNames returns the names of all fields of this type.
func (t *SFType) FieldNames(ctx context.Context) ([]string, error) {
	fields, err := t.Fields(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names, nil
}

// rawQuery runs a query against this type without the registered hooks.
// Id is always part of the selection.
func (t *SFType) rawQuery(ctx context.Context, where string, selects ...string) (*QueryResult, error) {
	q := soql.NewQuery(t.name, selects...)
	q.SelectAnd("Id")
	q.Where = where
	return t.sf.Query(ctx, q, false)
}

// Query returns all objects of this type matching the WHERE expression,
// after applying any registered query restriction.
func (t *SFType) Query(ctx context.Context, where string) ([]*SFObject, error) {
	if t.hooks.RestrictWhere != nil {
		where = t.hooks.RestrictWhere(where)
	}
	result, err := t.rawQuery(ctx, where)
	if err != nil {
		return nil, err
	}
	return t.objectsFromResult(result), nil
}

// Get looks up a single object by key. The key is an object Id, or whatever
// the type's ResolveKey hook accepts (case number, user alias). Returns nil
// without error when nothing matches.
func (t *SFType) Get(ctx context.Context, key string) (*SFObject, error) {
	if key == "" {
		return nil, nil
	}

	if t.hooks.ResolveKey != nil {
		resolved, err := t.hooks.ResolveKey(ctx, t, key)
		if err != nil {
			return nil, err
		}
		key = resolved
	}

	if obj, ok := t.objects[key]; ok {
		return obj, nil
	}

	result, err := t.rawQuery(ctx, fmt.Sprintf("Id = '%s'", key))
	if err != nil {
		return nil, err
	}
	rec := result.First()
	if rec == nil {
		return nil, nil
	}
	return t.objectFromRecord(rec), nil
}

// Delete removes the object with the given id. When the client is in DryRun
// mode the delete is logged and skipped.
//
// Note this does not attempt to refresh an expired session.
func (t *SFType) Delete(ctx context.Context, id string) error {
	if t.sf.DryRun {
		t.sf.logger.Info("Dry run, skipping delete",
			zap.String("type", t.name),
			zap.String("id", id))
		return nil
	}

	if err := t.sf.transport.Delete(ctx, t.name, id); err != nil {
		return fmt.Errorf("delete %s %s failed: %w", t.name, id, err)
	}
	delete(t.objects, id)
	return nil
}

// objectFromRecord maps a record into this type's identity map: a repeated
// Id updates the existing object's record instead of creating a duplicate.
func (t *SFType) objectFromRecord(rec Record) *SFObject {
	id := rec.ID()
	if id == "" {
		return &SFObject{sftype: t, record: rec}
	}
	if obj, ok := t.objects[id]; ok {
		for k, v := range rec {
			obj.record[k] = v
		}
		return obj
	}
	obj := &SFObject{sftype: t, record: rec.clone()}
	t.objects[id] = obj
	return obj
}

func (t *SFType) objectsFromResult(result *QueryResult) []*SFObject {
	objects := make([]*SFObject, 0, result.Count())
	for _, rec := range result.Records {
		objects = append(objects, t.objectFromRecord(rec))
	}
	return objects
}

// SFObject is one record of a specific type. The only field its record is
// guaranteed to contain is Id; other fields are fetched on demand.
type SFObject struct {
	sftype *SFType
	record Record
}

// ID returns the object's Id.
func (o *SFObject) ID() string {
	return o.record.ID()
}

// Type returns the object's type handle.
func (o *SFObject) Type() *SFType {
	return o.sftype
}

// Record returns the object's record.
func (o *SFObject) Record() Record {
	return o.record
}

// Field returns the named field, querying it on demand when the record does
// not already carry it. Fetched values are cached on the record.
func (o *SFObject) Field(ctx context.Context, name string) (interface{}, error) {
	if v, ok := o.record[name]; ok {
		return v, nil
	}

	result, err := o.sftype.rawQuery(ctx, fmt.Sprintf("Id = '%s'", o.ID()), name)
	if err != nil {
		return nil, err
	}
	rec := result.First()
	if rec == nil {
		return nil, nil
	}
	v := rec[name]
	o.record[name] = v
	return v, nil
}

func (o *SFObject) String() string {
	return fmt.Sprintf("%s: %s", o.sftype.name, o.ID())
}
