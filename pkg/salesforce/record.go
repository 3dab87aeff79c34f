package salesforce

import "fmt"

// Record is one row as returned inside a query or search result. Besides the
// "attributes" entry, records are plain field name to value mappings with
// query-specific content. Every retrieved record carries a unique Id, which
// is its identity.
type Record map[string]interface{}

// ID returns the record's Id, or "" for an empty record.
func (r Record) ID() string {
	return r.StringField("Id")
}

// StringField returns the named field rendered as a string, or "" when the
// field is absent or null.
func (r Record) StringField(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Attributes returns the record's attributes entry, or an empty value when
// the record has none.
func (r Record) Attributes() RecordAttributes {
	if a, ok := r["attributes"].(map[string]interface{}); ok {
		return RecordAttributes(a)
	}
	return RecordAttributes{}
}

// clone returns a shallow copy of the record, so merges can update fields
// without mutating the source result.
func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RecordAttributes is the per-record metadata object returned by the REST
// API.
type RecordAttributes map[string]interface{}

// Type returns the object type of the record.
func (a RecordAttributes) Type() string {
	if t, ok := a["type"].(string); ok {
		return t
	}
	return ""
}

// URL returns the resource URL of the record.
func (a RecordAttributes) URL() string {
	if u, ok := a["url"].(string); ok {
		return u
	}
	return ""
}
