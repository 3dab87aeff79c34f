package salesforce

// QueryResult is an ordered, accumulating collection of records for one
// logical query.
//
// TotalSize is the server-reported number of matching rows and is fixed for
// the lifetime of the result; Records holds at most TotalSize entries in
// arrival order across pages.
type QueryResult struct {
	TotalSize int
	Records   []Record
}

// Count returns the number of accumulated records.
func (r *QueryResult) Count() int {
	return len(r.Records)
}

// First returns the first record, or nil when the result is empty.
func (r *QueryResult) First() Record {
	if len(r.Records) == 0 {
		return nil
	}
	return r.Records[0]
}

// IDs returns the Ids of the accumulated records in arrival order.
func (r *QueryResult) IDs() []string {
	ids := make([]string, 0, len(r.Records))
	for _, rec := range r.Records {
		ids = append(ids, rec.ID())
	}
	return ids
}

// Merge combines two results of the same logical query into a new result.
// The server-reported totals must agree; records are concatenated in arrival
// order, and a record whose Id was already seen merges its field values into
// the existing record instead of being appended. Neither input is mutated.
func (r *QueryResult) Merge(other *QueryResult) (*QueryResult, error) {
	if other == nil {
		other = &QueryResult{TotalSize: r.TotalSize}
	}
	if r.TotalSize != other.TotalSize {
		return nil, &TotalSizeMismatchError{A: r.TotalSize, B: other.TotalSize}
	}

	merged := &QueryResult{TotalSize: r.TotalSize}
	merged.add(r.Records)
	merged.add(other.Records)
	return merged, nil
}

// add appends records in order, deduplicating by Id: a repeated Id updates
// the already-accumulated record's fields in place of appending. Records
// without an Id cannot be identified and are always appended. Returns the
// number of newly appended records.
func (r *QueryResult) add(records []Record) int {
	index := make(map[string]int, len(r.Records))
	for i, rec := range r.Records {
		if id := rec.ID(); id != "" {
			index[id] = i
		}
	}

	added := 0
	for _, rec := range records {
		id := rec.ID()
		if id == "" {
			r.Records = append(r.Records, rec)
			added++
			continue
		}
		if i, seen := index[id]; seen {
			updated := r.Records[i].clone()
			for k, v := range rec {
				updated[k] = v
			}
			r.Records[i] = updated
			continue
		}
		index[id] = len(r.Records)
		r.Records = append(r.Records, rec)
		added++
	}
	return added
}

// SearchResult is the collection of records returned by a SOSL search.
type SearchResult struct {
	SearchRecords []Record
}

// Count returns the number of search records.
func (r *SearchResult) Count() int {
	return len(r.SearchRecords)
}

// First returns the first search record, or nil when the result is empty.
func (r *SearchResult) First() Record {
	if len(r.SearchRecords) == 0 {
		return nil
	}
	return r.SearchRecords[0]
}
