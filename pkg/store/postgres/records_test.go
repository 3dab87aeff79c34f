package postgres

import (
	"testing"

	"github.com/natserract/sftools/pkg/salesforce"
	"github.com/stretchr/testify/assert"
)

func TestBatchRecords(t *testing.T) {
	records := make([]salesforce.Record, 250)
	for i := range records {
		records[i] = salesforce.Record{"Id": "x"}
	}

	batches := batchRecords(records, 100)
	assert.Len(t, batches, 3)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[2], 50)

	assert.Empty(t, batchRecords(nil, 100))

	// non-positive size falls back to the default
	batches = batchRecords(records, 0)
	assert.Len(t, batches, 3)
}
