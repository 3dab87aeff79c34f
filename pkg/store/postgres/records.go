package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/natserract/sftools/pkg/salesforce"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// insertBatchSize is the number of records upserted per worker.
const insertBatchSize = 100

const recordsSchema = `
CREATE TABLE IF NOT EXISTS sf_records (
    id          TEXT PRIMARY KEY,
    object_type TEXT NOT NULL,
    data        JSONB NOT NULL,
    synced_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS sf_records_object_type_idx ON sf_records (object_type);
`

const upsertRecord = `
INSERT INTO sf_records (id, object_type, data, synced_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (id) DO UPDATE
SET object_type = EXCLUDED.object_type,
    data        = EXCLUDED.data,
    synced_at   = EXCLUDED.synced_at
`

// EnsureSchema creates the records table if it does not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	db.logger.Info("Ensuring records schema")

	if _, err := db.pool.Exec(ctx, recordsSchema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveRecords upserts the given records, keyed by their Id. Records without
// an Id are skipped and counted. Batches are written through a bounded
// worker pool; the pool size stays small because the upstream fetch is
// sequential anyway.
func (db *DB) SaveRecords(ctx context.Context, objectType string, records []salesforce.Record) (saved int, skipped int, err error) {
	batches := batchRecords(records, insertBatchSize)

	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(4)
	for _, batch := range batches {
		p.Go(func(ctx context.Context) error {
			return db.saveBatch(ctx, objectType, batch)
		})
	}
	if err := p.Wait(); err != nil {
		return 0, 0, fmt.Errorf("failed to save records: %w", err)
	}

	for _, rec := range records {
		if rec.ID() == "" {
			skipped++
		}
	}
	saved = len(records) - skipped

	db.logger.Info("Saved records",
		zap.String("object_type", objectType),
		zap.Int("saved", saved),
		zap.Int("skipped", skipped))

	return saved, skipped, nil
}

func (db *DB) saveBatch(ctx context.Context, objectType string, batch []salesforce.Record) error {
	for _, rec := range batch {
		id := rec.ID()
		if id == "" {
			db.logger.Warn("Skipping record without Id", zap.String("object_type", objectType))
			continue
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record %s: %w", id, err)
		}

		if _, err := db.pool.Exec(ctx, upsertRecord, id, objectType, data); err != nil {
			return fmt.Errorf("failed to upsert record %s: %w", id, err)
		}
	}
	return nil
}

// batchRecords splits records into slices of at most size entries.
func batchRecords(records []salesforce.Record, size int) [][]salesforce.Record {
	if size <= 0 {
		size = insertBatchSize
	}
	var batches [][]salesforce.Record
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batches = append(batches, records[start:end])
	}
	return batches
}
