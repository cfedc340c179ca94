package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentra-sec/sentractl/internal/model"
)

// DefaultBatchSize is the number of records accumulated before a flush.
const DefaultBatchSize = 1000

// WriterStats counts writer activity.
type WriterStats struct {
	Inserts int64
	Flushes int64
}

// Writer batches records and inserts them into the archive table.
// It is not safe for concurrent use; the retrieval loop is the only
// producer.
type Writer struct {
	db        *pgxpool.Pool
	table     string
	batchID   uuid.UUID
	batchSize int
	logger    *slog.Logger

	batch []archiveRow
	stats WriterStats
}

type archiveRow struct {
	recordID *string
	version  *float64
	data     []byte
}

// NewWriter creates a Writer over an open pool. Each Writer is tagged
// with a fresh batch id identifying the retrieval run.
func NewWriter(db *pgxpool.Pool, table string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		db:        db,
		table:     table,
		batchID:   uuid.New(),
		batchSize: DefaultBatchSize,
		logger:    logger,
		batch:     make([]archiveRow, 0, DefaultBatchSize),
	}
}

// BatchID returns the id tagging every record this writer inserts.
func (w *Writer) BatchID() uuid.UUID {
	return w.batchID
}

// Stats returns current counters.
func (w *Writer) Stats() WriterStats {
	return w.stats
}

// Write queues a record, flushing when the batch is full.
func (w *Writer) Write(ctx context.Context, rec model.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	row := archiveRow{data: data}
	if id, ok := rec.ID(); ok {
		row.recordID = &id
	}
	if v, ok := rec.Version(); ok {
		row.version = &v
	}

	w.batch = append(w.batch, row)
	if len(w.batch) >= w.batchSize {
		return w.Flush(ctx)
	}
	return nil
}

// Flush writes any queued records to the database.
func (w *Writer) Flush(ctx context.Context) error {
	if len(w.batch) == 0 {
		return nil
	}

	start := time.Now()
	retrieved := start.UTC()

	batch := &pgx.Batch{}
	stmt := fmt.Sprintf(`
		INSERT INTO %s (batch_id, record_id, version, data, retrieved_at)
		VALUES ($1, $2, $3, $4, $5)
	`, pgx.Identifier{w.table}.Sanitize())
	for _, r := range w.batch {
		batch.Queue(stmt, w.batchID, r.recordID, r.version, r.data, retrieved)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range w.batch {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
	}

	w.stats.Inserts += int64(len(w.batch))
	w.stats.Flushes++
	w.logger.Debug("flushed archive batch",
		"count", len(w.batch),
		"batch_id", w.batchID,
		"duration", time.Since(start),
	)

	w.batch = w.batch[:0]
	return nil
}
