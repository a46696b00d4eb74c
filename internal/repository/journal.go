package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"battle-tracker/internal/constants"
	"battle-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// JournalRepository stores one row per stats file read.
type JournalRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewJournalRepository(sqlDB *sql.DB, logger zerolog.Logger) *JournalRepository {
	return &JournalRepository{
		db:     sqlDB,
		logger: logger.With().Str("component", "journal").Logger(),
	}
}

const insertJournal = `
INSERT INTO ingest_journal (id, read_at, outcome, message, attempts, member_count, schema_version, generated_at, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Record inserts rec, filling the ID and CreatedAt when unset, and returns the stored record.
func (r *JournalRepository) Record(ctx context.Context, rec domain.IngestRecord) (domain.IngestRecord, error) {
	if rec.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return rec, fmt.Errorf("failed to generate nanoid: %w", err)
		}
		rec.ID = id
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.ReadAt.IsZero() {
		rec.ReadAt = rec.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, insertJournal,
		rec.ID,
		rec.ReadAt.UTC(),
		rec.Outcome,
		rec.Message,
		rec.Attempts,
		rec.MemberCount,
		rec.SchemaVersion,
		rec.GeneratedAt,
		rec.CreatedAt.UTC(),
	)
	if err != nil {
		return rec, fmt.Errorf("failed to insert journal record: %w", err)
	}
	return rec, nil
}

const selectRecent = `
SELECT id, read_at, outcome, message, attempts, member_count, schema_version, generated_at, created_at
FROM ingest_journal
ORDER BY read_at DESC, created_at DESC
LIMIT ?`

// Recent lists up to limit records, newest first.
func (r *JournalRepository) Recent(ctx context.Context, limit int) ([]domain.IngestRecord, error) {
	if limit <= 0 {
		limit = constants.JournalListLimit
	}
	limit = min(limit, constants.JournalMaxLimit)

	rows, err := r.db.QueryContext(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	result := make([]domain.IngestRecord, 0, limit)
	for rows.Next() {
		var rec domain.IngestRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.ReadAt,
			&rec.Outcome,
			&rec.Message,
			&rec.Attempts,
			&rec.MemberCount,
			&rec.SchemaVersion,
			&rec.GeneratedAt,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal record: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal: %w", err)
	}
	return result, nil
}

const pruneJournal = `
DELETE FROM ingest_journal
WHERE id NOT IN (
    SELECT id FROM ingest_journal ORDER BY read_at DESC, created_at DESC LIMIT ?
)`

// Prune keeps the newest retain records and reports how many were removed.
func (r *JournalRepository) Prune(ctx context.Context, retain int) (int64, error) {
	if retain < 0 {
		retain = 0
	}
	res, err := r.db.ExecContext(ctx, pruneJournal, retain)
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}
	if removed > 0 {
		r.logger.Debug().Int64("removed", removed).Int("retain", retain).Msg("journal pruned")
	}
	return removed, nil
}
