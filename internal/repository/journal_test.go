package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"battle-tracker/internal/database"
	"battle-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *JournalRepository {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "journal.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewJournalRepository(db, zerolog.Nop())
}

func TestJournal_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	repo := newTestJournal(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	stored, err := repo.Record(ctx, domain.IngestRecord{
		ReadAt:        base,
		Outcome:       domain.OutcomeOK,
		Attempts:      1,
		MemberCount:   4,
		SchemaVersion: "3",
		GeneratedAt:   "2026-03-01T11:59:59Z",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())

	_, err = repo.Record(ctx, domain.IngestRecord{
		ReadAt:   base.Add(time.Second),
		Outcome:  "parse_failed",
		Message:  "unexpected end of JSON input",
		Attempts: 5,
	})
	require.NoError(t, err)

	records, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "parse_failed", records[0].Outcome)
	assert.Equal(t, 5, records[0].Attempts)
	assert.Equal(t, "unexpected end of JSON input", records[0].Message)

	assert.Equal(t, stored.ID, records[1].ID)
	assert.Equal(t, 4, records[1].MemberCount)
	assert.Equal(t, "3", records[1].SchemaVersion)
	assert.True(t, base.Equal(records[1].ReadAt))
}

func TestJournal_RecentLimit(t *testing.T) {
	ctx := context.Background()
	repo := newTestJournal(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := range 5 {
		_, err := repo.Record(ctx, domain.IngestRecord{ReadAt: base.Add(time.Duration(i) * time.Second), Outcome: domain.OutcomeOK, Attempts: i + 1})
		require.NoError(t, err)
	}

	records, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 5, records[0].Attempts)
	assert.Equal(t, 4, records[1].Attempts)

	records, err = repo.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestJournal_Prune(t *testing.T) {
	ctx := context.Background()
	repo := newTestJournal(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := range 6 {
		_, err := repo.Record(ctx, domain.IngestRecord{ReadAt: base.Add(time.Duration(i) * time.Minute), Outcome: domain.OutcomeOK, Attempts: i})
		require.NoError(t, err)
	}

	removed, err := repo.Prune(ctx, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	records, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []int{5, 4, 3}, []int{records[0].Attempts, records[1].Attempts, records[2].Attempts})

	removed, err = repo.Prune(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
