package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medcodelab/substance-mapper/internal/domain/vocabulary"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/monitoring/logging"
	"github.com/medcodelab/substance-mapper/pkg/errors"
)

const createVocabularyTable = `
CREATE TABLE IF NOT EXISTS vocabulary_entries (
	position   INTEGER PRIMARY KEY,
	entry_id   TEXT NOT NULL,
	entry_text TEXT NOT NULL,
	loaded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// DB is the subset of pgxpool.Pool the repository needs; a fake stands in
// for it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// VocabularyRepository persists vocabulary snapshots, keeping entry order in
// an explicit position column so ListAll reproduces the fetch order exactly.
type VocabularyRepository struct {
	db     DB
	logger logging.Logger
}

func NewVocabularyRepository(db DB, log logging.Logger) *VocabularyRepository {
	return &VocabularyRepository{db: db, logger: log}
}

// EnsureSchema creates the snapshot table when missing.  It is safe to call
// on every startup.
func (r *VocabularyRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createVocabularyTable); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to ensure vocabulary schema")
	}
	return nil
}

// ReplaceAll atomically swaps the stored snapshot for entries.
func (r *VocabularyRepository) ReplaceAll(ctx context.Context, entries []vocabulary.Entry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM vocabulary_entries`); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to clear vocabulary snapshot")
	}

	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{i, e.ID, e.Text}
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"vocabulary_entries"},
		[]string{"position", "entry_id", "entry_text"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert vocabulary snapshot")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit vocabulary snapshot")
	}

	r.logger.Info("Vocabulary snapshot stored", logging.Int("entries", len(entries)))
	return nil
}

// ListAll returns the stored entries in their original order.
func (r *VocabularyRepository) ListAll(ctx context.Context) ([]vocabulary.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT entry_id, entry_text FROM vocabulary_entries ORDER BY position`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list vocabulary entries")
	}
	defer rows.Close()

	var entries []vocabulary.Entry
	for rows.Next() {
		var e vocabulary.Entry
		if err := rows.Scan(&e.ID, &e.Text); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan vocabulary entry")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read vocabulary entries")
	}
	return entries, nil
}
