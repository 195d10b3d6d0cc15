package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

// InteractionRepository stores one audit row per answered question.
type InteractionRepository struct {
	db *sql.DB
}

func NewInteractionRepository(db *sql.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

func (r *InteractionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS interactions (
	id TEXT PRIMARY KEY,
	question TEXT NOT NULL,
	program TEXT,
	intent TEXT,
	source TEXT NOT NULL,
	relevant BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_interactions_created_at ON interactions(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_interactions_source ON interactions(source);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *InteractionRepository) Record(ctx context.Context, in domain.Interaction) error {
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	query, args, err := squirrel.Insert("interactions").
		Columns("id", "question", "program", "intent", "source", "relevant", "created_at").
		Values(in.ID, in.Question, nullIfEmpty(in.Program), nullIfEmpty(string(in.Intent)), string(in.Source), in.Relevant, createdAt).
		Suffix("ON CONFLICT (id) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("build interaction insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

// CountBySource aggregates answered questions since the given instant.
// A non-empty program narrows the count to that program.
func (r *InteractionRepository) CountBySource(ctx context.Context, since time.Time, program string) (map[domain.AnswerSource]int, error) {
	builder := squirrel.Select("source", "COUNT(*)").
		From("interactions").
		Where(squirrel.GtOrEq{"created_at": since}).
		GroupBy("source").
		PlaceholderFormat(squirrel.Dollar)
	if program != "" {
		builder = builder.Where(squirrel.Eq{"program": program})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build interaction count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count interactions: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.AnswerSource]int)
	for rows.Next() {
		var (
			source string
			n      int
		)
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scan interaction count: %w", err)
		}
		out[domain.AnswerSource(source)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interaction counts: %w", err)
	}
	return out, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
