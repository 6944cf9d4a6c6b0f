package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/joseph-ayodele/subsidy-tracker/internal/entity"
)

// RawLogRepository keeps the raw extraction payloads for replay and debugging.
type RawLogRepository interface {
	Insert(ctx context.Context, url, payload string) (uuid.UUID, error)
	ListByURL(ctx context.Context, url string) ([]*entity.RawLog, error)
}

type rawLogRepository struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewRawLogRepository(db *sqlx.DB, logger *slog.Logger) RawLogRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &rawLogRepository{db: db, logger: logger}
}

type rawLogRow struct {
	ID        string `db:"id"`
	URL       string `db:"url"`
	Payload   string `db:"payload"`
	FetchedAt string `db:"fetched_at"`
}

func (r *rawLogRepository) Insert(ctx context.Context, url, payload string) (uuid.UUID, error) {
	id := uuid.New()
	query := r.db.Rebind(`INSERT INTO raw_logs (id, url, payload, fetched_at) VALUES (?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query, id.String(), url, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		r.logger.Error("failed to insert raw log", "url", url, "error", err)
		return uuid.Nil, err
	}
	return id, nil
}

func (r *rawLogRepository) ListByURL(ctx context.Context, url string) ([]*entity.RawLog, error) {
	var rows []rawLogRow
	query := r.db.Rebind(`SELECT * FROM raw_logs WHERE url = ? ORDER BY fetched_at`)
	if err := r.db.SelectContext(ctx, &rows, query, url); err != nil {
		r.logger.Error("failed to list raw logs", "url", url, "error", err)
		return nil, err
	}

	out := make([]*entity.RawLog, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, err
		}
		fetched, err := time.Parse(time.RFC3339, row.FetchedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, &entity.RawLog{ID: id, URL: row.URL, Payload: row.Payload, FetchedAt: fetched})
	}
	return out, nil
}
