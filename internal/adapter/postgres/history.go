// Package postgres reads climate history from PostgreSQL. The store accepts a
// DBTX interface that is satisfied by both *pgxpool.Pool and pgx.Tx.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/weather-outlook/internal/domain"
)

// DBTX is the minimal interface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const historyQuery = `SELECT obs_date, features FROM climate_history
WHERE city = $1 AND obs_date <= $2
ORDER BY obs_date DESC
LIMIT $3`

// HistoryStore loads the trailing history window for a city. Rows live in
// climate_history(city text, obs_date date, features jsonb).
type HistoryStore struct {
	db DBTX
}

// NewHistoryStore creates a HistoryStore backed by db.
func NewHistoryStore(db DBTX) *HistoryStore {
	return &HistoryStore{db: db}
}

// History returns up to limit rows for city dated on or before end, oldest
// first.
func (s *HistoryStore) History(ctx context.Context, city string, end domain.Date, limit int) ([]domain.HistoryRow, error) {
	rows, err := s.db.Query(ctx, historyQuery, city, end.Time, limit)
	if err != nil {
		return nil, fmt.Errorf("query climate history for %s: %w", city, err)
	}
	defer rows.Close()

	var out []domain.HistoryRow
	for rows.Next() {
		var (
			obsDate time.Time
			raw     []byte
		)
		if err := rows.Scan(&obsDate, &raw); err != nil {
			return nil, fmt.Errorf("scan climate history row: %w", err)
		}
		features := make(map[string]float64)
		if err := json.Unmarshal(raw, &features); err != nil {
			return nil, fmt.Errorf("decode features for %s on %s: %w", city, obsDate.Format(domain.DateLayout), err)
		}
		out = append(out, domain.HistoryRow{Date: domain.NewDate(obsDate), Features: features})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate climate history: %w", err)
	}

	// Newest first from SQL; callers expect chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Connect opens a pool and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
