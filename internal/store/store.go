// Package store persists final analyses. Results are keyed by analysis id;
// the pipeline writes once and handlers read or delete, nothing mutates a
// stored result.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tenders-cl/budget-analyzer/internal/common"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

type ResultStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the result database at path. Use ":memory:"
// for an ephemeral store.
func Open(path string, logger *slog.Logger) (*ResultStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	// modernc sqlite serializes writes; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init result store schema: %w", err)
	}
	logger.Info("store.opened", "path", path)
	return &ResultStore{db: db, logger: logger}, nil
}

func (s *ResultStore) Close() error {
	return s.db.Close()
}

func (s *ResultStore) Save(ctx context.Context, a entity.FinalAnalysis) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode analysis %s: %w", a.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, payload) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
		a.ID.String(), payload)
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", a.ID, err)
	}
	s.logger.Debug("store.saved", "id", a.ID, "bytes", len(payload))
	return nil
}

func (s *ResultStore) Load(ctx context.Context, id uuid.UUID) (entity.FinalAnalysis, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM analyses WHERE id = ?`, id.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.FinalAnalysis{}, common.ErrNotFound
	}
	if err != nil {
		return entity.FinalAnalysis{}, fmt.Errorf("load analysis %s: %w", id, err)
	}
	var a entity.FinalAnalysis
	if err := json.Unmarshal(payload, &a); err != nil {
		return entity.FinalAnalysis{}, fmt.Errorf("decode analysis %s: %w", id, err)
	}
	return a, nil
}

func (s *ResultStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete analysis %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	s.logger.Debug("store.deleted", "id", id)
	return nil
}

// ListEntry is a catalog row; payloads stay on disk until loaded.
type ListEntry struct {
	ID        uuid.UUID `json:"analysis_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *ResultStore) List(ctx context.Context) ([]ListEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at FROM analyses ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var entries []ListEntry
	for rows.Next() {
		var raw string
		var e ListEntry
		if err := rows.Scan(&raw, &e.CreatedAt); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		e.ID = id
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
