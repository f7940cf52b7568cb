// Package postgres provides a PostgreSQL implementation of history.Store.
// It uses pgx/v5 for connection pooling and stores each turn's content as
// JSONB, one row per turn.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/gemini-go/pkg/api"
	"github.com/rhuss/gemini-go/pkg/debug"
	"github.com/rhuss/gemini-go/pkg/history"
	"github.com/rhuss/gemini-go/pkg/observability"
)

const backendName = "postgres"

// uniqueViolation is the PostgreSQL SQLSTATE for a unique key violation.
const uniqueViolation = "23505"

// Store is a PostgreSQL-backed history.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements history.Store at compile time.
var _ history.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Append inserts turns after the session's last stored turn. Two appends
// racing for the same positions surface as history.ErrConflict.
func (s *Store) Append(ctx context.Context, sessionID string, turns ...history.Turn) (err error) {
	if len(turns) == 0 {
		return nil
	}
	defer func() { observability.ObserveHistory(backendName, "append", err) }()

	tenantID := history.GetTenant(ctx)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var next int
	if err := tx.QueryRow(ctx,
		"SELECT COALESCE(MAX(seq), -1) + 1 FROM conversation_turns WHERE tenant_id = $1 AND session_id = $2",
		tenantID, sessionID,
	).Scan(&next); err != nil {
		return fmt.Errorf("reading session position: %w", err)
	}

	batch := &pgx.Batch{}
	for i, turn := range turns {
		content, err := json.Marshal(turn.Content)
		if err != nil {
			return fmt.Errorf("marshaling turn %d: %w", i, err)
		}
		createdAt := turn.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		batch.Queue(`
			INSERT INTO conversation_turns (tenant_id, session_id, seq, role, content, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, tenantID, sessionID, next+i, string(turn.Role), content, createdAt)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		if isDuplicateKey(err) {
			return history.ErrConflict
		}
		return fmt.Errorf("inserting turns: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isDuplicateKey(err) {
			return history.ErrConflict
		}
		return fmt.Errorf("committing turns: %w", err)
	}

	debug.Log("history", "appended turns", "backend", backendName, "session", sessionID, "count", len(turns), "first_seq", next)
	return nil
}

// Load returns the session's turns ordered by position.
func (s *Store) Load(ctx context.Context, sessionID string) (turns []history.Turn, err error) {
	defer func() { observability.ObserveHistory(backendName, "load", err) }()

	rows, err := s.pool.Query(ctx, `
		SELECT role, content, created_at
		FROM conversation_turns
		WHERE tenant_id = $1 AND session_id = $2
		ORDER BY seq
	`, history.GetTenant(ctx), sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}

	turns, err = pgx.CollectRows(rows, scanTurn)
	if err != nil {
		return nil, fmt.Errorf("reading turns: %w", err)
	}
	if len(turns) == 0 {
		return nil, history.ErrNotFound
	}
	return turns, nil
}

func scanTurn(row pgx.CollectableRow) (history.Turn, error) {
	var turn history.Turn
	var role string
	var content []byte

	if err := row.Scan(&role, &content, &turn.CreatedAt); err != nil {
		return turn, err
	}
	turn.Role = api.Role(role)
	if err := json.Unmarshal(content, &turn.Content); err != nil {
		return turn, fmt.Errorf("unmarshaling content: %w", err)
	}
	return turn, nil
}

// Delete removes every turn of a session.
func (s *Store) Delete(ctx context.Context, sessionID string) (err error) {
	defer func() { observability.ObserveHistory(backendName, "delete", err) }()

	result, err := s.pool.Exec(ctx,
		"DELETE FROM conversation_turns WHERE tenant_id = $1 AND session_id = $2",
		history.GetTenant(ctx), sessionID,
	)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return history.ErrNotFound
	}
	return nil
}

// List returns the tenant's session IDs, most recently updated first.
func (s *Store) List(ctx context.Context) (ids []string, err error) {
	defer func() { observability.ObserveHistory(backendName, "list", err) }()

	rows, err := s.pool.Query(ctx, `
		SELECT session_id
		FROM conversation_turns
		WHERE tenant_id = $1
		GROUP BY session_id
		ORDER BY MAX(created_at) DESC, session_id
	`, history.GetTenant(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	ids, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("reading sessions: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isDuplicateKey reports whether err is a PostgreSQL unique violation.
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
