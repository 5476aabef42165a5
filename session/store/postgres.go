package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/session"
)

// PostgresStore persists session snapshots in a single JSONB-backed table.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultPostgresConfig returns the default PostgreSQL configuration.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "rehab_orchestra",
		SSLMode:  "disable",
	}
}

// NewPostgresStore connects to PostgreSQL and creates the sessions table.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	if config == nil {
		config = DefaultPostgresConfig()
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.createTable(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) createTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id VARCHAR(255) PRIMARY KEY,
		state VARCHAR(32) NOT NULL,
		snapshot JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Save upserts the snapshot row.
func (s *PostgresStore) Save(ctx context.Context, snap *session.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", errors.ErrInvalidInput)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	query := `
	INSERT INTO sessions (id, state, snapshot, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET
		state = EXCLUDED.state,
		snapshot = EXCLUDED.snapshot,
		updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		snap.ID, string(snap.State), string(data), snap.CreatedAt, snap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session to PostgreSQL: %w", err)
	}
	return nil
}

// Load returns the snapshot for id.
func (s *PostgresStore) Load(ctx context.Context, id string) (*session.Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM sessions WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session %s: %w", id, errors.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("load session from PostgreSQL: %w", err)
	}

	var snap session.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes the snapshot row for id.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session from PostgreSQL: %w", err)
	}
	return nil
}

// List returns all stored session IDs, most recently updated first.
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions in PostgreSQL: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return ids, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close(ctx context.Context) error {
	return s.db.Close()
}

// Ping checks if the PostgreSQL connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
