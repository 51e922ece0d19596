package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskweave/go-assistant/src/fault"
	"github.com/taskweave/go-assistant/src/project"
)

// PostgresStore persists project aggregates as JSONB rows.
type PostgresStore struct {
	DB *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return &PostgresStore{DB: db}, nil
}

// CreateSchema ensures the projects table exists.
func (ps *PostgresStore) CreateSchema(ctx context.Context) error {
	if ps == nil || ps.DB == nil {
		return nil
	}
	_, err := ps.DB.Exec(ctx, `
                CREATE TABLE IF NOT EXISTS projects (
                        id TEXT PRIMARY KEY,
                        body JSONB NOT NULL,
                        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
                );
        `)
	return err
}

// Save upserts the whole aggregate as one JSONB document.
func (ps *PostgresStore) Save(ctx context.Context, p *project.Project) error {
	if ps == nil || ps.DB == nil {
		return nil
	}
	if p == nil || p.ID == "" {
		return fault.InvalidArguments("project has no id")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	_, err = ps.DB.Exec(ctx, `
                INSERT INTO projects (id, body, updated_at)
                VALUES ($1, $2::jsonb, now())
                ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = now();
        `, p.ID, body)
	return err
}

func (ps *PostgresStore) Load(ctx context.Context, id string) (*project.Project, error) {
	if ps == nil || ps.DB == nil {
		return nil, fault.NotFound("project %s not found", id)
	}
	var body []byte
	err := ps.DB.QueryRow(ctx, `SELECT body FROM projects WHERE id = $1;`, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFound("project %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	var p project.Project
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	return &p, nil
}

// Close releases the connection pool.
func (ps *PostgresStore) Close() {
	if ps != nil && ps.DB != nil {
		ps.DB.Close()
	}
}
