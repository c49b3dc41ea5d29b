package store

// postgres.go persists datasets to a single Postgres table with the
// record payload as JSONB. One row per dataset keeps the storage model
// boring: datasets are read and replaced whole, which matches how the
// computation engines consume them.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dealview/dealview/internal/core"
)

// DBTX is the subset of pgx operations the repository needs.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is the pgx-backed dataset repository.
type Postgres struct {
	db DBTX
}

// NewPostgres returns a repository over the given connection or pool.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// Init creates the datasets table if it does not exist.
func (p *Postgres) Init(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS datasets (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			source_name  TEXT NOT NULL,
			source_type  TEXT NOT NULL,
			record_count INTEGER NOT NULL,
			error_count  INTEGER NOT NULL,
			payload      JSONB NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create datasets table: %w", err)
	}
	return nil
}

// payload is the JSONB body of a dataset row.
type payload struct {
	FieldNames  []string              `json:"fieldNames"`
	Records     []core.Record         `json:"records"`
	StageEvents []core.StageEvent     `json:"stageEvents"`
	Actors      []core.Actor          `json:"actors"`
	Unmapped    []string              `json:"unmappedFields"`
	Errors      []core.TransformError `json:"transformErrors"`
}

// Save upserts a dataset.
func (p *Postgres) Save(ctx context.Context, ds *Dataset) error {
	body, err := json.Marshal(payload{
		FieldNames:  ds.FieldNames,
		Records:     ds.Records,
		StageEvents: ds.StageEvents,
		Actors:      ds.Actors,
		Unmapped:    ds.Unmapped,
		Errors:      ds.Errors,
	})
	if err != nil {
		return fmt.Errorf("encode dataset payload: %w", err)
	}

	_, err = p.db.Exec(ctx, `
		INSERT INTO datasets
			(id, name, source_name, source_type, record_count, error_count, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			source_name = EXCLUDED.source_name,
			source_type = EXCLUDED.source_type,
			record_count = EXCLUDED.record_count,
			error_count = EXCLUDED.error_count,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`,
		ds.ID, ds.Name, ds.Source.Name, string(ds.Source.Type),
		len(ds.Records), len(ds.Errors), body, ds.CreatedAt, ds.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save dataset %s: %w", ds.ID, err)
	}
	return nil
}

// Get loads a dataset by id, or returns ErrNotFound.
func (p *Postgres) Get(ctx context.Context, id string) (*Dataset, error) {
	ds := &Dataset{ID: id}
	var body []byte
	var sourceType string

	err := p.db.QueryRow(ctx, `
		SELECT name, source_name, source_type, payload, created_at, updated_at
		FROM datasets WHERE id = $1`, id).
		Scan(&ds.Name, &ds.Source.Name, &sourceType, &body, &ds.CreatedAt, &ds.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", id, err)
	}
	ds.Source.Type = core.SourceType(sourceType)

	var pl payload
	if err := json.Unmarshal(body, &pl); err != nil {
		return nil, fmt.Errorf("decode dataset payload %s: %w", id, err)
	}
	ds.FieldNames = pl.FieldNames
	ds.Records = pl.Records
	ds.StageEvents = pl.StageEvents
	ds.Actors = pl.Actors
	ds.Unmapped = pl.Unmapped
	ds.Errors = pl.Errors

	return ds, nil
}

// List returns summaries of all datasets, newest first.
func (p *Postgres) List(ctx context.Context) ([]Summary, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id, name, source_name, source_type, record_count, error_count, created_at, updated_at
		FROM datasets ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var s Summary
		var sourceType string
		if err := rows.Scan(&s.ID, &s.Name, &s.Source.Name, &sourceType,
			&s.RecordCount, &s.ErrorCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan dataset summary: %w", err)
		}
		s.Source.Type = core.SourceType(sourceType)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Delete removes a dataset, or returns ErrNotFound.
func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete dataset %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
