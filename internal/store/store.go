// Package store persists normalized datasets behind a single
// repository interface. Storage is constructor-injected: callers pick
// the in-memory implementation, the Postgres one, or the caching
// service that layers the two, and nothing in the computation core
// ever touches this package.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dealview/dealview/internal/core"
)

// ErrNotFound is returned when a dataset id is unknown.
var ErrNotFound = errors.New("dataset not found")

// Dataset is one normalized ingestion result, keyed by id.
type Dataset struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Source      core.Source           `json:"source"`
	FieldNames  []string              `json:"fieldNames"`
	Records     []core.Record         `json:"records"`
	StageEvents []core.StageEvent     `json:"stageEvents"`
	Actors      []core.Actor          `json:"actors"`
	Unmapped    []string              `json:"unmappedFields"`
	Errors      []core.TransformError `json:"transformErrors"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// Summary is the listing view of a dataset, without its payload.
type Summary struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Source      core.Source `json:"source"`
	RecordCount int         `json:"recordCount"`
	ErrorCount  int         `json:"errorCount"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Summarize reduces a dataset to its listing view.
func (d *Dataset) Summarize() Summary {
	return Summary{
		ID:          d.ID,
		Name:        d.Name,
		Source:      d.Source,
		RecordCount: len(d.Records),
		ErrorCount:  len(d.Errors),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// Repository is the storage contract for datasets.
type Repository interface {
	Save(ctx context.Context, ds *Dataset) error
	Get(ctx context.Context, id string) (*Dataset, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}
