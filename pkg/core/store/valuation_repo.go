package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ValuationRepo stores valuations in the `valuations` table.
// Model and results are kept as JSONB blobs.
type ValuationRepo struct {
	pool *pgxpool.Pool
}

// NewValuationRepo creates a new repository instance.
func NewValuationRepo(pool *pgxpool.Pool) *ValuationRepo {
	return &ValuationRepo{pool: pool}
}

var _ ValuationStore = (*ValuationRepo)(nil)

// Save persists the valuation, upserting on id.
func (r *ValuationRepo) Save(ctx context.Context, v *Valuation) error {
	if v == nil || v.Model == nil {
		return ErrInvalidInput
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	} else if _, err := uuid.Parse(v.ID); err != nil {
		return fmt.Errorf("%w: id %q is not a uuid", ErrInvalidInput, v.ID)
	}

	modelJSON, err := json.Marshal(v.Model)
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}
	resultsJSON, err := json.Marshal(v.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	query := `
		INSERT INTO valuations (id, name, model, results, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			model = EXCLUDED.model,
			results = EXCLUDED.results,
			updated_at = EXCLUDED.updated_at;
	`
	_, err = r.pool.Exec(ctx, query, v.ID, v.Name, modelJSON, resultsJSON, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save valuation: %w", err)
	}
	return nil
}

// Get loads a valuation by id.
func (r *ValuationRepo) Get(ctx context.Context, id string) (*Valuation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	query := `
		SELECT id, name, model, results, created_at, updated_at
		FROM valuations
		WHERE id = $1
	`
	var (
		v                      Valuation
		modelJSON, resultsJSON []byte
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(&v.ID, &v.Name, &modelJSON, &resultsJSON, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load valuation: %w", err)
	}

	if err := json.Unmarshal(modelJSON, &v.Model); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model: %w", err)
	}
	if err := json.Unmarshal(resultsJSON, &v.Results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal results: %w", err)
	}
	return &v, nil
}
