package store

import (
	"context"
	"time"

	"company_valuation/pkg/core/projection"
	"company_valuation/pkg/core/scenario"
)

// Valuation is a saved model together with the projection computed from it.
type Valuation struct {
	ID        string                           `json:"id"`
	Name      string                           `json:"name"`
	Model     *projection.FinancialModel       `json:"model"`
	Results   *projection.CalculatedFinancials `json:"results"`
	CreatedAt time.Time                        `json:"created_at"`
	UpdatedAt time.Time                        `json:"updated_at"`
}

// StoredScenario is a generated scenario keyed by (ValuationID, Name).
type StoredScenario struct {
	ValuationID string `json:"valuation_id"`
	Position    int    `json:"position"` // Chart order
	scenario.GeneratedScenario
	UpdatedAt time.Time `json:"updated_at"`
}

// ValuationStore persists valuations.
type ValuationStore interface {
	// Save inserts or replaces the valuation. An empty ID is assigned a new UUID.
	Save(ctx context.Context, v *Valuation) error

	// Get returns ErrNotFound if the id does not exist.
	Get(ctx context.Context, id string) (*Valuation, error)
}

// ScenarioStore persists generated scenarios with upsert semantics,
// so regenerating the standard scenarios is idempotent.
type ScenarioStore interface {
	// Upsert inserts the scenario or replaces the one with the same (valuationID, name).
	Upsert(ctx context.Context, valuationID string, position int, s *scenario.GeneratedScenario) error

	// ListByValuation returns scenarios ordered by position, then name.
	ListByValuation(ctx context.Context, valuationID string) ([]*StoredScenario, error)
}

func validateScenario(valuationID string, s *scenario.GeneratedScenario) error {
	if valuationID == "" || s == nil || s.Name == "" {
		return ErrInvalidInput
	}
	return nil
}
