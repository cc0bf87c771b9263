package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"company_valuation/pkg/core/scenario"
)

// ScenarioRepo stores generated scenarios in `valuation_scenarios`,
// unique on (valuation_id, name).
type ScenarioRepo struct {
	pool *pgxpool.Pool
}

// NewScenarioRepo creates a new repository instance.
func NewScenarioRepo(pool *pgxpool.Pool) *ScenarioRepo {
	return &ScenarioRepo{pool: pool}
}

var _ ScenarioStore = (*ScenarioRepo)(nil)

// scenarioPayload is the JSONB column; scalar fields live in their own columns.
type scenarioPayload struct {
	MinModel   json.RawMessage `json:"min_model"`
	MaxModel   json.RawMessage `json:"max_model"`
	MinResults json.RawMessage `json:"min_results"`
	MaxResults json.RawMessage `json:"max_results"`
}

// Upsert inserts or replaces the scenario for (valuationID, name).
func (r *ScenarioRepo) Upsert(ctx context.Context, valuationID string, position int, s *scenario.GeneratedScenario) error {
	if err := validateScenario(valuationID, s); err != nil {
		return err
	}

	payload, err := marshalPayload(s)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO valuation_scenarios (
			valuation_id, name, description, variable_id, position,
			min_input, max_input, min_value, max_value, payload, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (valuation_id, name)
		DO UPDATE SET
			description = EXCLUDED.description,
			variable_id = EXCLUDED.variable_id,
			position = EXCLUDED.position,
			min_input = EXCLUDED.min_input,
			max_input = EXCLUDED.max_input,
			min_value = EXCLUDED.min_value,
			max_value = EXCLUDED.max_value,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at;
	`
	_, err = r.pool.Exec(ctx, query,
		valuationID,
		s.Name,
		s.Description,
		string(s.VariableID),
		position,
		s.MinInput,
		s.MaxInput,
		s.MinValue,
		s.MaxValue,
		payload,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert scenario %q: %w", s.Name, err)
	}
	return nil
}

// ListByValuation returns the stored scenarios in chart order.
func (r *ScenarioRepo) ListByValuation(ctx context.Context, valuationID string) ([]*StoredScenario, error) {
	query := `
		SELECT valuation_id, name, description, variable_id, position,
			min_input, max_input, min_value, max_value, payload, updated_at
		FROM valuation_scenarios
		WHERE valuation_id = $1
		ORDER BY position ASC, name ASC
	`
	rows, err := r.pool.Query(ctx, query, valuationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var out []*StoredScenario
	for rows.Next() {
		var (
			sc       StoredScenario
			variable string
			payload  []byte
		)
		if err := rows.Scan(
			&sc.ValuationID,
			&sc.Name,
			&sc.Description,
			&variable,
			&sc.Position,
			&sc.MinInput,
			&sc.MaxInput,
			&sc.MinValue,
			&sc.MaxValue,
			&payload,
			&sc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		sc.VariableID = scenario.VariableID(variable)
		if err := unmarshalPayload(payload, &sc.GeneratedScenario); err != nil {
			return nil, err
		}
		out = append(out, &sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scenarios: %w", err)
	}
	return out, nil
}

func marshalPayload(s *scenario.GeneratedScenario) ([]byte, error) {
	var (
		p   scenarioPayload
		err error
	)
	if p.MinModel, err = json.Marshal(s.MinModel); err != nil {
		return nil, fmt.Errorf("failed to marshal min model: %w", err)
	}
	if p.MaxModel, err = json.Marshal(s.MaxModel); err != nil {
		return nil, fmt.Errorf("failed to marshal max model: %w", err)
	}
	if p.MinResults, err = json.Marshal(s.MinResults); err != nil {
		return nil, fmt.Errorf("failed to marshal min results: %w", err)
	}
	if p.MaxResults, err = json.Marshal(s.MaxResults); err != nil {
		return nil, fmt.Errorf("failed to marshal max results: %w", err)
	}
	return json.Marshal(p)
}

func unmarshalPayload(data []byte, s *scenario.GeneratedScenario) error {
	var p scenarioPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to unmarshal scenario payload: %w", err)
	}
	for _, f := range []struct {
		raw json.RawMessage
		dst any
	}{
		{p.MinModel, &s.MinModel},
		{p.MaxModel, &s.MaxModel},
		{p.MinResults, &s.MinResults},
		{p.MaxResults, &s.MaxResults},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return fmt.Errorf("failed to unmarshal scenario payload: %w", err)
		}
	}
	return nil
}
