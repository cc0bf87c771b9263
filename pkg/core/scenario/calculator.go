package scenario

import (
	"fmt"

	"company_valuation/pkg/core/projection"
)

// ScenarioInput is one perturbation: the driver and its low/high values (percent)
type ScenarioInput struct {
	VariableID VariableID `json:"variable_id"`
	MinValue   float64    `json:"min_value"`
	MaxValue   float64    `json:"max_value"`
}

// ScenarioResult holds the enterprise values and full projections at both bounds
type ScenarioResult struct {
	MinValue   float64                          `json:"min_value"` // Enterprise value at MinValue input
	MaxValue   float64                          `json:"max_value"` // Enterprise value at MaxValue input
	MinModel   *projection.FinancialModel       `json:"min_model"`
	MaxModel   *projection.FinancialModel       `json:"max_model"`
	MinResults *projection.CalculatedFinancials `json:"min_results"`
	MaxResults *projection.CalculatedFinancials `json:"max_results"`
}

// CalculateScenario recomputes the base model twice, once per bound.
// The base model is never mutated.
func CalculateScenario(base *projection.FinancialModel, baseResults *projection.CalculatedFinancials, in ScenarioInput) (*ScenarioResult, error) {
	if !in.VariableID.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, in.VariableID)
	}
	if base == nil {
		return nil, fmt.Errorf("%w: base model is nil", projection.ErrInvalidModel)
	}

	baseValue, _ := GetVariableBaseValue(in.VariableID, base, baseResults)

	minModel, minResults, err := recalculate(base, in.VariableID, baseValue, in.MinValue)
	if err != nil {
		return nil, fmt.Errorf("%s min case: %w", in.VariableID, err)
	}
	maxModel, maxResults, err := recalculate(base, in.VariableID, baseValue, in.MaxValue)
	if err != nil {
		return nil, fmt.Errorf("%s max case: %w", in.VariableID, err)
	}

	return &ScenarioResult{
		MinValue:   minResults.EnterpriseValue,
		MaxValue:   maxResults.EnterpriseValue,
		MinModel:   minModel,
		MaxModel:   maxModel,
		MinResults: minResults,
		MaxResults: maxResults,
	}, nil
}

func recalculate(base *projection.FinancialModel, id VariableID, baseValue, target float64) (*projection.FinancialModel, *projection.CalculatedFinancials, error) {
	m := base.Clone()
	if err := applyVariable(m, id, baseValue, target); err != nil {
		return nil, nil, err
	}
	res, err := projection.Calculate(m)
	if err != nil {
		return nil, nil, err
	}
	return m, res, nil
}
