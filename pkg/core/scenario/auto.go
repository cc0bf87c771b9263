package scenario

import (
	"math"

	"company_valuation/pkg/core/projection"
	"company_valuation/pkg/core/valuation"
)

// GeneratedScenario is a named sensitivity range ready to persist and chart.
// MinInput/MaxInput are the driver values; MinValue/MaxValue the resulting enterprise values.
type GeneratedScenario struct {
	Name        string                           `json:"name"`
	Description string                           `json:"description,omitempty"`
	VariableID  VariableID                       `json:"variable_id"`
	MinInput    float64                          `json:"min_input"`
	MaxInput    float64                          `json:"max_input"`
	MinValue    float64                          `json:"min_value"`
	MaxValue    float64                          `json:"max_value"`
	MinModel    *projection.FinancialModel       `json:"min_model"`
	MaxModel    *projection.FinancialModel       `json:"max_model"`
	MinResults  *projection.CalculatedFinancials `json:"min_results"`
	MaxResults  *projection.CalculatedFinancials `json:"max_results"`
}

// autoSpec describes one of the standard scenarios
type autoSpec struct {
	variable    VariableID
	name        string
	description string
	delta       float64
	fallback    float64
	minFloor    float64 // lower clamp for the min bound
	maxFloor    float64 // lower clamp for the max bound
	ceiling     float64 // upper clamp for both bounds
}

// Order matters: charts render growth, margin, WACC.
var autoSpecs = []autoSpec{
	{
		variable:    VariableRevenueGrowth,
		name:        "Crecimiento de ingresos (±5%)",
		description: "Sensibilidad del valor de empresa a una variación de ±5 puntos en el crecimiento anual de ingresos",
		delta:       5,
		fallback:    0,
		minFloor:    0,
		maxFloor:    math.Inf(-1),
		ceiling:     math.Inf(1),
	},
	{
		variable:    VariableEbitdaMargin,
		name:        "Margen EBITDA (±5%)",
		description: "Sensibilidad del valor de empresa a una variación de ±5 puntos en el margen EBITDA",
		delta:       5,
		fallback:    0,
		minFloor:    0,
		maxFloor:    0,
		ceiling:     100,
	},
	{
		variable:    VariableWacc,
		name:        "WACC (±2%)",
		description: "Sensibilidad del valor de empresa a una variación de ±2 puntos en la tasa de descuento",
		delta:       2,
		fallback:    valuation.DefaultWaccPercent,
		minFloor:    0,
		maxFloor:    math.Inf(-1),
		ceiling:     math.Inf(1),
	},
}

// AutoScenarioNames returns the standard scenario names in display order.
func AutoScenarioNames() []string {
	names := make([]string, len(autoSpecs))
	for i, s := range autoSpecs {
		names[i] = s.name
	}
	return names
}

// GenerateAutoScenarios produces the three standard scenarios in fixed order.
// Errors from the calculator are returned as-is; callers decide whether they block.
func GenerateAutoScenarios(base *projection.FinancialModel, baseResults *projection.CalculatedFinancials) ([]GeneratedScenario, error) {
	out := make([]GeneratedScenario, 0, len(autoSpecs))
	for _, s := range autoSpecs {
		in := s.input(base, baseResults)

		res, err := CalculateScenario(base, baseResults, in)
		if err != nil {
			return nil, err
		}

		out = append(out, GeneratedScenario{
			Name:        s.name,
			Description: s.description,
			VariableID:  s.variable,
			MinInput:    in.MinValue,
			MaxInput:    in.MaxValue,
			MinValue:    res.MinValue,
			MaxValue:    res.MaxValue,
			MinModel:    res.MinModel,
			MaxModel:    res.MaxModel,
			MinResults:  res.MinResults,
			MaxResults:  res.MaxResults,
		})
	}
	return out, nil
}

func (s autoSpec) input(base *projection.FinancialModel, baseResults *projection.CalculatedFinancials) ScenarioInput {
	value, ok := GetVariableBaseValue(s.variable, base, baseResults)
	if !ok {
		value = s.fallback
	}
	return ScenarioInput{
		VariableID: s.variable,
		MinValue:   clamp(value-s.delta, s.minFloor, s.ceiling),
		MaxValue:   clamp(value+s.delta, s.maxFloor, s.ceiling),
	}
}
