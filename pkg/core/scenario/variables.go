// Package scenario implements sensitivity analysis over a projection model:
// resolving a driver's base value, recomputing the model at min/max bounds,
// and generating the standard scenarios shown on every valuation report.
package scenario

import (
	"errors"
	"fmt"

	"company_valuation/pkg/core/projection"
)

// VariableID names a model driver that a scenario can perturb
type VariableID string

const (
	VariableRevenueGrowth VariableID = "revenue_growth"
	VariableEbitdaMargin  VariableID = "ebitda_margin"
	VariableWacc          VariableID = "wacc"
)

// ErrUnknownVariable is returned for a VariableID the calculator cannot apply.
var ErrUnknownVariable = errors.New("unknown scenario variable")

// Variables lists the supported drivers in display order
var Variables = []VariableID{VariableRevenueGrowth, VariableEbitdaMargin, VariableWacc}

// Valid reports whether id is a supported driver
func (id VariableID) Valid() bool {
	switch id {
	case VariableRevenueGrowth, VariableEbitdaMargin, VariableWacc:
		return true
	}
	return false
}

// GetVariableBaseValue resolves the current value of a driver, in percent.
// Per-year drivers resolve to their mean over the horizon. The second return is
// false when the model carries no value for the driver.
func GetVariableBaseValue(id VariableID, model *projection.FinancialModel, results *projection.CalculatedFinancials) (float64, bool) {
	if model == nil {
		return 0, false
	}
	switch id {
	case VariableRevenueGrowth:
		return mean(horizon(model.RevenueGrowth, model.Years))
	case VariableEbitdaMargin:
		return mean(horizon(model.EbitdaMargin, model.Years))
	case VariableWacc:
		if model.WaccOverride != nil {
			return *model.WaccOverride, true
		}
		if results != nil {
			return results.WaccPercent, true
		}
		if model.RiskProfile != nil {
			w, _ := projection.ResolveWacc(model)
			return w, true
		}
	}
	return 0, false
}

// applyVariable moves the driver so that its base value becomes target.
// Per-year series are shifted rather than flattened, keeping the year-by-year shape.
func applyVariable(model *projection.FinancialModel, id VariableID, base, target float64) error {
	delta := target - base
	switch id {
	case VariableRevenueGrowth:
		model.RevenueGrowth = shift(model.RevenueGrowth, model.Years, delta, nil)
	case VariableEbitdaMargin:
		model.EbitdaMargin = shift(model.EbitdaMargin, model.Years, delta, &[2]float64{0, 100})
	case VariableWacc:
		w := target
		model.WaccOverride = &w
	default:
		return fmt.Errorf("%w: %q", ErrUnknownVariable, id)
	}
	return nil
}

func horizon(series []float64, years int) []float64 {
	if years >= 0 && len(series) > years {
		return series[:years]
	}
	return series
}

func mean(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series)), true
}

func shift(series []float64, years int, delta float64, bounds *[2]float64) []float64 {
	out := make([]float64, max(years, 0))
	for i := range out {
		v := delta
		if i < len(series) {
			v += series[i]
		}
		if bounds != nil {
			v = clamp(v, bounds[0], bounds[1])
		}
		out[i] = v
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
