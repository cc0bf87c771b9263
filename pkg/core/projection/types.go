package projection

import (
	"errors"
	"fmt"
	"math"

	"company_valuation/pkg/core/valuation"
)

// ErrInvalidModel is returned when a model cannot be projected.
var ErrInvalidModel = errors.New("invalid financial model")

// MaxYears bounds the projection horizon accepted from callers.
const MaxYears = 50

// FinancialModel defines the drivers for a multi-year projection.
// Per-year drivers are in percent units as entered in the UI (10 = 10%).
type FinancialModel struct {
	Name        string  `json:"name"`
	BaseYear    int     `json:"base_year"`
	Years       int     `json:"years"`        // Projection horizon
	BaseRevenue float64 `json:"base_revenue"` // Last historical year

	RevenueGrowth []float64 `json:"revenue_growth"` // % YoY
	EbitdaMargin  []float64 `json:"ebitda_margin"`  // % of Revenue
	DAPercent     []float64 `json:"da_percent"`     // % of Revenue
	CapexPercent  []float64 `json:"capex_percent"`  // % of Revenue
	NWCPercent    []float64 `json:"nwc_percent"`    // % of incremental Revenue

	TaxRate        float64 `json:"tax_rate"`        // %
	TerminalGrowth float64 `json:"terminal_growth"` // %

	// Discount rate: WaccOverride (%) wins over RiskProfile
	WaccOverride *float64              `json:"wacc_override,omitempty"`
	RiskProfile  *valuation.RiskProfile `json:"risk_profile,omitempty"`

	// Capital Structure
	NetDebt           float64 `json:"net_debt"`
	SharesOutstanding float64 `json:"shares_outstanding"`
}

// CalculatedFinancials holds the projection outputs for a model
type CalculatedFinancials struct {
	Years        []int     `json:"years"`
	Revenue      []float64 `json:"revenue"`
	Ebitda       []float64 `json:"ebitda"`
	EbitdaMargin []float64 `json:"ebitda_margin"` // %
	FreeCashFlow []float64 `json:"free_cash_flow"`

	DiscountFactors []float64 `json:"discount_factors"`
	PresentValues   []float64 `json:"present_values"`

	WaccPercent    float64                   `json:"wacc_percent"`
	WaccComponents *valuation.WaccComponents `json:"wacc_components,omitempty"`

	TerminalValue   float64 `json:"terminal_value"`
	PVTerminal      float64 `json:"pv_terminal"`
	PVCashFlows     float64 `json:"pv_cash_flows"`
	EnterpriseValue float64 `json:"enterprise_value"`
	EquityValue     float64 `json:"equity_value"`
	SharePrice      float64 `json:"share_price"`
	ImpliedMultiple float64 `json:"implied_multiple"`
}

// Validate checks the horizon, base revenue and discount rate before projecting.
func (m *FinancialModel) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: model is nil", ErrInvalidModel)
	}
	if err := validateYears(m.Years); err != nil {
		return err
	}
	if math.IsNaN(m.BaseRevenue) || math.IsInf(m.BaseRevenue, 0) {
		return fmt.Errorf("%w: base revenue is not finite", ErrInvalidModel)
	}
	if err := validateWaccOverride(m.WaccOverride); err != nil {
		return err
	}
	if m.RiskProfile != nil {
		if err := m.RiskProfile.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidModel, err)
		}
	}
	return nil
}

func validateYears(years int) error {
	if years <= 0 || years > MaxYears {
		return fmt.Errorf("%w: years must be between 1 and %d, got %d", ErrInvalidModel, MaxYears, years)
	}
	return nil
}

// A rate at or below -100% makes 1/(1+r) undefined or negative.
func validateWacc(pct float64) error {
	if math.IsNaN(pct) || math.IsInf(pct, 0) || pct <= -100 {
		return fmt.Errorf("%w: wacc must be a finite percent above -100, got %v", ErrInvalidModel, pct)
	}
	return nil
}

func validateWaccOverride(w *float64) error {
	if w == nil {
		return nil
	}
	return validateWacc(*w)
}

// Clone returns a deep copy so scenario runs never write through to the base model.
func (m *FinancialModel) Clone() *FinancialModel {
	if m == nil {
		return nil
	}
	c := *m
	c.RevenueGrowth = cloneFloats(m.RevenueGrowth)
	c.EbitdaMargin = cloneFloats(m.EbitdaMargin)
	c.DAPercent = cloneFloats(m.DAPercent)
	c.CapexPercent = cloneFloats(m.CapexPercent)
	c.NWCPercent = cloneFloats(m.NWCPercent)
	if m.WaccOverride != nil {
		w := *m.WaccOverride
		c.WaccOverride = &w
	}
	if m.RiskProfile != nil {
		rp := *m.RiskProfile
		if rp.WaccPremium != nil {
			p := *rp.WaccPremium
			rp.WaccPremium = &p
		}
		c.RiskProfile = &rp
	}
	return &c
}

func cloneFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	copy(out, in)
	return out
}
