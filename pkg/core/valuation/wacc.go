package valuation

import (
	"errors"
	"fmt"
	"math"
)

// DefaultWaccPercent is used when no discount rate can be resolved for a model.
const DefaultWaccPercent = 9.0

// ErrInvalidInput is returned by Validate for profiles the WACC formulas cannot price.
var ErrInvalidInput = errors.New("invalid risk profile")

// RiskProfile holds the capital market inputs for Cost of Capital.
// All rates are decimal fractions (0.05 = 5%).
type RiskProfile struct {
	RiskFreeRate          float64  `json:"risk_free_rate"`
	LeveredBeta           float64  `json:"levered_beta"`
	EquityRiskPremium     float64  `json:"equity_risk_premium"`
	CountryRiskPremium    float64  `json:"country_risk_premium"`
	AdjustedDefaultSpread float64  `json:"adjusted_default_spread"`
	CompanySpread         float64  `json:"company_spread"`
	DERatio               float64  `json:"de_ratio"` // Target Leverage (D/E)
	CorporateTaxRate      float64  `json:"corporate_tax_rate"`
	WaccPremium           *float64 `json:"wacc_premium,omitempty"`
}

// WaccComponents is the breakdown shown next to the discount rate in reports
type WaccComponents struct {
	CostOfEquity float64 `json:"cost_of_equity"`
	CostOfDebt   float64 `json:"cost_of_debt"` // Pre-tax
	EquityWeight float64 `json:"equity_weight"`
	DebtWeight   float64 `json:"debt_weight"`
	Wacc         float64 `json:"wacc"`
}

// Validate rejects leverage at or below -1 (V = E(1+D/E) would be zero or negative)
// and non-finite inputs. The Calculate* functions never call it.
func (rp RiskProfile) Validate() error {
	fields := map[string]float64{
		"risk_free_rate":          rp.RiskFreeRate,
		"levered_beta":            rp.LeveredBeta,
		"equity_risk_premium":     rp.EquityRiskPremium,
		"country_risk_premium":    rp.CountryRiskPremium,
		"adjusted_default_spread": rp.AdjustedDefaultSpread,
		"company_spread":          rp.CompanySpread,
		"de_ratio":                rp.DERatio,
		"corporate_tax_rate":      rp.CorporateTaxRate,
	}
	if rp.WaccPremium != nil {
		fields["wacc_premium"] = *rp.WaccPremium
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidInput, name)
		}
	}
	if rp.DERatio <= -1 {
		return fmt.Errorf("%w: de_ratio must be greater than -1, got %v", ErrInvalidInput, rp.DERatio)
	}
	return nil
}

// CalculateCostOfEquity uses CAPM extended with a country risk premium.
// Ke = Rf + Beta * (ERP + CRP)
func CalculateCostOfEquity(rp RiskProfile) float64 {
	return rp.RiskFreeRate + rp.LeveredBeta*(rp.EquityRiskPremium+rp.CountryRiskPremium)
}

// CalculateCostOfDebt returns the pre-tax cost of debt.
// Kd = Rf + DefaultSpread + CompanySpread
func CalculateCostOfDebt(rp RiskProfile) float64 {
	return rp.RiskFreeRate + rp.AdjustedDefaultSpread + rp.CompanySpread
}

// CalculateEquityWeight returns E/V for a D/E ratio.
// D/E = x -> V = E(1+x) -> E/V = 1 / (1+x)
func CalculateEquityWeight(deRatio float64) float64 {
	return 1.0 / (1 + deRatio)
}

// CalculateDebtWeight returns D/V for a D/E ratio: x / (1+x)
func CalculateDebtWeight(deRatio float64) float64 {
	return deRatio / (1 + deRatio)
}

// CalculateWacc computes the Weighted Average Cost of Capital as a decimal fraction.
func CalculateWacc(rp RiskProfile) float64 {
	return CalculateWaccComponents(rp).Wacc
}

// CalculateWaccComponents returns every intermediate rate together with the final WACC.
func CalculateWaccComponents(rp RiskProfile) WaccComponents {
	ke := CalculateCostOfEquity(rp)
	kd := CalculateCostOfDebt(rp)
	we := CalculateEquityWeight(rp.DERatio)
	wd := CalculateDebtWeight(rp.DERatio)

	premium := 0.0
	if rp.WaccPremium != nil {
		premium = *rp.WaccPremium
	}

	// WACC = E/V*Ke + D/V*Kd*(1-t) + premium
	wacc := (we * ke) + (wd * kd * (1 - rp.CorporateTaxRate)) + premium

	return WaccComponents{
		CostOfEquity: ke,
		CostOfDebt:   kd,
		EquityWeight: we,
		DebtWeight:   wd,
		Wacc:         wacc,
	}
}

// CalculateWaccPercent is CalculateWacc expressed in percent (9.78 rather than 0.0978).
func CalculateWaccPercent(rp RiskProfile) float64 {
	return CalculateWacc(rp) * 100
}
