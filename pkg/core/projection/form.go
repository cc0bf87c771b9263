package projection

import (
	"bytes"
	"encoding/json"
	"fmt"

	"company_valuation/pkg/core/valuation"
)

// Cells is a per-year list of form inputs. It decodes from a JSON array of
// strings or numbers; null entries become "".
type Cells []string

func (c *Cells) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Cells, len(raw))
	for i, r := range raw {
		r = bytes.TrimSpace(r)
		switch {
		case bytes.Equal(r, []byte("null")):
		case len(r) > 0 && r[0] == '"':
			if err := json.Unmarshal(r, &out[i]); err != nil {
				return err
			}
		default:
			out[i] = string(r)
		}
	}
	*c = out
	return nil
}

// FormInput is the model as typed into the assumptions form: per-year drivers arrive as text.
type FormInput struct {
	Name        string  `json:"name"`
	BaseYear    int     `json:"base_year"`
	Years       int     `json:"years"`
	BaseRevenue float64 `json:"base_revenue"`

	RevenueGrowth Cells `json:"revenue_growth"`
	EbitdaMargin  Cells `json:"ebitda_margin"`
	DAPercent     Cells `json:"da_percent"`
	CapexPercent  Cells `json:"capex_percent"`
	NWCPercent    Cells `json:"nwc_percent"`

	TaxRate        float64 `json:"tax_rate"`
	TerminalGrowth float64 `json:"terminal_growth"`

	WaccOverride *float64              `json:"wacc_override,omitempty"`
	RiskProfile  *valuation.RiskProfile `json:"risk_profile,omitempty"`

	NetDebt           float64 `json:"net_debt"`
	SharesOutstanding float64 `json:"shares_outstanding"`
}

// Validate rejects form input that cannot be projected. Call it before ToModel:
// the horizon sizes every per-year allocation.
func (f FormInput) Validate() error {
	if err := validateYears(f.Years); err != nil {
		return err
	}
	if err := validateWaccOverride(f.WaccOverride); err != nil {
		return err
	}
	if f.RiskProfile != nil {
		if err := f.RiskProfile.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidModel, err)
		}
	}
	return nil
}

// ToModel normalizes every per-year list to exactly Years numeric values.
func (f FormInput) ToModel() *FinancialModel {
	m := &FinancialModel{
		Name:              f.Name,
		BaseYear:          f.BaseYear,
		Years:             f.Years,
		BaseRevenue:       f.BaseRevenue,
		RevenueGrowth:     BuildArrayFromList(f.Years, f.RevenueGrowth),
		EbitdaMargin:      BuildArrayFromList(f.Years, f.EbitdaMargin),
		DAPercent:         BuildArrayFromList(f.Years, f.DAPercent),
		CapexPercent:      BuildArrayFromList(f.Years, f.CapexPercent),
		NWCPercent:        BuildArrayFromList(f.Years, f.NWCPercent),
		TaxRate:           f.TaxRate,
		TerminalGrowth:    f.TerminalGrowth,
		WaccOverride:      f.WaccOverride,
		RiskProfile:       f.RiskProfile,
		NetDebt:           f.NetDebt,
		SharesOutstanding: f.SharesOutstanding,
	}
	return m.Clone()
}

// Resize changes the projection horizon, keeping the text already entered for surviving years.
func (f *FormInput) Resize(years int) {
	f.Years = years
	f.RevenueGrowth = ResizeStringArray(f.RevenueGrowth, years)
	f.EbitdaMargin = ResizeStringArray(f.EbitdaMargin, years)
	f.DAPercent = ResizeStringArray(f.DAPercent, years)
	f.CapexPercent = ResizeStringArray(f.CapexPercent, years)
	f.NWCPercent = ResizeStringArray(f.NWCPercent, years)
}
