package projection

import "company_valuation/pkg/core/valuation"

// Calculate projects the model year by year and discounts the free cash flows.
// Revenue -> EBITDA -> NOPAT -> UFCF -> PV, with a Gordon Growth terminal value.
func Calculate(model *FinancialModel) (*CalculatedFinancials, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}

	waccPct, components := ResolveWacc(model)
	// A valid risk profile can still price below -100%
	if err := validateWacc(waccPct); err != nil {
		return nil, err
	}

	res := &CalculatedFinancials{
		Years:          make([]int, model.Years),
		Revenue:        make([]float64, model.Years),
		Ebitda:         make([]float64, model.Years),
		EbitdaMargin:   make([]float64, model.Years),
		FreeCashFlow:   make([]float64, model.Years),
		WaccPercent:    waccPct,
		WaccComponents: components,
	}

	taxRate := model.TaxRate / 100
	prevRev := model.BaseRevenue

	for i := 0; i < model.Years; i++ {
		// 1. Revenue
		rev := prevRev * (1 + valueAt(model.RevenueGrowth, i)/100)

		// 2. EBITDA
		margin := valueAt(model.EbitdaMargin, i)
		ebitda := rev * margin / 100

		// 3. NOPAT = (EBITDA - D&A) * (1-t)
		da := rev * valueAt(model.DAPercent, i) / 100
		nopat := (ebitda - da) * (1 - taxRate)

		// 4. UFCF = NOPAT + D&A - CapEx - dNWC
		capex := rev * valueAt(model.CapexPercent, i) / 100
		deltaNWC := (rev - prevRev) * valueAt(model.NWCPercent, i) / 100
		fcf := nopat + da - capex - deltaNWC

		res.Years[i] = model.BaseYear + i + 1
		res.Revenue[i] = rev
		res.Ebitda[i] = ebitda
		res.EbitdaMargin[i] = margin
		res.FreeCashFlow[i] = fcf

		prevRev = rev
	}

	dcf := valuation.CalculateDCF(valuation.DCFInput{
		FreeCashFlows:     res.FreeCashFlow,
		WACC:              waccPct / 100,
		TerminalGrowth:    model.TerminalGrowth / 100,
		TerminalEBITDA:    res.Ebitda[model.Years-1],
		SharesOutstanding: model.SharesOutstanding,
		NetDebt:           model.NetDebt,
	})

	res.DiscountFactors = dcf.DiscountFactors
	res.PresentValues = dcf.PresentValues
	res.TerminalValue = dcf.TerminalValue
	res.PVTerminal = dcf.PVTerminal
	res.PVCashFlows = dcf.PVCashFlows
	res.EnterpriseValue = dcf.EnterpriseValue
	res.EquityValue = dcf.EquityValue
	res.SharePrice = dcf.SharePrice
	res.ImpliedMultiple = dcf.ImpliedMultiple

	return res, nil
}

// ResolveWacc picks the model's discount rate in percent.
// Priority: explicit override, then the risk profile, then DefaultWaccPercent.
// The profile is priced on every call so edits to any input are never stale.
func ResolveWacc(model *FinancialModel) (float64, *valuation.WaccComponents) {
	if model.WaccOverride != nil {
		return *model.WaccOverride, nil
	}
	if model.RiskProfile != nil {
		c := valuation.CalculateWaccComponents(*model.RiskProfile)
		return c.Wacc * 100, &c
	}
	return valuation.DefaultWaccPercent, nil
}
