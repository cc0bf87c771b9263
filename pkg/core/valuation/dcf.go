package valuation

// DCFInput encapsulates all inputs required for a Discounted Cash Flow valuation
type DCFInput struct {
	FreeCashFlows     []float64 // Unlevered FCF per projection year
	WACC              float64   // Decimal, used when PeriodWACCs is shorter than the projection
	PeriodWACCs       []float64 // Optional: WACC per projection year
	TerminalGrowth    float64   // Decimal, e.g. 0.025
	TerminalEBITDA    float64   // Final year EBITDA, for the implied exit multiple
	SharesOutstanding float64
	NetDebt           float64
}

// DCFResult holds the valuation outputs
type DCFResult struct {
	DiscountFactors []float64
	PresentValues   []float64
	EnterpriseValue float64
	EquityValue     float64
	SharePrice      float64
	PVCashFlows     float64
	TerminalValue   float64
	PVTerminal      float64
	ImpliedMultiple float64 // EV / EBITDA (Terminal Year)
}

// CalculateDCF performs a standard 2-stage DCF analysis
func CalculateDCF(input DCFInput) DCFResult {
	n := len(input.FreeCashFlows)
	res := DCFResult{
		DiscountFactors: make([]float64, n),
		PresentValues:   make([]float64, n),
	}

	// Track cumulative discount factor for dynamic WACC
	cumDiscountFactor := 1.0

	for i, fcf := range input.FreeCashFlows {
		wacc := input.WACC
		if len(input.PeriodWACCs) > i {
			wacc = input.PeriodWACCs[i]
		}

		cumDiscountFactor /= (1.0 + wacc)
		res.DiscountFactors[i] = cumDiscountFactor
		res.PresentValues[i] = fcf * cumDiscountFactor
		res.PVCashFlows += res.PresentValues[i]
	}

	// Terminal Value (Gordon Growth), capitalized at the final year WACC
	finalWACC := input.WACC
	if len(input.PeriodWACCs) > 0 {
		finalWACC = input.PeriodWACCs[len(input.PeriodWACCs)-1]
	}

	if n > 0 && finalWACC > input.TerminalGrowth {
		terminalFCF := input.FreeCashFlows[n-1] * (1 + input.TerminalGrowth)
		res.TerminalValue = terminalFCF / (finalWACC - input.TerminalGrowth)
	}
	res.PVTerminal = res.TerminalValue * cumDiscountFactor

	res.EnterpriseValue = res.PVCashFlows + res.PVTerminal
	res.EquityValue = res.EnterpriseValue - input.NetDebt
	if input.SharesOutstanding != 0 {
		res.SharePrice = res.EquityValue / input.SharesOutstanding
	}
	if input.TerminalEBITDA != 0 {
		res.ImpliedMultiple = res.TerminalValue / input.TerminalEBITDA
	}

	return res
}
