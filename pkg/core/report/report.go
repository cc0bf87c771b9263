// Package report renders a valuation and its scenarios as Markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"company_valuation/pkg/core/projection"
	"company_valuation/pkg/core/store"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown builds the report body: WACC breakdown, projection table and scenario ranges.
func Markdown(v *store.Valuation, scenarios []*store.StoredScenario) string {
	var b strings.Builder

	name := v.Name
	if name == "" {
		name = v.ID
	}
	fmt.Fprintf(&b, "# Valuation: %s\n\n", escape(name))

	res := v.Results
	if res == nil {
		b.WriteString("_No results calculated._\n")
		return b.String()
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Enterprise Value | %s |\n", money(res.EnterpriseValue))
	fmt.Fprintf(&b, "| Equity Value | %s |\n", money(res.EquityValue))
	if v.Model != nil && v.Model.SharesOutstanding != 0 {
		fmt.Fprintf(&b, "| Share Price | %s |\n", money(res.SharePrice))
	}
	fmt.Fprintf(&b, "| WACC | %s |\n", pct(res.WaccPercent))
	fmt.Fprintf(&b, "| PV of Cash Flows | %s |\n", money(res.PVCashFlows))
	fmt.Fprintf(&b, "| PV of Terminal Value | %s |\n\n", money(res.PVTerminal))

	if c := res.WaccComponents; c != nil {
		b.WriteString("## Cost of Capital\n\n")
		b.WriteString("| Component | Value |\n|---|---:|\n")
		fmt.Fprintf(&b, "| Cost of Equity | %s |\n", pct(c.CostOfEquity*100))
		fmt.Fprintf(&b, "| Cost of Debt (pre-tax) | %s |\n", pct(c.CostOfDebt*100))
		fmt.Fprintf(&b, "| Equity Weight | %s |\n", pct(c.EquityWeight*100))
		fmt.Fprintf(&b, "| Debt Weight | %s |\n", pct(c.DebtWeight*100))
		fmt.Fprintf(&b, "| WACC | %s |\n\n", pct(c.Wacc*100))
	}

	writeProjection(&b, res)

	if len(scenarios) > 0 {
		b.WriteString("## Sensitivity\n\n")
		b.WriteString("| Scenario | Low input | High input | EV (low) | EV (high) |\n|---|---:|---:|---:|---:|\n")
		for _, sc := range scenarios {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				escape(sc.Name), pct(sc.MinInput), pct(sc.MaxInput), money(sc.MinValue), money(sc.MaxValue))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders the Markdown report to an HTML fragment.
func HTML(v *store.Valuation, scenarios []*store.StoredScenario) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(v, scenarios)), &buf); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

func writeProjection(b *strings.Builder, res *projection.CalculatedFinancials) {
	if len(res.Years) == 0 {
		return
	}
	b.WriteString("## Projection\n\n")
	b.WriteString("| Year | Revenue | EBITDA | EBITDA Margin | FCF | PV |\n|---|---:|---:|---:|---:|---:|\n")
	for i, y := range res.Years {
		fmt.Fprintf(b, "| %d | %s | %s | %s | %s | %s |\n",
			y,
			money(at(res.Revenue, i)),
			money(at(res.Ebitda, i)),
			pct(at(res.EbitdaMargin, i)),
			money(at(res.FreeCashFlow, i)),
			money(at(res.PresentValues, i)),
		)
	}
	b.WriteString("\n")
}

func at(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}

// money formats with thousands separators and two decimals, e.g. 1,234,567.89
func money(v float64) string {
	if !finite(v) {
		return "n/a"
	}
	s := decimal.NewFromFloat(v).Round(2).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var out strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(r)
	}
	res := out.String() + "." + frac
	if neg && strings.Trim(res, "0.,") != "" {
		return "-" + res
	}
	return res
}

// pct formats a percent-unit value, e.g. 9.78%
func pct(v float64) string {
	if !finite(v) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).Round(2).StringFixed(2) + "%"
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func escape(s string) string {
	return strings.NewReplacer("|", "\\|", "\n", " ").Replace(s)
}
