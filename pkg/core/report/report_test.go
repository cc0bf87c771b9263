package report

import (
	"math"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"company_valuation/pkg/core/projection"
	"company_valuation/pkg/core/scenario"
	"company_valuation/pkg/core/store"
	"company_valuation/pkg/core/valuation"
)

func testValuation(t *testing.T) *store.Valuation {
	t.Helper()
	m := &projection.FinancialModel{
		Name:              "Acme | Holdings",
		BaseYear:          2024,
		Years:             2,
		BaseRevenue:       1000,
		RevenueGrowth:     []float64{10, 10},
		EbitdaMargin:      []float64{20, 20},
		TaxRate:           25,
		TerminalGrowth:    2,
		SharesOutstanding: 10,
		RiskProfile: &valuation.RiskProfile{
			RiskFreeRate:          0.04,
			LeveredBeta:           1.2,
			EquityRiskPremium:     0.06,
			CountryRiskPremium:    0.01,
			AdjustedDefaultSpread: 0.02,
			CompanySpread:         0.005,
			DERatio:               0.5,
			CorporateTaxRate:      0.25,
		},
	}
	res, err := projection.Calculate(m)
	require.NoError(t, err)
	return &store.Valuation{ID: "val-1", Name: m.Name, Model: m, Results: res}
}

func TestMarkdown_Sections(t *testing.T) {
	out := Markdown(testValuation(t), []*store.StoredScenario{
		{Position: 0, GeneratedScenario: scenario.GeneratedScenario{Name: "WACC (±2%)", MinInput: 7.78, MaxInput: 11.78, MinValue: 2500, MaxValue: 1500}},
	})

	assert.Contains(t, out, "# Valuation: Acme \\| Holdings")
	assert.Contains(t, out, "## Summary")
	assert.Contains(t, out, "## Cost of Capital")
	assert.Contains(t, out, "## Projection")
	assert.Contains(t, out, "## Sensitivity")
	assert.Contains(t, out, "| 2025 |")
	assert.Contains(t, out, "| 2026 |")
	assert.Contains(t, out, "| WACC (±2%) | 7.78% | 11.78% | 2,500.00 | 1,500.00 |")
	assert.Contains(t, out, "| Share Price |")
}

func TestMarkdown_NoResults(t *testing.T) {
	out := Markdown(&store.Valuation{ID: "val-1"}, nil)
	assert.Contains(t, out, "# Valuation: val-1")
	assert.Contains(t, out, "_No results calculated._")
	assert.NotContains(t, out, "## Summary")
}

func TestHTML_RendersTables(t *testing.T) {
	html, err := HTML(testValuation(t), nil)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	assert.Equal(t, "Valuation: Acme | Holdings", doc.Find("h1").First().Text())
	// Summary, cost of capital and projection; no sensitivity without scenarios
	assert.Equal(t, 3, doc.Find("table").Length())

	var headers []string
	doc.Find("h2").Each(func(_ int, s *goquery.Selection) {
		headers = append(headers, s.Text())
	})
	assert.Equal(t, []string{"Summary", "Cost of Capital", "Projection"}, headers)

	rows := doc.Find("table").Eq(2).Find("tbody tr")
	assert.Equal(t, 2, rows.Length())
	assert.Equal(t, "1,100.00", rows.First().Find("td").Eq(1).Text())
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{999.994, "999.99"},
		{1234567.891, "1,234,567.89"},
		{-1500, "-1,500.00"},
		{-0.001, "0.00"},
		{math.NaN(), "n/a"},
		{math.Inf(1), "n/a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, money(tt.in), "money(%v)", tt.in)
	}
}

func TestPct(t *testing.T) {
	assert.Equal(t, "9.78%", pct(9.783333))
	assert.Equal(t, "0.00%", pct(0))
	assert.Equal(t, "n/a", pct(math.Inf(-1)))
}
