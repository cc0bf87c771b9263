package valuation

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"company_valuation/pkg/core/pipeline"
	"company_valuation/pkg/core/projection"
	"company_valuation/pkg/core/store"
)

const formBody = `{
	"name": "Acme",
	"base_year": 2024,
	"years": 3,
	"base_revenue": 1000,
	"revenue_growth": ["10", 8, ""],
	"ebitda_margin": [20, 20, 20],
	"da_percent": [5, 5, 5],
	"capex_percent": [4, 4, 4],
	"nwc_percent": [10, 10, 10],
	"tax_rate": 25,
	"terminal_growth": 2,
	"wacc_override": 10
}`

func newTestServer(t *testing.T) (*httptest.Server, *pipeline.Orchestrator) {
	t.Helper()
	mem := store.NewMemoryStore()
	orch := pipeline.NewOrchestrator(mem, mem, nil)
	h := NewHandler(orch, mem, mem, nil)

	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		orch.Wait()
	})
	return srv, orch
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleWacc(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv.URL+"/valuation/wacc", `{
		"risk_free_rate": 0.04, "levered_beta": 1.2, "equity_risk_premium": 0.06,
		"country_risk_premium": 0.01, "adjusted_default_spread": 0.02, "company_spread": 0.005,
		"de_ratio": 0.5, "corporate_tax_rate": 0.25
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out WaccResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.InDelta(t, 9.891667, out.WaccPercent, 1e-4)
	assert.InDelta(t, 0.124, out.Components.CostOfEquity, 1e-9)
}

func TestHandleWacc_InvalidLeverage(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := post(t, srv.URL+"/valuation/wacc", `{"de_ratio": -1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleCalculate(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv.URL+"/valuation/calculate", formBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out projection.CalculatedFinancials
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, []int{2025, 2026, 2027}, out.Years)
	assert.InDelta(t, 1100, out.Revenue[0], 1e-9)
	assert.InDelta(t, 1188, out.Revenue[1], 1e-9)
	// Blank growth cell counts as zero
	assert.InDelta(t, 1188, out.Revenue[2], 1e-9)
	assert.Equal(t, 10.0, out.WaccPercent)
}

func TestHandleCalculate_BadInput(t *testing.T) {
	srv, _ := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, post(t, srv.URL+"/valuation/calculate", `{not json`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, post(t, srv.URL+"/valuation/calculate", `{"years": 0}`).StatusCode)
}

func TestCreateThenFetch(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv.URL+"/valuations", formBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created CreateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotNil(t, created.Valuation)
	assert.True(t, created.ScenariosPending)
	id := created.Valuation.ID

	got := get(t, srv.URL+"/valuations/"+id)
	require.Equal(t, http.StatusOK, got.StatusCode)
	var v store.Valuation
	require.NoError(t, json.NewDecoder(got.Body).Decode(&v))
	assert.Equal(t, "Acme", v.Name)

	// Background generation lands eventually
	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/valuations/" + id + "/scenarios")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var out ScenariosResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return false
		}
		return len(out.Scenarios) == 3
	}, 5*time.Second, 20*time.Millisecond)

	report := get(t, srv.URL+"/valuations/"+id+"/report")
	require.Equal(t, http.StatusOK, report.StatusCode)
	assert.True(t, strings.HasPrefix(report.Header.Get("Content-Type"), "text/html"))
}

func TestRegenerateScenarios(t *testing.T) {
	srv, orch := newTestServer(t)

	m := (&projection.FormInput{}).ToModel()
	m.Name, m.Years, m.BaseRevenue = "Beta", 2, 500
	v, job, err := orch.CreateValuation(context.Background(), m)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, job.Wait(ctx))

	resp := post(t, srv.URL+"/valuations/"+v.ID+"/scenarios", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out ScenariosResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Scenarios, 3)
	assert.Equal(t, "WACC (±2%)", out.Scenarios[2].Name)
	assert.Equal(t, 7.0, out.Scenarios[2].MinInput)
	assert.Equal(t, 11.0, out.Scenarios[2].MaxInput)
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/valuations/missing", "/valuations/missing/scenarios", "/valuations/missing/report"} {
		assert.Equal(t, http.StatusNotFound, get(t, srv.URL+path).StatusCode, path)
	}
	assert.Equal(t, http.StatusNotFound, post(t, srv.URL+"/valuations/missing/scenarios", "").StatusCode)
}

func TestModelEndpoints_RejectUnusableInput(t *testing.T) {
	srv, _ := newTestServer(t)

	bodies := map[string]string{
		"wacc at -100":     `{"years": 3, "base_revenue": 1000, "wacc_override": -100}`,
		"wacc below -100":  `{"years": 3, "base_revenue": 1000, "wacc_override": -250}`,
		"horizon too long": `{"years": 51, "base_revenue": 1000}`,
		"huge horizon":     `{"years": 4611686018427387904, "base_revenue": 1000}`,
		"bad leverage":     `{"years": 3, "base_revenue": 1000, "risk_profile": {"de_ratio": -1}}`,
	}
	for name, body := range bodies {
		for _, path := range []string{"/valuation/calculate", "/valuations"} {
			resp := post(t, srv.URL+path, body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "%s %s", name, path)

			var out map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out), "%s %s", name, path)
			assert.NotEmpty(t, out["error"], "%s %s", name, path)
		}
	}
}

func TestHandleCalculate_OverflowReportsServerError(t *testing.T) {
	srv, _ := newTestServer(t)

	// Revenue overflows to +Inf, which JSON cannot carry
	resp := post(t, srv.URL+"/valuation/calculate", `{"years": 1, "base_revenue": 1e308, "revenue_growth": [100], "wacc_override": 10}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "failed to encode response", out["error"])
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"ev": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error": "failed to encode response"}`, rec.Body.String())
}
