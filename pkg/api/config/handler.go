package config

import (
	"encoding/json"
	"net/http"

	"company_valuation/pkg/core/scenario"
	"company_valuation/pkg/core/valuation"
)

// Response describes the calculation defaults the UI needs before a model exists
type Response struct {
	DefaultWaccPercent float64               `json:"default_wacc_percent"`
	Variables          []scenario.VariableID `json:"variables"`
	AutoScenarios      []string              `json:"auto_scenarios"`
	Storage            string                `json:"storage"` // "postgres" or "memory"
}

// Handler holds dependencies for config endpoints
type Handler struct {
	storage string
}

// NewHandler creates a new config handler
func NewHandler(storage string) *Handler {
	return &Handler{storage: storage}
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		DefaultWaccPercent: valuation.DefaultWaccPercent,
		Variables:          scenario.Variables,
		AutoScenarios:      scenario.AutoScenarioNames(),
		Storage:            h.storage,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
