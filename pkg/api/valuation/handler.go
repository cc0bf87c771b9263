package valuation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"company_valuation/pkg/core/pipeline"
	"company_valuation/pkg/core/projection"
	"company_valuation/pkg/core/report"
	"company_valuation/pkg/core/scenario"
	"company_valuation/pkg/core/store"
	coreValuation "company_valuation/pkg/core/valuation"
)

// Handler serves the valuation endpoints
type Handler struct {
	orchestrator *pipeline.Orchestrator
	valuations   store.ValuationStore
	scenarios    store.ScenarioStore
	logger       *zap.Logger
}

// NewHandler creates a new valuation handler
func NewHandler(orch *pipeline.Orchestrator, valuations store.ValuationStore, scenarios store.ScenarioStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		orchestrator: orch,
		valuations:   valuations,
		scenarios:    scenarios,
		logger:       logger,
	}
}

// Routes mounts the handlers on r
func (h *Handler) Routes(r chi.Router) {
	r.Post("/valuation/wacc", h.HandleWacc)
	r.Post("/valuation/calculate", h.HandleCalculate)

	r.Post("/valuations", h.HandleCreate)
	r.Get("/valuations/{id}", h.HandleGet)
	r.Get("/valuations/{id}/scenarios", h.HandleListScenarios)
	r.Post("/valuations/{id}/scenarios", h.HandleRegenerateScenarios)
	r.Get("/valuations/{id}/report", h.HandleReport)
}

type WaccResponse struct {
	Components  coreValuation.WaccComponents `json:"components"`
	WaccPercent float64                      `json:"wacc_percent"`
}

type CreateResponse struct {
	Valuation *store.Valuation `json:"valuation"`
	// Scenarios are generated in the background; poll GET /valuations/{id}/scenarios
	ScenariosPending bool `json:"scenarios_pending"`
}

type ScenariosResponse struct {
	ValuationID string                  `json:"valuation_id"`
	Scenarios   []*store.StoredScenario `json:"scenarios"`
}

// HandleWacc prices a risk profile
func (h *Handler) HandleWacc(w http.ResponseWriter, r *http.Request) {
	var rp coreValuation.RiskProfile
	if err := json.NewDecoder(r.Body).Decode(&rp); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := rp.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, WaccResponse{
		Components:  coreValuation.CalculateWaccComponents(rp),
		WaccPercent: coreValuation.CalculateWaccPercent(rp),
	})
}

// HandleCalculate projects a form model without saving it
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	model, ok := h.decodeModel(w, r)
	if !ok {
		return
	}
	res, err := projection.Calculate(model)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleCreate saves a valuation and starts scenario generation in the background.
// Scenario failures are logged by the orchestrator and never fail this request.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	model, ok := h.decodeModel(w, r)
	if !ok {
		return
	}

	v, _, err := h.orchestrator.CreateValuation(r.Context(), model)
	if err != nil {
		if errors.Is(err, projection.ErrInvalidModel) || errors.Is(err, store.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("create valuation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create valuation")
		return
	}

	writeJSON(w, http.StatusCreated, CreateResponse{Valuation: v, ScenariosPending: true})
}

// HandleGet returns a stored valuation
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadValuation(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleListScenarios returns stored scenarios in chart order
func (h *Handler) HandleListScenarios(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadValuation(w, r)
	if !ok {
		return
	}
	list, err := h.scenarios.ListByValuation(r.Context(), v.ID)
	if err != nil {
		h.logger.Error("list scenarios failed", zap.String("valuation_id", v.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list scenarios")
		return
	}
	if list == nil {
		list = []*store.StoredScenario{}
	}
	writeJSON(w, http.StatusOK, ScenariosResponse{ValuationID: v.ID, Scenarios: list})
}

// HandleRegenerateScenarios recomputes the standard scenarios synchronously
func (h *Handler) HandleRegenerateScenarios(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	generated, err := h.orchestrator.RegenerateScenarios(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "valuation not found")
		case errors.Is(err, scenario.ErrUnknownVariable), errors.Is(err, projection.ErrInvalidModel):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.Error("regenerate scenarios failed", zap.String("valuation_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to generate scenarios")
		}
		return
	}

	list := make([]*store.StoredScenario, len(generated))
	for i := range generated {
		list[i] = &store.StoredScenario{ValuationID: id, Position: i, GeneratedScenario: generated[i]}
	}
	writeJSON(w, http.StatusOK, ScenariosResponse{ValuationID: id, Scenarios: list})
}

// HandleReport renders the valuation report as HTML
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadValuation(w, r)
	if !ok {
		return
	}
	list, err := h.scenarios.ListByValuation(r.Context(), v.ID)
	if err != nil {
		h.logger.Warn("report without scenarios", zap.String("valuation_id", v.ID), zap.Error(err))
		list = nil
	}

	html, err := report.HTML(v, list)
	if err != nil {
		h.logger.Error("render report failed", zap.String("valuation_id", v.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (h *Handler) decodeModel(w http.ResponseWriter, r *http.Request) (*projection.FinancialModel, bool) {
	var form projection.FormInput
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return form.ToModel(), true
}

func (h *Handler) loadValuation(w http.ResponseWriter, r *http.Request) (*store.Valuation, bool) {
	id := chi.URLParam(r, "id")
	v, err := h.valuations.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "valuation not found")
			return nil, false
		}
		h.logger.Error("load valuation failed", zap.String("valuation_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load valuation")
		return nil, false
	}
	return v, true
}

// writeJSON encodes before writing the status so an encode failure is still reported as 500.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
