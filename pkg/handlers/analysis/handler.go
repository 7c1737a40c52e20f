package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/open-solucoes/gtia/pkg/adapters"
	"github.com/open-solucoes/gtia/pkg/models/api"
	"github.com/open-solucoes/gtia/pkg/models/domain"
	"github.com/open-solucoes/gtia/pkg/models/store"
	"github.com/open-solucoes/gtia/pkg/services/ingest"
	"github.com/open-solucoes/gtia/pkg/services/recovery"
	"github.com/open-solucoes/gtia/pkg/services/tax"
)

const (
	serviceName   = "Gestor Tributário IA"
	maxUploadSize = 10 << 20 // 10 MiB
)

// Recorder persists uploads and analysis summaries. Persistence is
// best-effort: a recorder failure never fails the request.
type Recorder interface {
	SaveCompany(ctx context.Context, company store.Company) (string, error)
	SaveFiscalPeriods(ctx context.Context, companyID string, periods []domain.FiscalPeriod) error
	SaveAnalysis(ctx context.Context, companyID string, result domain.AnalysisResult) (string, error)
}

type Handler struct {
	engine   *tax.Engine
	analyzer *recovery.Analyzer
	recorder Recorder
}

// NewHandler wires the tax engine and the opportunity analyzer. recorder
// may be nil when the service runs without a database.
func NewHandler(engine *tax.Engine, analyzer *recovery.Analyzer, recorder Recorder) *Handler {
	return &Handler{
		engine:   engine,
		analyzer: analyzer,
		recorder: recorder,
	}
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, api.Status{
		Status:    "online",
		Service:   serviceName,
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req api.SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	sim := h.engine.SimulateRegimes(req.Revenue, req.Payroll, adapters.MapCostsApiToDomain(req.Costs))
	writeJSON(r.Context(), w, http.StatusOK, adapters.MapSimulationDomainToApi(sim))
}

func (h *Handler) Retentions(w http.ResponseWriter, r *http.Request) {
	var req api.RetentionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	cityRate := h.engine.CityISSRate()
	if req.CityISSRate != nil {
		cityRate = *req.CityISSRate
	}

	stmt := h.engine.RetentionsOnInvoice(req.ServiceValue, req.ProviderRegime, cityRate)
	writeJSON(r.Context(), w, http.StatusOK, adapters.MapRetentionsDomainToApi(stmt))
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req api.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	history := adapters.MapHistoryApiToDomain(req.History)
	h.runAnalysis(w, r, req.Company, history)
}

func (h *Handler) AnalyzeCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "invalid multipart form", "")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "missing file upload", "")
		return
	}
	defer file.Close()

	company := api.Company{
		Name:         r.FormValue("company_name"),
		CNPJ:         r.FormValue("cnpj"),
		Regime:       r.FormValue("regime"),
		ActivityCode: r.FormValue("activity_code"),
	}

	history, err := ingest.ParseHistory(file, domain.ParseRegime(company.Regime))
	if err != nil {
		if errors.Is(err, ingest.ErrMissingColumns) {
			writeError(r.Context(), w, http.StatusUnprocessableEntity, err.Error(), "")
			return
		}
		writeError(r.Context(), w, http.StatusBadRequest, "could not read CSV file", "")
		return
	}

	h.runAnalysis(w, r, company, history)
}

func (h *Handler) Template(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="modelo_dados_fiscais.csv"`)
	_, _ = w.Write(ingest.Template())
}

func (h *Handler) runAnalysis(w http.ResponseWriter, r *http.Request, company api.Company, history []domain.FiscalPeriod) {
	ctx := r.Context()

	result, err := h.analyzer.Analyze(history)
	if err != nil {
		var compErr *recovery.ComputationError
		if errors.As(err, &compErr) {
			writeError(ctx, w, http.StatusUnprocessableEntity, compErr.Error(), compErr.Period)
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, "analysis failed", "")
		return
	}

	h.record(ctx, company, history, result)
	writeJSON(ctx, w, http.StatusOK, adapters.MapAnalysisDomainToApi(result))
}

func (h *Handler) record(ctx context.Context, company api.Company, history []domain.FiscalPeriod, result domain.AnalysisResult) {
	if h.recorder == nil || company.CNPJ == "" {
		return
	}
	logger := zerolog.Ctx(ctx)

	companyID, err := h.recorder.SaveCompany(ctx, store.Company{
		CNPJ:         company.CNPJ,
		Name:         company.Name,
		Regime:       domain.ParseRegime(company.Regime).String(),
		ActivityCode: company.ActivityCode,
	})
	if err != nil {
		logger.Error().Err(err).Str("cnpj", company.CNPJ).Msg("failed to save company")
		return
	}

	if err := h.recorder.SaveFiscalPeriods(ctx, companyID, history); err != nil {
		logger.Error().Err(err).Str("company_id", companyID).Msg("failed to save fiscal periods")
	}
	if _, err := h.recorder.SaveAnalysis(ctx, companyID, result); err != nil {
		logger.Error().Err(err).Str("company_id", companyID).Msg("failed to save analysis run")
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message, period string) {
	writeJSON(ctx, w, status, api.Error{Error: message, Period: period})
}
