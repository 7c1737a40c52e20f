package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/open-solucoes/gtia/pkg/models/api"
	"github.com/open-solucoes/gtia/pkg/models/domain"
	"github.com/open-solucoes/gtia/pkg/models/store"
	"github.com/open-solucoes/gtia/pkg/services/recovery"
	"github.com/open-solucoes/gtia/pkg/services/tax"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) SaveCompany(ctx context.Context, company store.Company) (string, error) {
	args := m.Called(ctx, company)
	return args.String(0), args.Error(1)
}

func (m *mockRecorder) SaveFiscalPeriods(ctx context.Context, companyID string, periods []domain.FiscalPeriod) error {
	args := m.Called(ctx, companyID, periods)
	return args.Error(0)
}

func (m *mockRecorder) SaveAnalysis(ctx context.Context, companyID string, result domain.AnalysisResult) (string, error) {
	args := m.Called(ctx, companyID, result)
	return args.String(0), args.Error(1)
}

func setupHandler(recorder Recorder) *Handler {
	engine := tax.NewEngine(tax.DefaultSettings())
	analyzer := recovery.NewAnalyzer(engine, recovery.DefaultSettings())
	return NewHandler(engine, analyzer, recorder)
}

func TestStatus(t *testing.T) {
	h := setupHandler(nil)

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	rec := httptest.NewRecorder()

	h.Status(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response api.Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "online", response.Status)
	assert.Equal(t, serviceName, response.Service)
	assert.False(t, response.Timestamp.IsZero())
}

func TestSimulate(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		check          func(t *testing.T, response api.SimulationResponse)
	}{
		{
			name:           "aggregated costs",
			body:           `{"revenue": 100000, "payroll": 20000, "costs": 40000}`,
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, response api.SimulationResponse) {
				assert.Equal(t, "Simples Nacional", response.Recommendation)
				assert.Equal(t, "10000.00", response.Results["Simples Nacional"])
				assert.Equal(t, "21530.00", response.Results["Lucro Presumido"])
				assert.Equal(t, "33875.00", response.Results["Lucro Real"])
				assert.Equal(t, "23875.00", response.Savings)
			},
		},
		{
			name: "detailed costs produce credits",
			body: `{"revenue": 2000000, "payroll": 400000, "costs": {
				"energia_eletrica": 100000, "insumos_diretos": 800000,
				"aluguel_predios": 100000, "outros": 100000}}`,
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, response api.SimulationResponse) {
				assert.Equal(t, "92500.00", response.CreditsFound)
				assert.Equal(t, "Simples Nacional", response.Recommendation)
			},
		},
		{
			name:           "malformed body",
			body:           `{"revenue": `,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupHandler(nil)

			req := httptest.NewRequest("POST", "/api/v1/simulate", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Simulate(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.check != nil {
				var response api.SimulationResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
				tt.check(t, response)
			}
		})
	}
}

func TestRetentions(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedLiquid string
		expectedISS    string
	}{
		{
			name:           "default city rate",
			body:           `{"service_value": 10000, "provider_regime": "Lucro Presumido"}`,
			expectedLiquid: "7785.00",
			expectedISS:    "500.00",
		},
		{
			name:           "explicit city rate",
			body:           `{"service_value": 10000, "provider_regime": "Lucro Presumido", "city_iss_rate": 2}`,
			expectedLiquid: "8085.00",
			expectedISS:    "200.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupHandler(nil)

			req := httptest.NewRequest("POST", "/api/v1/retentions", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Retentions(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)

			var response api.RetentionsResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
			assert.Equal(t, tt.expectedLiquid, response.TotalLiquid)
			assert.Equal(t, tt.expectedISS, response.Retentions[domain.RetentionISS])
		})
	}
}

func TestAnalyze(t *testing.T) {
	body := `{
		"company": {"name": "ACME", "cnpj": "12.345.678/0001-90", "regime": "Lucro Presumido"},
		"history": [{
			"period": "01/2025", "revenue": 200000, "payroll": 50000,
			"paid_amount": 25000, "paid_regime": "Lucro Presumido",
			"costs": {"energia_eletrica": 5000, "insumos_diretos": 80000}
		}]
	}`

	recorder := new(mockRecorder)
	recorder.On("SaveCompany", mock.Anything, mock.MatchedBy(func(c store.Company) bool {
		return c.CNPJ == "12.345.678/0001-90" && c.Regime == "Lucro Presumido"
	})).Return("comp-1", nil)
	recorder.On("SaveFiscalPeriods", mock.Anything, "comp-1", mock.Anything).Return(nil)
	recorder.On("SaveAnalysis", mock.Anything, "comp-1", mock.Anything).Return("run-1", nil)

	h := setupHandler(recorder)

	req := httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Analyze(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response api.AnalysisResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "6679.00", response.TotalSavings)
	require.Len(t, response.Opportunities, 3)
	assert.Equal(t, string(domain.OpportunityRegimeMismatch), response.Opportunities[0].Type)
	assert.Equal(t, "01/2025 a 01/2025", response.PeriodRange)

	recorder.AssertExpectations(t)
}

func TestAnalyze_RecorderFailureDoesNotFailRequest(t *testing.T) {
	body := `{
		"company": {"name": "ACME", "cnpj": "12.345.678/0001-90", "regime": "Lucro Presumido"},
		"history": [{"period": "01/2025", "revenue": 100000, "payroll": 20000,
			"paid_amount": 12000, "paid_regime": "Lucro Presumido"}]
	}`

	recorder := new(mockRecorder)
	recorder.On("SaveCompany", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("connection refused"))

	h := setupHandler(recorder)

	req := httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Analyze(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	recorder.AssertExpectations(t)
}

func TestAnalyze_NoCNPJSkipsPersistence(t *testing.T) {
	body := `{"company": {"name": "ACME"}, "history": []}`

	recorder := new(mockRecorder)
	h := setupHandler(recorder)

	req := httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Analyze(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	recorder.AssertNotCalled(t, "SaveCompany", mock.Anything, mock.Anything)
}

func buildCSVUpload(t *testing.T, csvContent string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "dados.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvContent))
	require.NoError(t, err)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestAnalyzeCSV(t *testing.T) {
	csvContent := "Periodo (MM/AAAA);Faturamento Total;Custo Folha Pagamento;Impostos Pagos\n" +
		"01/2025;100000,00;20000,00;12000,00\n"
	body, contentType := buildCSVUpload(t, csvContent, map[string]string{
		"company_name": "ACME",
		"cnpj":         "12.345.678/0001-90",
		"regime":       "lucro_presumido",
	})

	recorder := new(mockRecorder)
	recorder.On("SaveCompany", mock.Anything, mock.Anything).Return("comp-1", nil)
	recorder.On("SaveFiscalPeriods", mock.Anything, "comp-1", mock.Anything).Return(nil)
	recorder.On("SaveAnalysis", mock.Anything, "comp-1", mock.Anything).Return("run-1", nil)

	h := setupHandler(recorder)

	req := httptest.NewRequest("POST", "/api/v1/analyze/csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.AnalyzeCSV(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response api.AnalysisResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "01/2025 a 01/2025", response.PeriodRange)
	recorder.AssertExpectations(t)
}

func TestAnalyzeCSV_MissingColumns(t *testing.T) {
	body, contentType := buildCSVUpload(t, "Foo;Bar\n1;2\n", nil)

	h := setupHandler(nil)

	req := httptest.NewRequest("POST", "/api/v1/analyze/csv", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.AnalyzeCSV(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAnalyzeCSV_MissingFile(t *testing.T) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("company_name", "ACME"))
	require.NoError(t, writer.Close())

	h := setupHandler(nil)

	req := httptest.NewRequest("POST", "/api/v1/analyze/csv", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	h.AnalyzeCSV(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTemplate(t *testing.T) {
	h := setupHandler(nil)

	req := httptest.NewRequest("GET", "/api/v1/analyze/template", nil)
	rec := httptest.NewRecorder()

	h.Template(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), "Periodo (MM/AAAA)")
}
