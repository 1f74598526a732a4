package prediction

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func setupHandler(t *testing.T) (*echo.Echo, *Predictor) {
	t.Helper()
	e := echo.New()
	p := NewPredictor(filepath.Join(t.TempDir(), "risk_model.gob"), zerolog.Nop())
	NewHandler(p).RegisterRoutes(e.Group("/api/v1"))
	return e, p
}

const checkPayload = `{
	"drugs_checked": [
		{"drug_id": "DRUG_0", "drug_name": "Warfarin"},
		{"drug_id": "DRUG_1", "drug_name": "Aspirin"}
	],
	"interactions": [
		{"drug_a": "DRUG_0", "drug_b": "DRUG_1", "severity": "CONTRAINDICATED"}
	],
	"allergy_alerts": [],
	"patient_age": 30
}`

func TestCheckRisk_FallbackMode(t *testing.T) {
	e, _ := setupHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/check", strings.NewReader(checkPayload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Source != SourceRuleBased {
		t.Errorf("expected rule_based source, got %s", res.Source)
	}
	if res.RiskScore != 30 {
		t.Errorf("expected risk score 30, got %v", res.RiskScore)
	}
	if res.RiskCategory != RiskModerate {
		t.Errorf("expected moderate category, got %s", res.RiskCategory)
	}
	if len(res.ContributingFactors) == 0 {
		t.Error("expected contributing factors for a contraindicated interaction")
	}
	if res.MLAvailable {
		t.Error("expected ml_available false without a trained model")
	}
}

func TestCheckRisk_LearnedModelMode(t *testing.T) {
	e, p := setupHandler(t)
	if _, err := p.Train(trainingCorpus(200)); err != nil {
		t.Fatalf("train: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/check", strings.NewReader(checkPayload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Source != SourceLearnedModel {
		t.Errorf("expected learned_model source, got %s", res.Source)
	}
	if res.ModelVersion != "v1" {
		t.Errorf("expected model version v1, got %s", res.ModelVersion)
	}
	if !res.MLAvailable {
		t.Error("expected ml_available true after training")
	}
}

func TestCheckRisk_RejectsEmptyDrugs(t *testing.T) {
	e, _ := setupHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/check",
		strings.NewReader(`{"drugs_checked": [], "patient_age": 30}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty drug list, got %d", rec.Code)
	}
}

func TestCheckRisk_RejectsAgeBeyondDomain(t *testing.T) {
	e, _ := setupHandler(t)

	payload := `{
		"drugs_checked": [{"drug_id": "DRUG_0", "drug_name": "Warfarin"}],
		"patient_age": 121
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/check", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for patient_age above domain maximum, got %d", rec.Code)
	}
}

func TestCheckRisk_RejectsUnknownSeverity(t *testing.T) {
	e, _ := setupHandler(t)

	payload := `{
		"drugs_checked": [{"drug_id": "DRUG_0", "drug_name": "Warfarin"}],
		"interactions": [{"drug_a": "DRUG_0", "drug_b": "DRUG_1", "severity": "FATAL"}],
		"patient_age": 30
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/check", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown severity, got %d", rec.Code)
	}
}

func TestModelInfo(t *testing.T) {
	e, p := setupHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/risk/model", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var info ModelInfoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.State != StateNoModel {
		t.Errorf("expected no_model state, got %s", info.State)
	}
	if info.Version != "" {
		t.Errorf("expected no version before training, got %s", info.Version)
	}

	if _, err := p.Train(trainingCorpus(200)); err != nil {
		t.Fatalf("train: %v", err)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/risk/model", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.State != StateModelLoaded || info.Version != "v1" {
		t.Errorf("expected model_loaded v1, got %s %s", info.State, info.Version)
	}
	if info.Metrics == nil || info.Metrics.TestSamples == 0 {
		t.Error("expected metrics in model info after training")
	}
}

func TestCheckRequest_AssemblesSeveritySummary(t *testing.T) {
	var req CheckRequest
	if err := json.Unmarshal([]byte(checkPayload), &req); err != nil {
		t.Fatal(err)
	}
	req.Interactions = append(req.Interactions,
		InteractionResult{DrugA: "DRUG_0", DrugB: "DRUG_1", Severity: "MINOR"},
		InteractionResult{DrugA: "DRUG_1", DrugB: "DRUG_0", Severity: "MINOR"},
	)

	c := req.CaseRecord()
	if c.SeverityCount("CONTRAINDICATED") != 1 {
		t.Errorf("expected 1 contraindicated, got %d", c.SeverityCount("CONTRAINDICATED"))
	}
	if c.SeverityCount("MINOR") != 2 {
		t.Errorf("expected 2 minor, got %d", c.SeverityCount("MINOR"))
	}
	if c.SeverityCount("SERIOUS") != 0 {
		t.Errorf("expected 0 serious, got %d", c.SeverityCount("SERIOUS"))
	}
}
