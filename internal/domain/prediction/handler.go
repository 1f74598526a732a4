package prediction

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rxguard/rxguard/internal/domain/riskcase"
)

// Handler exposes the predictor over HTTP. The caller assembles the case:
// drugs, pairwise interaction results, and patient attributes arrive in the
// request, and the handler never looks anything up itself.
type Handler struct {
	predictor *Predictor
}

func NewHandler(p *Predictor) *Handler {
	return &Handler{predictor: p}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/risk/check", h.CheckRisk)
	api.GET("/risk/model", h.ModelInfo)
}

// InteractionResult is one detected drug-pair interaction.
type InteractionResult struct {
	DrugA    string            `json:"drug_a"`
	DrugB    string            `json:"drug_b"`
	Severity riskcase.Severity `json:"severity"`
}

// CheckRequest is the upstream payload for a risk check.
type CheckRequest struct {
	DrugsChecked         []riskcase.DrugRef  `json:"drugs_checked"`
	Interactions         []InteractionResult `json:"interactions"`
	AllergyAlerts        []string            `json:"allergy_alerts"`
	PatientAge           int                 `json:"patient_age"`
	HasRenalImpairment   bool                `json:"has_renal_impairment"`
	HasHepaticImpairment bool                `json:"has_hepatic_impairment"`
	NumChronicConditions int                 `json:"num_chronic_conditions"`
}

// CaseRecord folds the pairwise interaction results into the per-tier
// severity summary the scorers consume.
func (r CheckRequest) CaseRecord() riskcase.CaseRecord {
	summary := make(map[riskcase.Severity]int, len(riskcase.Severities))
	for _, s := range riskcase.Severities {
		summary[s] = 0
	}
	for _, in := range r.Interactions {
		summary[in.Severity]++
	}
	return riskcase.CaseRecord{
		DrugsChecked:         r.DrugsChecked,
		SeveritySummary:      summary,
		AllergyAlerts:        r.AllergyAlerts,
		PatientAge:           r.PatientAge,
		HasRenalImpairment:   r.HasRenalImpairment,
		HasHepaticImpairment: r.HasHepaticImpairment,
		NumChronicConditions: r.NumChronicConditions,
	}
}

func (h *Handler) CheckRisk(c echo.Context) error {
	var req CheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.DrugsChecked) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "drugs_checked is required")
	}
	if req.PatientAge < 0 || req.PatientAge > riskcase.MaxPatientAge {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_age out of range")
	}
	for _, in := range req.Interactions {
		switch in.Severity {
		case riskcase.SeverityContraindicated, riskcase.SeveritySerious,
			riskcase.SeveritySignificant, riskcase.SeverityMinor:
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "unknown interaction severity")
		}
	}

	return c.JSON(http.StatusOK, h.predictor.Predict(req.CaseRecord()))
}

// ModelInfoResponse describes the currently loaded model, if any.
type ModelInfoResponse struct {
	State             State              `json:"state"`
	Version           string             `json:"model_version,omitempty"`
	TrainedAt         *time.Time         `json:"trained_at,omitempty"`
	Metrics           *Metrics           `json:"metrics,omitempty"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
}

func (h *Handler) ModelInfo(c echo.Context) error {
	resp := ModelInfoResponse{State: h.predictor.State()}
	if a := h.predictor.Current(); a != nil {
		resp.State = StateModelLoaded
		resp.Version = a.Version
		resp.TrainedAt = &a.TrainedAt
		resp.Metrics = &a.Metrics
		resp.FeatureImportance = a.FeatureImportance
	}
	return c.JSON(http.StatusOK, resp)
}
