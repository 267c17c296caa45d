package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kapu/student-insights-go/internal/adapter"
	"github.com/kapu/student-insights-go/internal/constants"
	"github.com/kapu/student-insights-go/internal/domain"
	"github.com/kapu/student-insights-go/internal/service/insight"
	"github.com/kapu/student-insights-go/internal/service/selector"
	"github.com/kapu/student-insights-go/internal/util"
	"github.com/kapu/student-insights-go/pkg/errors"
	"go.uber.org/zap"
)

// AnalyzerService is the subset of insight.Analyzer the handlers use.
type AnalyzerService interface {
	AnalyzeWithID(ctx context.Context, requestID string, ids []string) (*insight.Result, error)
	Students(ctx context.Context) ([]string, []domain.RowIssue, error)
	Record(ctx context.Context, id string) (domain.Selection, []string, error)
	Reload(ctx context.Context) (*insight.TableSummary, error)
	Status(ctx context.Context) (*insight.TableSummary, error)
}

// ModelStatus reports on the text-generation backend. ai.ModelManager
// satisfies it.
type ModelStatus interface {
	PrimaryName() string
	GetCircuitStatus() *util.CircuitBreakerStatus
}

type DashboardHandler struct {
	analyzer AnalyzerService
	models   ModelStatus
	logger   *zap.Logger
}

// NewDashboardHandler wires the handlers. models may be nil when text
// generation is not configured.
func NewDashboardHandler(analyzer AnalyzerService, models ModelStatus, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{analyzer: analyzer, models: models, logger: logger}
}

type analyzeRequest struct {
	IDs []string `json:"ids"`
}

type studentsResponse struct {
	Students []string          `json:"students"`
	Issues   []domain.RowIssue `json:"issues"`
}

type llmStatus struct {
	Provider string                     `json:"provider"`
	Circuit  *util.CircuitBreakerStatus `json:"circuit,omitempty"`
}

type statusResponse struct {
	Table *insight.TableSummary `json:"table"`
	LLM   *llmStatus            `json:"llm,omitempty"`
}

type recordResponse struct {
	UserID  string                 `json:"user_id"`
	Columns []string               `json:"columns"`
	Records []domain.StudentRecord `json:"records"`
	Text    string                 `json:"text"`
}

func (h *DashboardHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *DashboardHandler) ListStudents(c *gin.Context) {
	ids, issues, err := h.analyzer.Students(c.Request.Context())
	if err != nil {
		respondAppError(c, err)
		return
	}
	RespondOK(c, studentsResponse{Students: ids, Issues: issues})
}

func (h *DashboardHandler) GetStudent(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	sel, columns, err := h.analyzer.Record(c.Request.Context(), id)
	if err != nil {
		respondAppError(c, err)
		return
	}
	if !sel.Found {
		RespondError(c, http.StatusNotFound, "NOT_FOUND", fmt.Errorf("%s", sel.Message))
		return
	}
	RespondOK(c, recordResponse{
		UserID:  id,
		Columns: columns,
		Records: sel.Records,
		Text:    adapter.FormatRecords(columns, sel.Records),
	})
}

func (h *DashboardHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, errors.CodeValidation, fmt.Errorf("invalid request body: %w", err))
		return
	}

	ids, err := cleanIDs(req.IDs)
	if err != nil {
		respondAppError(c, err)
		return
	}

	result, err := h.analyzer.AnalyzeWithID(c.Request.Context(), c.GetString(ctxKeyRequestID), ids)
	if err != nil {
		respondAppError(c, err)
		return
	}
	RespondOK(c, result)
}

func (h *DashboardHandler) ReloadTable(c *gin.Context) {
	summary, err := h.analyzer.Reload(c.Request.Context())
	if err != nil {
		respondAppError(c, err)
		return
	}
	RespondOK(c, summary)
}

func (h *DashboardHandler) Status(c *gin.Context) {
	summary, err := h.analyzer.Status(c.Request.Context())
	if err != nil {
		respondAppError(c, err)
		return
	}

	resp := statusResponse{Table: summary}
	if h.models != nil {
		resp.LLM = &llmStatus{
			Provider: h.models.PrimaryName(),
			Circuit:  h.models.GetCircuitStatus(),
		}
	}
	RespondOK(c, resp)
}

type pageData struct {
	Students  []string
	Selected  map[string]bool
	Issues    int
	Warning   string
	Error     string
	Result    *insight.Result
	Narrative template.HTML
}

func (h *DashboardHandler) Page(c *gin.Context) {
	h.renderPage(c, http.StatusOK, pageData{})
}

// AnalyzeForm handles the dashboard button. An empty selection shows the
// warning without calling the model.
func (h *DashboardHandler) AnalyzeForm(c *gin.Context) {
	ids := c.PostFormArray("ids")
	data := pageData{Selected: make(map[string]bool, len(ids))}
	for _, id := range ids {
		data.Selected[strings.TrimSpace(id)] = true
	}

	cleaned, err := cleanIDs(ids)
	if err != nil {
		data.Warning = err.Error()
		h.renderPage(c, http.StatusOK, data)
		return
	}

	result, err := h.analyzer.AnalyzeWithID(c.Request.Context(), c.GetString(ctxKeyRequestID), cleaned)
	if err != nil {
		data.Error = err.Error()
		h.renderPage(c, errors.StatusCode(err, http.StatusInternalServerError), data)
		return
	}

	data.Result = result
	if !result.Found {
		data.Warning = result.Text
	} else {
		// goldmark drops raw HTML from the model output.
		data.Narrative = template.HTML(result.HTML)
	}
	h.renderPage(c, http.StatusOK, data)
}

func (h *DashboardHandler) renderPage(c *gin.Context, status int, data pageData) {
	ids, issues, err := h.analyzer.Students(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list students for dashboard", zap.Error(err))
		data.Error = err.Error()
	}
	data.Students = ids
	data.Issues = len(issues)
	if data.Selected == nil {
		data.Selected = map[string]bool{}
	}
	c.HTML(status, "dashboard.html", data)
}

// cleanIDs drops blanks and enforces the per-request limit.
func cleanIDs(raw []string) ([]string, error) {
	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	if len(ids) == 0 {
		return nil, errors.NewValidationError(selector.MsgNoSelection, "ids", raw)
	}
	if max := constants.ServerConfig.MaxIDsPerRequest; len(ids) > max {
		return nil, errors.NewValidationError(fmt.Sprintf("at most %d students can be analyzed at once", max), "ids", len(ids))
	}
	return ids, nil
}
