// Package insight ties the table loader, the record selector and the
// narrative service into the single action both surfaces expose.
package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kapu/student-insights-go/internal/domain"
	"github.com/kapu/student-insights-go/internal/service/ai"
	"github.com/kapu/student-insights-go/internal/service/selector"
	"go.uber.org/zap"
)

type TableLoader interface {
	Load(ctx context.Context) (*domain.Table, error)
	Invalidate(ctx context.Context) error
}

type Summarizer interface {
	Summarize(ctx context.Context, table *domain.Table, sel domain.Selection) (*ai.Narrative, error)
}

// Result is the outcome of one analysis. When Found is false, Text holds the
// diagnostic message and no model call was made.
type Result struct {
	RequestID    string                 `json:"request_id"`
	Found        bool                   `json:"found"`
	Text         string                 `json:"text"`
	HTML         string                 `json:"html,omitempty"`
	Provider     string                 `json:"provider,omitempty"`
	Model        string                 `json:"model,omitempty"`
	UsedFallback bool                   `json:"used_fallback"`
	Missing      []string               `json:"missing"`
	Records      []domain.StudentRecord `json:"records,omitempty"`
}

// TableSummary describes the loaded table. Factors counts records per
// emotional-factor category; Attempted counts subject pairs with both sides.
type TableSummary struct {
	Source    string                        `json:"source"`
	Records   int                           `json:"records"`
	Students  int                           `json:"students"`
	Pairs     int                           `json:"pairs"`
	Issues    int                           `json:"issues"`
	Attempted int                           `json:"attempted_subjects"`
	Factors   map[domain.FactorCategory]int `json:"factors"`
	LoadedAt  time.Time                     `json:"loaded_at"`
}

type Analyzer struct {
	loader     TableLoader
	summarizer Summarizer
	logger     *zap.Logger
}

func NewAnalyzer(loader TableLoader, summarizer Summarizer, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		loader:     loader,
		summarizer: summarizer,
		logger:     logger,
	}
}

// Analyze selects the given students and summarizes them. A selection miss is
// a result, not an error.
func (a *Analyzer) Analyze(ctx context.Context, ids []string) (*Result, error) {
	return a.AnalyzeWithID(ctx, uuid.NewString(), ids)
}

// AnalyzeWithID is Analyze with a caller supplied request ID.
func (a *Analyzer) AnalyzeWithID(ctx context.Context, requestID string, ids []string) (*Result, error) {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := a.logger.With(zap.String("request_id", requestID))

	table, err := a.loader.Load(ctx)
	if err != nil {
		logger.Error("Failed to load student table", zap.Error(err))
		return nil, err
	}

	sel := selector.Select(ids, table)
	result := &Result{
		RequestID: requestID,
		Found:     sel.Found,
		Missing:   nonNil(sel.Missing),
		Records:   sel.Records,
	}

	if !sel.Found {
		logger.Info("No matching students",
			zap.Strings("requested", sel.Requested),
			zap.String("message", sel.Message))
		result.Text = sel.Message
		return result, nil
	}

	logger.Info("Analyzing students",
		zap.Strings("requested", sel.Requested),
		zap.Int("records", len(sel.Records)),
		zap.Int("missing", len(sel.Missing)),
		zap.Bool("multi", sel.Multi))

	if a.summarizer == nil {
		return nil, fmt.Errorf("text generation is not configured")
	}

	narrative, err := a.summarizer.Summarize(ctx, table, sel)
	if err != nil {
		logger.Error("Narrative generation failed", zap.Error(err))
		return nil, err
	}

	result.Text = narrative.Text
	result.HTML = narrative.HTML
	result.Provider = narrative.Metadata.Provider
	result.Model = narrative.Metadata.Model
	result.UsedFallback = narrative.Metadata.UsedFallback
	return result, nil
}

// Students lists distinct identifiers in table order.
func (a *Analyzer) Students(ctx context.Context) ([]string, []domain.RowIssue, error) {
	table, err := a.loader.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return table.IDs(), nonNilIssues(table.Issues), nil
}

// Record returns the single-student selection for id, including the miss
// message when nothing matches.
func (a *Analyzer) Record(ctx context.Context, id string) (domain.Selection, []string, error) {
	table, err := a.loader.Load(ctx)
	if err != nil {
		return domain.Selection{}, nil, err
	}
	return selector.SelectOne(id, table), table.Columns, nil
}

// Status summarizes the current table, loading it if needed.
func (a *Analyzer) Status(ctx context.Context) (*TableSummary, error) {
	table, err := a.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(table), nil
}

// Reload drops the cached table and reads the source again.
func (a *Analyzer) Reload(ctx context.Context) (*TableSummary, error) {
	if err := a.loader.Invalidate(ctx); err != nil {
		a.logger.Warn("Table cache invalidation incomplete", zap.Error(err))
	}

	table, err := a.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	return summarize(table), nil
}

func summarize(table *domain.Table) *TableSummary {
	summary := &TableSummary{
		Source:   table.Source,
		Records:  len(table.Records),
		Students: len(table.IDs()),
		Pairs:    table.Pairs,
		Issues:   len(table.Issues),
		Factors:  make(map[domain.FactorCategory]int),
		LoadedAt: table.LoadedAt,
	}
	for _, rec := range table.Records {
		summary.Attempted += len(rec.AttemptedSubjects())
		summary.Factors[domain.ClassifyFactor(rec.EmotionalFactors)]++
	}
	return summary
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilIssues(s []domain.RowIssue) []domain.RowIssue {
	if s == nil {
		return []domain.RowIssue{}
	}
	return s
}
