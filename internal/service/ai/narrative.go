package ai

import (
	"context"
	"time"

	"github.com/kapu/student-insights-go/internal/adapter"
	"github.com/kapu/student-insights-go/internal/domain"
	"github.com/kapu/student-insights-go/internal/prompt"
	"github.com/kapu/student-insights-go/internal/util"
	"github.com/kapu/student-insights-go/pkg/errors"
	"go.uber.org/zap"
)

// Generator is the text-generation boundary. ModelManager satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string, preset ModelPreset, opts *GenerateOptions) (string, *GenerateMetadata, error)
}

// Narrative is one generated summary.
type Narrative struct {
	Text     string
	HTML     string
	Context  string
	Metadata GenerateMetadata
	Elapsed  time.Duration
}

type NarrativeService struct {
	generator   Generator
	builder     *prompt.PromptBuilder
	temperature float32
	logger      *zap.Logger
}

func NewNarrativeService(generator Generator, temperature float32, logger *zap.Logger) *NarrativeService {
	return &NarrativeService{
		generator:   generator,
		builder:     prompt.DefaultPromptBuilder(),
		temperature: temperature,
		logger:      logger,
	}
}

// Summarize renders the selected records as plain text and asks the model
// for a strengths, opportunities and challenges narrative. Multi selections
// use the comparative template.
func (s *NarrativeService) Summarize(ctx context.Context, table *domain.Table, sel domain.Selection) (*Narrative, error) {
	if table == nil || !sel.Found || len(sel.Records) == 0 {
		return nil, errors.NewValidationError("no student records to summarize", "ids", "")
	}

	recordText := adapter.FormatRecords(table.Columns, sel.Records)
	data := prompt.NewNarrativePromptData(recordText, table.Pairs)

	text, err := s.builder.Render(prompt.NarrativeTemplate(sel.Multi), data)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Narrative prompt rendered",
		zap.Bool("multi", sel.Multi),
		zap.Int("records", len(sel.Records)),
		zap.String("preview", util.TruncateString(text, 120)),
	)

	start := time.Now()
	temperature := s.temperature
	output, meta, err := s.generator.Generate(ctx, text, PresetNarrative, &GenerateOptions{
		Overrides: &ModelOverrides{Temperature: &temperature},
	})
	if err != nil {
		if errors.IsUpstreamError(err) {
			return nil, err
		}
		return nil, errors.NewUpstreamServiceError("text generation failed", "", err)
	}

	narrative := &Narrative{
		Text:    adapter.CleanMarkdown(output),
		Context: recordText,
		Elapsed: time.Since(start),
	}
	if meta != nil {
		narrative.Metadata = *meta
	}

	html, err := adapter.RenderMarkdown(narrative.Text)
	if err != nil {
		s.logger.Warn("Narrative markdown rendering failed", zap.Error(err))
	} else {
		narrative.HTML = html
	}

	s.logger.Info("Narrative generated",
		zap.String("provider", narrative.Metadata.Provider),
		zap.String("model", narrative.Metadata.Model),
		zap.Bool("used_fallback", narrative.Metadata.UsedFallback),
		zap.Int("length", len(narrative.Text)),
		zap.Duration("elapsed", narrative.Elapsed),
	)

	return narrative, nil
}
