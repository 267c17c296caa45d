package ai

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/kapu/student-insights-go/internal/constants"
	"github.com/kapu/student-insights-go/internal/util"
	"github.com/kapu/student-insights-go/pkg/errors"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

var (
	statusRegex     = regexp.MustCompile(`\b(5\d{2})\b`)
	geminiCodeRegex = regexp.MustCompile(`"code":(\d{3})`)
	openaiCodeRegex = regexp.MustCompile(`^(\d{3})\s`)
)

// ModelManager sends prompts to the primary provider and retries once on the
// fallback when the primary fails. The circuit breaker is off unless enabled;
// without it every action reaches a provider.
type ModelManager struct {
	primary        TextProvider
	fallback       TextProvider
	logger         *zap.Logger
	circuitBreaker *util.CircuitBreaker
}

type ModelManagerConfig struct {
	Primary  string
	Fallback string

	// CircuitBreaker stops calling providers after repeated service failures
	// and reports the last upstream error until the cool-down passes.
	CircuitBreaker bool

	Groq        OpenAIProviderConfig
	OpenAI      OpenAIProviderConfig
	GeminiKey   string
	GeminiModel string
}

func NewModelManager(ctx context.Context, cfg ModelManagerConfig, logger *zap.Logger) (*ModelManager, error) {
	primary, err := buildProvider(ctx, cfg.Primary, cfg, logger)
	if err != nil {
		return nil, err
	}
	if primary == nil {
		return nil, fmt.Errorf("primary provider %q has no API key", cfg.Primary)
	}

	var fallback TextProvider
	if cfg.Fallback != "" && cfg.Fallback != cfg.Primary {
		fallback, err = buildProvider(ctx, cfg.Fallback, cfg, logger)
		if err != nil {
			return nil, err
		}
		if fallback == nil {
			logger.Info("Fallback provider disabled (no API key)", zap.String("provider", cfg.Fallback))
		} else {
			logger.Info("Fallback provider enabled", zap.String("provider", fallback.Name()))
		}
	}

	var opts []ManagerOption
	if cfg.CircuitBreaker {
		opts = append(opts, WithCircuitBreaker())
	}
	return NewModelManagerWithProviders(primary, fallback, logger, opts...), nil
}

type ManagerOption func(*ModelManager)

// WithCircuitBreaker guards the providers with the configured threshold and
// cool-down.
func WithCircuitBreaker() ManagerOption {
	return func(mm *ModelManager) {
		mm.circuitBreaker = util.NewCircuitBreaker(
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			mm.logger,
		)
	}
}

// NewModelManagerWithProviders wires already built providers. fallback may be nil.
func NewModelManagerWithProviders(primary, fallback TextProvider, logger *zap.Logger, opts ...ManagerOption) *ModelManager {
	mm := &ModelManager{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(mm)
	}
	return mm
}

// buildProvider returns a nil provider when the named backend has no key.
func buildProvider(ctx context.Context, name string, cfg ModelManagerConfig, logger *zap.Logger) (TextProvider, error) {
	switch util.Normalize(name) {
	case ProviderGroq:
		groq := cfg.Groq
		if groq.Name == "" {
			groq.Name = "Groq"
		}
		if groq.BaseURL == "" {
			groq.BaseURL = constants.LLMDefaults.GroqBaseURL
		}
		if groq.Model == "" {
			groq.Model = constants.LLMDefaults.GroqModel
		}
		if groq.Timeout == 0 {
			groq.Timeout = constants.LLMDefaults.Timeout
		}
		if p := NewOpenAIProvider(groq, logger); p != nil {
			return p, nil
		}
		return nil, nil
	case ProviderOpenAI:
		oa := cfg.OpenAI
		if oa.Model == "" {
			oa.Model = constants.LLMDefaults.OpenAIModel
		}
		if oa.Timeout == 0 {
			oa.Timeout = constants.LLMDefaults.Timeout
		}
		if p := NewOpenAIProvider(oa, logger); p != nil {
			return p, nil
		}
		return nil, nil
	case ProviderGemini:
		if cfg.GeminiKey == "" {
			return nil, nil
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		model := cfg.GeminiModel
		if model == "" {
			model = constants.LLMDefaults.GeminiModel
		}
		return NewGeminiProvider(client, model, logger), nil
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unknown LLM provider %q", name), "LLM_PRIMARY", name)
	}
}

// Generate returns the text of the first provider that answers.
func (mm *ModelManager) Generate(ctx context.Context, prompt string, preset ModelPreset, opts *GenerateOptions) (string, *GenerateMetadata, error) {
	if mm.circuitBreaker != nil && !mm.circuitBreaker.Allow() {
		status := mm.circuitBreaker.Status()
		mm.logger.Warn("Circuit open, not calling provider",
			zap.Int("failure_count", status.FailureCount),
			zap.String("last_error", status.LastError),
		)
		return "", nil, errors.NewUpstreamServiceError("text generation failed", mm.primary.Name(), mm.circuitBreaker.LastError())
	}

	primaryResult, primaryErr := mm.primary.Generate(ctx, prompt, preset, opts)
	if primaryErr == nil {
		mm.recordSuccess()
		return primaryResult.Text, &GenerateMetadata{
			Provider: mm.primary.Name(),
			Model:    primaryResult.Model,
		}, nil
	}

	if mm.fallback != nil {
		mm.logger.Warn("Primary provider failed, trying fallback",
			zap.String("primary", mm.primary.Name()),
			zap.String("fallback", mm.fallback.Name()),
			zap.Error(primaryErr),
		)

		// The fallback has its own default model.
		fallbackOpts := opts
		if opts != nil && opts.Model != "" {
			copied := *opts
			copied.Model = ""
			fallbackOpts = &copied
		}

		fallbackResult, fallbackErr := mm.fallback.Generate(ctx, prompt, preset, fallbackOpts)
		if fallbackErr == nil {
			mm.recordSuccess()
			return fallbackResult.Text, &GenerateMetadata{
				Provider:     mm.fallback.Name(),
				Model:        fallbackResult.Model,
				UsedFallback: true,
			}, nil
		}

		mm.recordFailure(fallbackErr)

		return "", nil, errors.NewUpstreamServiceError("text generation failed", mm.fallback.Name(), fallbackErr)
	}

	mm.recordFailure(primaryErr)

	return "", nil, errors.NewUpstreamServiceError("text generation failed", mm.primary.Name(), primaryErr)
}

func (mm *ModelManager) recordSuccess() {
	if mm.circuitBreaker != nil {
		mm.circuitBreaker.RecordSuccess()
	}
}

// recordFailure only counts service failures. A client error means the
// provider answered, so it closes the circuit like a success.
func (mm *ModelManager) recordFailure(err error) {
	if mm.circuitBreaker == nil {
		return
	}
	if !isServiceFailure(err) {
		mm.circuitBreaker.RecordSuccess()
		return
	}

	cooldown := constants.CircuitBreakerConfig.ResetTimeout
	if isRateLimitError(err) {
		cooldown = constants.CircuitBreakerConfig.RateLimitTimeout
	}

	mm.circuitBreaker.RecordFailure(err, cooldown)
}

// PingAll reports reachability per provider name. Providers answer with a
// model lookup, so no text is generated.
func (mm *ModelManager) PingAll(ctx context.Context) map[string]bool {
	providers := []TextProvider{mm.primary}
	if mm.fallback != nil {
		providers = append(providers, mm.fallback)
	}

	var (
		mu      sync.Mutex
		results = make(map[string]bool, len(providers))
		wg      conc.WaitGroup
	)
	for _, p := range providers {
		wg.Go(func() {
			ok := p.Ping(ctx)
			mu.Lock()
			results[p.Name()] = ok
			mu.Unlock()
		})
	}
	wg.Wait()

	return results
}

func (mm *ModelManager) PrimaryName() string {
	return mm.primary.Name()
}

// GetCircuitStatus reports the breaker state; nil when the breaker is off.
func (mm *ModelManager) GetCircuitStatus() *util.CircuitBreakerStatus {
	if mm.circuitBreaker == nil {
		return nil
	}
	status := mm.circuitBreaker.Status()
	return &status
}

func isServiceFailure(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "connection refused") {
		return true
	}

	if isRateLimitError(err) {
		return true
	}

	if statusRegex.MatchString(msg) {
		return true
	}

	if code, ok := statusCode(msg); ok {
		return code >= 500 && code < 600
	}

	return false
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	if strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "rate_limit") || strings.Contains(msg, "quota") {
		return true
	}

	if code, ok := statusCode(msg); ok {
		return code == 429
	}

	return false
}

func statusCode(msg string) (int, bool) {
	for _, re := range []*regexp.Regexp{geminiCodeRegex, openaiCodeRegex} {
		if matches := re.FindStringSubmatch(msg); len(matches) > 1 {
			if code, err := strconv.Atoi(matches[1]); err == nil {
				return code, true
			}
		}
	}
	return 0, false
}
