package ai

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/kapu/student-insights-go/internal/constants"
	"github.com/kapu/student-insights-go/internal/util"
	"github.com/kapu/student-insights-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProvider struct {
	name    string
	text    string
	model   string
	err     error
	healthy bool

	mu    sync.Mutex
	calls []*GenerateOptions
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(_ context.Context, _ string, _ ModelPreset, opts *GenerateOptions) (ProviderResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.mu.Unlock()
	if f.err != nil {
		return ProviderResult{}, f.err
	}
	return ProviderResult{Text: f.text, Model: f.model}, nil
}

func (f *fakeProvider) Ping(context.Context) bool { return f.healthy }

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestGeneratePrimarySuccess(t *testing.T) {
	primary := &fakeProvider{name: "Groq", text: "summary", model: "llama"}
	fallback := &fakeProvider{name: "Gemini", text: "other"}
	mm := NewModelManagerWithProviders(primary, fallback, zap.NewNop())

	text, meta, err := mm.Generate(context.Background(), "prompt", PresetNarrative, nil)
	require.NoError(t, err)

	assert.Equal(t, "summary", text)
	assert.Equal(t, "Groq", meta.Provider)
	assert.Equal(t, "llama", meta.Model)
	assert.False(t, meta.UsedFallback)
	assert.Equal(t, 0, fallback.callCount())
}

func TestGenerateUsesFallback(t *testing.T) {
	primary := &fakeProvider{name: "Groq", err: stderrors.New("boom")}
	fallback := &fakeProvider{name: "Gemini", text: "from fallback", model: "flash"}
	mm := NewModelManagerWithProviders(primary, fallback, zap.NewNop())

	opts := &GenerateOptions{Model: "llama3-70b-8192"}
	text, meta, err := mm.Generate(context.Background(), "prompt", PresetNarrative, opts)
	require.NoError(t, err)

	assert.Equal(t, "from fallback", text)
	assert.Equal(t, "Gemini", meta.Provider)
	assert.True(t, meta.UsedFallback)

	require.Equal(t, 1, fallback.callCount())
	assert.Empty(t, fallback.calls[0].Model)
	assert.Equal(t, "llama3-70b-8192", opts.Model)
}

func TestGenerateBothFail(t *testing.T) {
	primary := &fakeProvider{name: "Groq", err: stderrors.New("boom")}
	fallback := &fakeProvider{name: "Gemini", err: stderrors.New("also boom")}
	mm := NewModelManagerWithProviders(primary, fallback, zap.NewNop())

	_, meta, err := mm.Generate(context.Background(), "prompt", PresetNarrative, nil)
	require.Error(t, err)
	assert.Nil(t, meta)
	assert.True(t, errors.IsUpstreamError(err))
	assert.Contains(t, err.Error(), "also boom")
}

func TestGenerateWithoutFallback(t *testing.T) {
	primary := &fakeProvider{name: "OpenAI", err: stderrors.New("invalid api key")}
	mm := NewModelManagerWithProviders(primary, nil, zap.NewNop())

	_, _, err := mm.Generate(context.Background(), "prompt", PresetNarrative, nil)
	require.Error(t, err)

	var upstream *errors.UpstreamServiceError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "OpenAI", upstream.Provider)
}

func TestServiceFailuresReachProviderWithoutBreaker(t *testing.T) {
	overloaded := stderrors.New("503 Service Unavailable: upstream overloaded")
	primary := &fakeProvider{name: "Groq", err: overloaded}
	mm := NewModelManagerWithProviders(primary, nil, zap.NewNop())

	for i := 0; i < 4; i++ {
		_, _, err := mm.Generate(context.Background(), "prompt", PresetNarrative, nil)
		require.Error(t, err)

		var upstream *errors.UpstreamServiceError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, "Groq", upstream.Provider)
		assert.ErrorIs(t, err, overloaded)
	}
	assert.Equal(t, 4, primary.callCount())
	assert.Nil(t, mm.GetCircuitStatus())
}

func TestOpenCircuitReportsLastUpstreamError(t *testing.T) {
	overloaded := stderrors.New("503 Service Unavailable: upstream overloaded")
	primary := &fakeProvider{name: "Groq", err: overloaded}
	mm := NewModelManagerWithProviders(primary, nil, zap.NewNop(), WithCircuitBreaker())

	threshold := constants.CircuitBreakerConfig.FailureThreshold
	for i := 0; i < threshold; i++ {
		_, _, err := mm.Generate(context.Background(), "prompt", PresetNarrative, nil)
		require.Error(t, err)
	}
	status := mm.GetCircuitStatus()
	require.NotNil(t, status)
	assert.Equal(t, util.CircuitStateOpen, status.State)
	assert.Equal(t, overloaded.Error(), status.LastError)

	_, _, err := mm.Generate(context.Background(), "prompt", PresetNarrative, nil)
	require.Error(t, err)
	assert.True(t, errors.IsUpstreamError(err))
	assert.Contains(t, err.Error(), "503 Service Unavailable: upstream overloaded")
	assert.ErrorIs(t, err, overloaded)
	assert.Equal(t, threshold, primary.callCount())
}

func TestClientErrorsDoNotTripCircuit(t *testing.T) {
	primary := &fakeProvider{name: "Groq", err: stderrors.New("400 bad request")}
	mm := NewModelManagerWithProviders(primary, nil, zap.NewNop(), WithCircuitBreaker())

	for i := 0; i < 5; i++ {
		_, _, _ = mm.Generate(context.Background(), "prompt", PresetNarrative, nil)
	}
	status := mm.GetCircuitStatus()
	require.NotNil(t, status)
	assert.Equal(t, util.CircuitStateClosed, status.State)
	assert.Equal(t, 5, primary.callCount())
}

func TestNewModelManagerCircuitBreakerIsOptIn(t *testing.T) {
	cfg := ModelManagerConfig{Primary: ProviderGroq, Groq: OpenAIProviderConfig{APIKey: "gsk-test"}}

	off, err := NewModelManager(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, off.GetCircuitStatus())

	cfg.CircuitBreaker = true
	on, err := NewModelManager(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, on.GetCircuitStatus())
	assert.Equal(t, util.CircuitStateClosed, on.GetCircuitStatus().State)
}

func TestPingAll(t *testing.T) {
	primary := &fakeProvider{name: "Groq", healthy: true}
	fallback := &fakeProvider{name: "Gemini", healthy: false}
	mm := NewModelManagerWithProviders(primary, fallback, zap.NewNop())

	assert.Equal(t, map[string]bool{"Groq": true, "Gemini": false}, mm.PingAll(context.Background()))
	assert.Equal(t, 0, primary.callCount())
	assert.Equal(t, "Groq", mm.PrimaryName())
}

func TestNewModelManagerRejectsUnknownProvider(t *testing.T) {
	_, err := NewModelManager(context.Background(), ModelManagerConfig{Primary: "claude"}, zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestNewModelManagerRequiresPrimaryKey(t *testing.T) {
	_, err := NewModelManager(context.Background(), ModelManagerConfig{Primary: ProviderGroq}, zap.NewNop())
	assert.Error(t, err)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		msg       string
		service   bool
		rateLimit bool
	}{
		{"context deadline exceeded", true, false},
		{"429 Too Many Requests", true, true},
		{`{"error":{"code":503}}`, true, false},
		{"502 Bad Gateway", true, false},
		{"401 Unauthorized", false, false},
		{"model not found", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := stderrors.New(tt.msg)
			assert.Equal(t, tt.service, isServiceFailure(err))
			assert.Equal(t, tt.rateLimit, isRateLimitError(err))
		})
	}
}

func TestResolveConfig(t *testing.T) {
	base := resolveConfig(PresetNarrative, nil)
	assert.Equal(t, float32(0), base.Temperature)
	assert.Equal(t, constants.LLMDefaults.MaxTokens, base.MaxOutputTokens)

	temp := float32(0.7)
	cfg := resolveConfig(PresetNarrative, &GenerateOptions{Overrides: &ModelOverrides{Temperature: &temp, MaxOutputTokens: 512}})
	assert.Equal(t, float32(0.7), cfg.Temperature)
	assert.Equal(t, 512, cfg.MaxOutputTokens)
	assert.Equal(t, float32(1), cfg.TopP)
}
