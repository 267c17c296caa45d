package ai

import "github.com/kapu/student-insights-go/internal/constants"

// ModelPreset represents the model usage preset
type ModelPreset string

const (
	// PresetNarrative is deterministic long-form text.
	PresetNarrative ModelPreset = "narrative"
	PresetPrecise   ModelPreset = "precise"
)

// ModelConfig holds sampling parameters shared by every provider.
type ModelConfig struct {
	Temperature     float32
	TopP            float32
	MaxOutputTokens int
}

// ModelOverrides replaces preset values. A nil field keeps the preset, so a
// temperature of zero can be requested explicitly.
type ModelOverrides struct {
	Temperature     *float32
	MaxOutputTokens int
}

// GenerateMetadata contains metadata about the generation
type GenerateMetadata struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	UsedFallback bool   `json:"used_fallback"`
}

// GenerateOptions holds options for AI generation
type GenerateOptions struct {
	Model     string
	Overrides *ModelOverrides
}

// GetPresetConfig returns the configuration for a preset
func GetPresetConfig(preset ModelPreset) ModelConfig {
	switch preset {
	case PresetPrecise:
		return ModelConfig{
			Temperature:     0.1,
			TopP:            0.9,
			MaxOutputTokens: 1024,
		}
	default:
		return ModelConfig{
			Temperature:     0,
			TopP:            1,
			MaxOutputTokens: constants.LLMDefaults.MaxTokens,
		}
	}
}

func resolveConfig(preset ModelPreset, opts *GenerateOptions) ModelConfig {
	config := GetPresetConfig(preset)
	if opts == nil || opts.Overrides == nil {
		return config
	}
	if opts.Overrides.Temperature != nil {
		config.Temperature = *opts.Overrides.Temperature
	}
	if opts.Overrides.MaxOutputTokens > 0 {
		config.MaxOutputTokens = opts.Overrides.MaxOutputTokens
	}
	return config
}
