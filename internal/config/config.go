package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kapu/student-insights-go/internal/constants"
	"github.com/kapu/student-insights-go/internal/service/table"
)

type Config struct {
	Data     DataConfig
	Sheets   SheetsConfig
	Postgres PostgresConfig
	LLM      LLMConfig
	Redis    RedisConfig
	Server   ServerConfig
	Logging  LoggingConfig
}

type DataConfig struct {
	Source       string
	Literal      string
	URL          string
	InferSchema  bool
	Path         string
	Header       string
	FetchTimeout time.Duration
}

type SheetsConfig struct {
	SpreadsheetID string
	Range         string
	APIKey        string
	AccessToken   string
}

type PostgresConfig struct {
	DSN   string
	Query string
}

type LLMConfig struct {
	Primary     string
	Fallback    string
	Temperature float32
	// CircuitBreaker enables the provider circuit breaker.
	CircuitBreaker bool

	GroqAPIKey  string
	GroqModel   string
	GroqBaseURL string

	OpenAIAPIKey string
	OpenAIModel  string

	GeminiAPIKey string
	GeminiModel  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

type LoggingConfig struct {
	Level string
	File  string
}

// Load reads the environment, after applying envFile when given or a .env
// in the working directory when present.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Data: DataConfig{
			Source:       strings.ToLower(getEnv("DATA_SOURCE", string(table.SourceLiteral))),
			Literal:      getEnv("DATA_LITERAL", ""),
			URL:          getEnv("DATA_URL", ""),
			InferSchema:  getEnvBool("DATA_INFER_SCHEMA", true),
			Path:         getEnv("DATA_PATH", ""),
			Header:       strings.ToLower(getEnv("DATA_HEADER", string(table.HeaderAuto))),
			FetchTimeout: getEnvSeconds("DATA_FETCH_TIMEOUT_SECONDS", constants.SourceConfig.FetchTimeout),
		},
		Sheets: SheetsConfig{
			SpreadsheetID: getEnv("SHEETS_SPREADSHEET_ID", ""),
			Range:         getEnv("SHEETS_RANGE", constants.SourceConfig.SheetRange),
			APIKey:        getEnv("SHEETS_API_KEY", ""),
			AccessToken:   getEnv("SHEETS_ACCESS_TOKEN", ""),
		},
		Postgres: PostgresConfig{
			DSN:   getEnv("POSTGRES_DSN", ""),
			Query: getEnv("POSTGRES_QUERY", ""),
		},
		LLM: LLMConfig{
			Primary:        strings.ToLower(getEnv("LLM_PRIMARY", "groq")),
			Fallback:       strings.ToLower(getEnv("LLM_FALLBACK", "")),
			Temperature:    getEnvFloat32("LLM_TEMPERATURE", 0),
			CircuitBreaker: getEnvBool("LLM_CIRCUIT_BREAKER", false),
			GroqAPIKey:     getEnv("GROQ_API_KEY", ""),
			GroqModel:      getEnv("GROQ_MODEL", constants.LLMDefaults.GroqModel),
			GroqBaseURL:    getEnv("GROQ_BASE_URL", constants.LLMDefaults.GroqBaseURL),
			OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:    getEnv("OPENAI_MODEL", constants.LLMDefaults.OpenAIModel),
			GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
			GeminiModel:    getEnv("GEMINI_MODEL", constants.LLMDefaults.GeminiModel),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("REDIS_TTL_MINUTES", int(constants.CacheTTL.SharedRows/time.Minute))) * time.Minute,
		},
		Server: ServerConfig{
			Addr:        getEnv("HTTP_ADDR", ":8501"),
			CORSOrigins: parseCommaSeparated(getEnv("CORS_ORIGINS", "")),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.SourceConfig().Validate(); err != nil {
		return err
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2")
	}
	switch c.LLM.Primary {
	case "groq", "openai", "gemini":
	default:
		return fmt.Errorf("LLM_PRIMARY must be one of groq, openai, gemini")
	}
	switch c.LLM.Fallback {
	case "", "groq", "openai", "gemini":
	default:
		return fmt.Errorf("LLM_FALLBACK must be empty or one of groq, openai, gemini")
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required when REDIS_ENABLED is set")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	return nil
}

// RequireLLM checks that the primary provider has credentials. Commands that
// only read the table skip it.
func (c *Config) RequireLLM() error {
	if c.apiKeyFor(c.LLM.Primary) == "" {
		return fmt.Errorf("an API key for LLM_PRIMARY=%s is required", c.LLM.Primary)
	}
	return nil
}

// SourceConfig maps the data settings onto the loader's source selection.
func (c *Config) SourceConfig() table.SourceConfig {
	return table.SourceConfig{
		Kind:              table.SourceKind(c.Data.Source),
		Literal:           c.Data.Literal,
		URL:               c.Data.URL,
		InferSchema:       c.Data.InferSchema || table.SourceKind(c.Data.Source) != table.SourceURL,
		Path:              c.Data.Path,
		SpreadsheetID:     c.Sheets.SpreadsheetID,
		Range:             c.Sheets.Range,
		SheetsAPIKey:      c.Sheets.APIKey,
		SheetsAccessToken: c.Sheets.AccessToken,
		PostgresDSN:       c.Postgres.DSN,
		PostgresQuery:     c.Postgres.Query,
		Header:            table.HeaderMode(c.Data.Header),
		FetchTimeout:      c.Data.FetchTimeout,
	}
}

func (c *Config) apiKeyFor(provider string) string {
	switch provider {
	case "groq":
		return c.LLM.GroqAPIKey
	case "openai":
		return c.LLM.OpenAIAPIKey
	case "gemini":
		return c.LLM.GeminiAPIKey
	default:
		return ""
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if seconds := getEnvInt(key, 0); seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
