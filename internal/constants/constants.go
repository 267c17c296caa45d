package constants

import "time"

var CacheTTL = struct {
	SharedRows time.Duration
}{
	SharedRows: 30 * time.Minute, // raw rows of remote sources
}

var SourceConfig = struct {
	FetchTimeout time.Duration
	UserAgent    string
	SheetRange   string
}{
	FetchTimeout: 15 * time.Second,
	UserAgent:    "student-insights/1.0",
	SheetRange:   "A:ZZ",
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}

// CircuitBreakerConfig applies only when LLM_CIRCUIT_BREAKER is set.
var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	RateLimitTimeout time.Duration
}{
	FailureThreshold: 3,
	ResetTimeout:     30 * time.Second,
	RateLimitTimeout: 10 * time.Minute, // 429 from the provider
}

var LLMDefaults = struct {
	GroqBaseURL string
	GroqModel   string
	OpenAIModel string
	GeminiModel string
	MaxTokens   int
	Timeout     time.Duration
	PingTimeout time.Duration
}{
	GroqBaseURL: "https://api.groq.com/openai/v1",
	GroqModel:   "llama3-70b-8192",
	OpenAIModel: "gpt-4.1-mini",
	GeminiModel: "gemini-2.5-flash",
	MaxTokens:   2048,
	Timeout:     60 * time.Second,
	PingTimeout: 10 * time.Second,
}

var ServerConfig = struct {
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	MaxIDsPerRequest  int
}{
	ReadHeaderTimeout: 10 * time.Second,
	ShutdownTimeout:   10 * time.Second,
	MaxIDsPerRequest:  50,
}
