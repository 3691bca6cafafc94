package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultModelHierarchy is the fallback order used when GROQ_MODEL_HIERARCHY
// is not set, best quality first.
var DefaultModelHierarchy = []string{
	"llama-3.3-70b-versatile",
	"meta-llama/llama-4-scout-17b-16e-instruct",
	"openai/gpt-oss-120b",
	"qwen/qwen3-32b",
	"llama-3.1-8b-instant",
}

const defaultSystemPrompt = `You are PrawnKing, a Messenger bot with an insanely humorous personality.

Personality:
- You LOVE making dad jokes and puns
- Friendly and genuinely helpful
- Keep responses SHORT - maximum 5 sentences

Rules:
- ALWAYS respond in the same language the user is using
- Answer any questions helpfully, but avoid sensitive topics
- NEVER make up facts - if you're unsure about something, say so honestly
- No markdown, but format your response nicely according to requests like coding
`

// Config contains all runtime settings for the relay service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	PageAccessToken string
	VerifyToken     string
	AppSecret       string
	GraphAPIBaseURL string

	GroqAPIKey     string
	GroqAPIURL     string
	ModelHierarchy []string
	SystemPrompt   string
	Temperature    float64
	MaxTokens      int
	RequestTimeout time.Duration

	MemoryMaxMessages int
	MemoryIdleTimeout time.Duration
	MessageCacheSize  int
	MessageStoreSize  int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "prawnking"),
		PageAccessToken:   stringsTrimSpace("PAGE_ACCESS_TOKEN"),
		VerifyToken:       stringsTrimSpace("VERIFY_TOKEN"),
		AppSecret:         stringsTrimSpace("APP_SECRET"),
		GraphAPIBaseURL:   envOrDefault("GRAPH_API_BASE_URL", "https://graph.facebook.com/v18.0"),
		GroqAPIKey:        stringsTrimSpace("GROQ_API_KEY"),
		GroqAPIURL:        envOrDefault("GROQ_API_URL", "https://api.groq.com/openai/v1/chat/completions"),
		SystemPrompt:      envOrDefault("GROQ_SYSTEM_PROMPT", defaultSystemPrompt),
		Temperature:       0.7,
		MaxTokens:         1000,
		RequestTimeout:    30 * time.Second,
		ShutdownTimeout:   15 * time.Second,
		MemoryMaxMessages: 40,
		MemoryIdleTimeout: 60 * time.Second,
		MessageCacheSize:  200,
		MessageStoreSize:  200,
	}

	cfg.ModelHierarchy = listFromEnv("GROQ_MODEL_HIERARCHY", DefaultModelHierarchy)

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.RequestTimeout, err = durationFromEnv("GROQ_REQUEST_TIMEOUT", cfg.RequestTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryIdleTimeout, err = durationFromEnv("MEMORY_IDLE_TIMEOUT", cfg.MemoryIdleTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.Temperature, err = floatFromEnv("GROQ_TEMPERATURE", cfg.Temperature)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxTokens, err = intFromEnv("GROQ_MAX_TOKENS", cfg.MaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryMaxMessages, err = intFromEnv("MEMORY_MAX_MESSAGES", cfg.MemoryMaxMessages)
	if err != nil {
		return Config{}, err
	}
	cfg.MessageCacheSize, err = intFromEnv("MESSAGE_CACHE_SIZE", cfg.MessageCacheSize)
	if err != nil {
		return Config{}, err
	}
	cfg.MessageStoreSize, err = intFromEnv("MESSAGE_STORE_SIZE", cfg.MessageStoreSize)
	if err != nil {
		return Config{}, err
	}

	if cfg.PageAccessToken == "" {
		return Config{}, fmt.Errorf("PAGE_ACCESS_TOKEN is required")
	}
	if cfg.VerifyToken == "" {
		return Config{}, fmt.Errorf("VERIFY_TOKEN is required")
	}
	if cfg.GroqAPIKey == "" {
		return Config{}, fmt.Errorf("GROQ_API_KEY is required")
	}
	if len(cfg.ModelHierarchy) == 0 {
		return Config{}, fmt.Errorf("GROQ_MODEL_HIERARCHY must name at least one model")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return Config{}, fmt.Errorf("GROQ_TEMPERATURE must be in [0, 2]")
	}
	if cfg.MaxTokens <= 0 {
		return Config{}, fmt.Errorf("GROQ_MAX_TOKENS must be positive")
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("GROQ_REQUEST_TIMEOUT must be positive")
	}
	if cfg.MemoryMaxMessages <= 0 {
		return Config{}, fmt.Errorf("MEMORY_MAX_MESSAGES must be positive")
	}
	if cfg.MemoryIdleTimeout <= 0 {
		return Config{}, fmt.Errorf("MEMORY_IDLE_TIMEOUT must be positive")
	}
	if cfg.MessageCacheSize <= 0 {
		return Config{}, fmt.Errorf("MESSAGE_CACHE_SIZE must be positive")
	}
	if cfg.MessageStoreSize <= 0 {
		return Config{}, fmt.Errorf("MESSAGE_STORE_SIZE must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func listFromEnv(key string, fallback []string) []string {
	raw := stringsTrimSpace(key)
	if raw == "" {
		out := make([]string, len(fallback))
		copy(out, fallback)
		return out
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}
