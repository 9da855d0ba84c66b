package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App  AppConfig
	FHIR FHIRConfig
	Ai   AIConfig
	Otel OtelConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	LLMTraceLogPath    string
	LLMTraceContent    bool
	CorsAllowedOrigins string
	NatsURL            string
	JwtSecret          string // empty disables auth on /api/ehr
}

type FHIRConfig struct {
	BaseURL          string
	Timeout          time.Duration
	ManifestPageSize int
	FetchPageSize    int
}

type AIConfig struct {
	LLMProvider       string // "openai" (llama-server, vLLM) or "ollama"
	LLMModel          string
	LLMBaseURL        string
	LLMAPIKey         string
	ModelTimeout      time.Duration
	ExtractionWorkers int
	StreamFlushDelay  time.Duration
}

type OtelConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8080"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			LLMTraceLogPath:    getEnv("LLM_TRACE_LOG_PATH", "logs/llm.log"),
			LLMTraceContent:    getEnv("LLM_TRACE_CONTENT", "false") == "true",
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		FHIR: FHIRConfig{
			BaseURL:          getEnv("FHIR_BASE_URL", "http://localhost:8080/fhir"),
			Timeout:          getEnvAsDuration("FHIR_TIMEOUT", 10*time.Second),
			ManifestPageSize: getEnvAsInt("FHIR_MANIFEST_PAGE_SIZE", 100),
			FetchPageSize:    getEnvAsInt("FHIR_FETCH_PAGE_SIZE", 50),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
			LLMModel:          getEnv("LLM_MODEL", "medgemma"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", "http://localhost:8081"),
			LLMAPIKey:         getEnv("LLM_API_KEY", ""),
			ModelTimeout:      getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
			ExtractionWorkers: getEnvAsInt("EXTRACTION_WORKERS", 4),
			StreamFlushDelay:  getEnvAsDuration("STREAM_FLUSH_DELAY", 50*time.Millisecond),
		},
		Otel: OtelConfig{
			Enabled:  getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
