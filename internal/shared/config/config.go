package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	DatabaseURL string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string

	OpenAIAPIKey   string
	AssistantModel string

	QACacheEnabled bool
	QACacheTTL     time.Duration
	QACacheSweep   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "3001"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		Env:             env,
		DatabaseURL:     dbURL,
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET_NAME", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AssistantModel:  getEnv("ASSISTANT_MODEL", "gpt-4-turbo-preview"),
		QACacheEnabled:  getEnvBool("QA_CACHE_ENABLED", true),
		QACacheTTL:      getEnvDuration("QA_CACHE_TTL", 24*time.Hour),
		QACacheSweep:    getEnvDuration("QA_CACHE_SWEEP_INTERVAL", time.Hour),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config env %s invalid bool: %v", key, err)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config env %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
