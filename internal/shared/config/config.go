package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config holds application configuration.
type Config struct {
	Port              string
	CORSAllowOrigin   []string
	Env               string
	Source            string
	DatabaseURL       string
	UpstreamBaseURL   string
	UpstreamToken     string
	UpstreamTimeout   time.Duration
	ObjectStoreType   string
	LocalStoreDir     string
	AWSRegion         string
	S3Bucket          string
	S3Prefix          string
	SSEKMSKeyID       string
	SlackBotToken     string
	SlackChannelID    string
	ExportSink        string
	ScheduleFile      string
	Timezone          string
	HistoryDateLayout string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	source := normalizeSource(getEnv("SOURCE", ""), dbURL)

	if env == "production" && source == "memory" {
		log.Printf("SOURCE=memory serves no data in production; set DATABASE_URL or UPSTREAM_BASE_URL")
	}

	return Config{
		Port:              getEnv("PORT", "8080"),
		CORSAllowOrigin:   splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		Env:               env,
		Source:            source,
		DatabaseURL:       dbURL,
		UpstreamBaseURL:   strings.TrimRight(getEnv("UPSTREAM_BASE_URL", ""), "/"),
		UpstreamToken:     getEnv("UPSTREAM_TOKEN", ""),
		UpstreamTimeout:   getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		ObjectStoreType:   normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:     getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:         getEnv("AWS_REGION", ""),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Prefix:          getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:       getEnv("SSE_KMS_KEY_ID", ""),
		SlackBotToken:     getEnv("SLACK_BOT_TOKEN", ""),
		SlackChannelID:    getEnv("SLACK_CHANNEL_ID", ""),
		ExportSink:        normalizeSink(getEnv("EXPORT_SINK", "store")),
		ScheduleFile:      getEnv("SCHEDULE_FILE", ""),
		Timezone:          getEnv("TIMEZONE", "UTC"),
		HistoryDateLayout: getEnv("HISTORY_DATE_LAYOUT", ""),
	}
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c Config) Location() *time.Location {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("invalid TIMEZONE %q, using UTC: %v", name, err)
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
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
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

// normalizeSource picks the annotation source. Without an explicit SOURCE a
// configured DATABASE_URL selects postgres.
func normalizeSource(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "api", "upstream":
		return "api"
	case "memory":
		return "memory"
	}
	if strings.TrimSpace(dbURL) != "" {
		return "postgres"
	}
	return "memory"
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeSink(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "slack":
		return "slack"
	case "none", "off":
		return "none"
	default:
		return "store"
	}
}
