package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings established once at startup. The
// pipeline itself never mutates it.
type Config struct {
	// Object storage holding the CSV tables.
	Bucket string
	Prefix string

	// Text-generation model.
	ModelName  string
	LLMTimeout time.Duration

	// Where per-user report files are written.
	OutputDir string

	// Badger key-value store for assembled reports.
	BadgerPath string
	// When true the KV store keeps the report as a JSON string blob,
	// otherwise as a nested structure with decimal-encoded numbers.
	KVJSONString bool

	// Optional BigQuery run-audit trail. Empty project disables it.
	BigQueryProject string
	BigQueryDataset string

	// Optional service-account credentials file for GCP clients.
	// Application Default Credentials are used when empty.
	CredentialsFile string
}

// Load reads configuration from the environment, loading a .env file first
// if one is present. Only the bucket is mandatory; everything else has a
// working default.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Bucket:          os.Getenv("GCS_BUCKET"),
		Prefix:          getEnv("GCS_PREFIX", "notifi-dump/"),
		ModelName:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		LLMTimeout:      getDuration("LLM_TIMEOUT_SECONDS", 90*time.Second),
		OutputDir:       getEnv("OUTPUT_DIR", "output"),
		BadgerPath:      getEnv("BADGER_PATH", "data/reports"),
		KVJSONString:    getBool("KV_JSON_STRING", true),
		BigQueryProject: os.Getenv("BIGQUERY_PROJECT"),
		BigQueryDataset: getEnv("BIGQUERY_DATASET", "finance_recommender"),
		CredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("config: GCS_BUCKET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
