// Package config centralises all environment configuration for the AI service.
// It should be imported only by `cmd/server` (and test code). Business-logic
// layers receive an already-built Config instance via dependency-injection.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime option the server needs.
// Keep it flat and simple—prefer primitive types over embedding structs.
type Config struct {
	// Network
	Port string

	// Data stores
	MongoURI  string
	DBName    string
	RedisAddr string
	RedisDB   int

	// Vertex AI
	ProjectID       string
	Location        string
	CredentialsFile string
	GenerativeModel string
	EmbeddingModel  string

	// Priority rules
	RulesPath string

	// Server tuning
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// LLMTimeout bounds a single generative call on the fan-out paths.
	LLMTimeout time.Duration
}

// Load parses the environment (and an optional .env file) into Config.
// It terminates the process on missing critical variables so
// mis-configurations fail fast.
func Load() Config {
	// godotenv.Load() is a no-op if .env doesn't exist—safe in production.
	_ = godotenv.Load()

	return Config{
		Port:            getEnv("PORT", "8000"),
		MongoURI:        must("MONGODB_URI"),
		DBName:          getEnv("MONGODB_DB", "ottereview_ai"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:         getInt("REDIS_DB", 0),
		ProjectID:       must("GCP_PROJECT_ID"),
		Location:        getEnv("GCP_LOCATION", "us-central1"),
		CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GenerativeModel: getEnv("GENERATIVE_MODEL", "gemini-2.0-flash-lite-001"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-005"),
		RulesPath:       getEnv("PRIORITY_RULES_PATH", ""),
		ReadTimeout:     getDuration("READ_TIMEOUT_SEC", 5),
		WriteTimeout:    getDuration("WRITE_TIMEOUT_SEC", 30),
		LLMTimeout:      getDuration("LLM_TIMEOUT_SEC", 45),
	}
}

// must fetches a required env var or terminates the program.
func must(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("env var %s is required", key)
	}
	return val
}

// getEnv returns env[key] if set, otherwise defaultVal.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getInt reads an integer from env, falling back to defaultVal.
func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("invalid %s=%q; using default %d", key, v, defaultVal)
	}
	return defaultVal
}

// getDuration reads an integer (seconds) from env, falling back to defaultSec.
func getDuration(key string, defaultSec int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			return time.Duration(sec) * time.Second
		}
		log.Printf("invalid %s=%q; using default %ds", key, v, defaultSec)
	}
	return time.Duration(defaultSec) * time.Second
}
