package config

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// EnvPrefix is prepended to every recognized environment variable
const EnvPrefix = "EMAIL_WRITER_"

// DefaultGeminiBaseURL is the public Gemini API endpoint
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// Config holds all configuration for the application. It is loaded once at
// process start and treated as read-only afterwards.
type Config struct {
	GeminiAPIKey        string
	GeminiModel         string
	GeminiBaseURL       string
	FileSearchStoreName string // Must be set before generation works

	ServerHost string
	ServerPort int

	MsgInputDir string
	MDOutputDir string

	MaxContextLength int    // Max characters of mail body embedded in a prompt
	DefaultLanguage  string // Documentation only

	RequestsPerSecond float64 // Pacing for Gemini API calls, <= 0 disables
	TraceHTTP         bool    // Dump Gemini API requests/responses to stderr

	Version  string
	LogLevel string
}

// Load initializes and returns application configuration
func Load() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:       getEnv("GEMINI_BASE_URL", DefaultGeminiBaseURL),
		FileSearchStoreName: getEnv("FILE_SEARCH_STORE_NAME", ""),
		ServerHost:          getEnv("SERVER_HOST", "127.0.0.1"),
		ServerPort:          getEnvInt("SERVER_PORT", 8599),
		MsgInputDir:         getEnv("MSG_INPUT_DIR", "./data/msg_files"),
		MDOutputDir:         getEnv("MD_OUTPUT_DIR", "./data/converted_md"),
		MaxContextLength:    getEnvInt("MAX_CONTEXT_LENGTH", 8000),
		DefaultLanguage:     getEnv("DEFAULT_LANGUAGE", "ko"),
		RequestsPerSecond:   getEnvFloat("REQUESTS_PER_SECOND", 5),
		TraceHTTP:           getEnvBool("TRACE_HTTP", false),
		Version:             getEnv("VERSION", "1.0.0"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports missing required settings
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return fmt.Errorf("%sGEMINI_API_KEY is required", EnvPrefix)
	}
	return nil
}

// Address returns the host:port the HTTP service binds to
func (c *Config) Address() string {
	return net.JoinHostPort(c.ServerHost, strconv.Itoa(c.ServerPort))
}

// getEnv gets a prefixed environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets a prefixed environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a prefixed environment variable as float with a default fallback
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool gets a prefixed environment variable as boolean with a default fallback
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// SetupLogger configures zerolog with JSON output and single-line format
func (c *Config) SetupLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "emailwriter").
		Str("version", c.Version).
		Logger()

	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return logger
}
