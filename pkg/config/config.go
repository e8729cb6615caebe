package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Groq     GroqConfig
	Assembly AssemblyAIConfig
	Pipeline PipelineConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StorageConfig holds object storage configuration for report archival
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
	UseSSL          bool
}

// GroqConfig holds text-generation service configuration
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// AssemblyAIConfig holds real-time capture source configuration
type AssemblyAIConfig struct {
	APIKey     string
	SampleRate int
	Enabled    bool
}

// PipelineConfig holds every tunable of the real-time pipeline.
// Durations are expressed in call-relative seconds where the component
// compares against segment offsets.
type PipelineConfig struct {
	// Segment buffer window
	BufferHighWater int
	BufferLowWater  int

	// Context compression
	ChunkSeconds       float64
	CompressLookback   float64
	CompressInterval   time.Duration
	ContextTokenBudget int
	CharsPerToken      int
	RecentSegments     int

	// Sentiment
	SentimentHistory int
	TrendThreshold   float64
	DeepSentiment    bool

	// Metrics
	MetricsInterval    time.Duration
	MonologueThreshold float64

	// Nudges
	NudgeCooldown float64

	// Cue cards
	CueCooldown  float64
	DeepCueCards bool

	// Playbook
	DeepPlaybook bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  []string{getEnv("ALLOWED_ORIGINS", "http://localhost:3000")},
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "call_copilot"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "call-copilot"),
			PublicURL:       getEnv("STORAGE_PUBLIC_URL", ""),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
		},
		Groq: GroqConfig{
			APIKey:  getEnv("GROQ_API_KEY", ""),
			BaseURL: getEnv("GROQ_API_URL", "https://api.groq.com"),
			Model:   getEnv("GROQ_MODEL", "llama-3.1-70b-versatile"),
			Timeout: getEnvAsDuration("GROQ_TIMEOUT", "30s"),
		},
		Assembly: AssemblyAIConfig{
			APIKey:     getEnv("ASSEMBLYAI_API_KEY", ""),
			SampleRate: getEnvAsInt("ASSEMBLYAI_SAMPLE_RATE", 16000),
			Enabled:    getEnvAsBool("ASSEMBLYAI_ENABLED", false),
		},
		Pipeline: PipelineConfig{
			BufferHighWater:    getEnvAsInt("BUFFER_HIGH_WATER", 200),
			BufferLowWater:     getEnvAsInt("BUFFER_LOW_WATER", 100),
			ChunkSeconds:       getEnvAsFloat("CHUNK_SECONDS", 300),
			CompressLookback:   getEnvAsFloat("COMPRESS_LOOKBACK", 300),
			CompressInterval:   getEnvAsDuration("COMPRESS_INTERVAL", "5m"),
			ContextTokenBudget: getEnvAsInt("CONTEXT_TOKEN_BUDGET", 6000),
			CharsPerToken:      getEnvAsInt("CHARS_PER_TOKEN", 4),
			RecentSegments:     getEnvAsInt("RECENT_SEGMENTS", 20),
			SentimentHistory:   getEnvAsInt("SENTIMENT_HISTORY", 15),
			TrendThreshold:     getEnvAsFloat("TREND_THRESHOLD", 0.3),
			DeepSentiment:      getEnvAsBool("DEEP_SENTIMENT", false),
			MetricsInterval:    getEnvAsDuration("METRICS_INTERVAL", "15s"),
			MonologueThreshold: getEnvAsFloat("MONOLOGUE_THRESHOLD", 60),
			NudgeCooldown:      getEnvAsFloat("NUDGE_COOLDOWN", 120),
			CueCooldown:        getEnvAsFloat("CUE_COOLDOWN", 60),
			DeepCueCards:       getEnvAsBool("DEEP_CUE_CARDS", true),
			DeepPlaybook:       getEnvAsBool("DEEP_PLAYBOOK", true),
		},
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Pipeline.BufferLowWater >= c.Pipeline.BufferHighWater {
		return fmt.Errorf("BUFFER_LOW_WATER must be below BUFFER_HIGH_WATER")
	}
	if c.Pipeline.ChunkSeconds <= 0 {
		return fmt.Errorf("CHUNK_SECONDS must be positive")
	}
	if c.Pipeline.CharsPerToken <= 0 {
		return fmt.Errorf("CHARS_PER_TOKEN must be positive")
	}
	if c.Pipeline.ContextTokenBudget <= 0 {
		return fmt.Errorf("CONTEXT_TOKEN_BUDGET must be positive")
	}
	if c.Assembly.Enabled && c.Assembly.APIKey == "" {
		return fmt.Errorf("ASSEMBLYAI_API_KEY is required when ASSEMBLYAI_ENABLED is set")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
