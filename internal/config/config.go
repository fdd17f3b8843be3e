package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds runtime settings for the screening service.
type Config struct {
	ListenAddr  string
	DatabaseDSN string
	LogLevel    string

	// Scoring defaults; callers may override per request.
	DefaultThreshold int
	DefaultLimit     int
	UsePhonetic      bool

	// Batch screening tuning.
	BatchChunkSize int
	BatchWorkers   int
}

// Load reads configuration from the environment (and an optional .env file).
func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("LISTEN_ADDR", ":8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DEFAULT_THRESHOLD", 85)
	viper.SetDefault("DEFAULT_LIMIT", 5)
	viper.SetDefault("USE_PHONETIC", true)
	viper.SetDefault("BATCH_CHUNK_SIZE", 500)
	viper.SetDefault("BATCH_WORKERS", 4)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("No config file found: %v", err)
	}

	return &Config{
		ListenAddr:       viper.GetString("LISTEN_ADDR"),
		DatabaseDSN:      viper.GetString("DATABASE_DSN"),
		LogLevel:         viper.GetString("LOG_LEVEL"),
		DefaultThreshold: viper.GetInt("DEFAULT_THRESHOLD"),
		DefaultLimit:     viper.GetInt("DEFAULT_LIMIT"),
		UsePhonetic:      viper.GetBool("USE_PHONETIC"),
		BatchChunkSize:   viper.GetInt("BATCH_CHUNK_SIZE"),
		BatchWorkers:     viper.GetInt("BATCH_WORKERS"),
	}
}
