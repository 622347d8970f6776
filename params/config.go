package params

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type API struct {
	// ListenAddr is the REST/WebSocket bind address.
	ListenAddr string
}

type Journal struct {
	// Path is the pebble trade journal directory.
	Path string
}

type Feed struct {
	// Brokers enables the Kafka trade feed when non-empty.
	Brokers []string
	Topic   string
}

type Log struct {
	Level string
	// File tees logs to a file when set; stdout only otherwise.
	File string
}

type Config struct {
	API     API
	Journal Journal
	Feed    Feed
	Log     Log
	// Pairs lists the markets opened at startup, as BASE-QUOTE symbols.
	Pairs []string
}

func Default() Config {
	return Config{
		API:     API{ListenAddr: ":8080"},
		Journal: Journal{Path: "data/journal"},
		Feed:    Feed{Topic: "trades"},
		Log:     Log{Level: "info"},
		Pairs:   []string{"BTC-USDT", "ETH-USDT"},
	}
}

// LoadFromEnv loads configuration from a .env file (if it exists) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// The .env file is optional.
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.API.ListenAddr = getEnv("API_LISTEN_ADDR", cfg.API.ListenAddr)
	cfg.Journal.Path = getEnv("JOURNAL_PATH", cfg.Journal.Path)
	cfg.Feed.Topic = getEnv("KAFKA_TOPIC", cfg.Feed.Topic)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Feed.Brokers = splitList(brokers)
	}
	if pairs := os.Getenv("PAIRS"); pairs != "" {
		cfg.Pairs = splitList(pairs)
	}

	return cfg
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
