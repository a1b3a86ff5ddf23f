package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DatabaseURL string
	WordPack    string
	LogLevel    string
}

// Load reads .env if present, then the environment. Every field has a
// working default; DatabaseURL empty means the builtin word corpus.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:        getenv("ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		WordPack:    os.Getenv("WORD_PACK"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
