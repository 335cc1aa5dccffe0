package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Settings are the process-level options of the scrabble binary.
type Settings struct {
	ListenAddr string
	HostURL    string
	// SessionSecret signs peer admission tokens.
	SessionSecret string
	RedisAddr     string
	StatsDriver   string
	StatsDSN      string

	DictionaryPath    string
	BotIdentitiesPath string
	GameConfigPath    string

	LogLevel string
	LogJSON  bool
}

// LoadSettings reads settings from the environment, after loading a .env file if present.
func LoadSettings() Settings {
	_ = godotenv.Load()

	s := Settings{
		ListenAddr:        getEnv("LISTEN_ADDR", ":7777"),
		HostURL:           getEnv("HOST_URL", "ws://localhost:7777/ws"),
		SessionSecret:     getEnv("SESSION_SECRET", "scrabble-dev-secret"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		StatsDriver:       strings.ToLower(getEnv("STATS_DRIVER", "memory")),
		StatsDSN:          os.Getenv("STATS_DSN"),
		DictionaryPath:    os.Getenv("DICTIONARY_PATH"),
		BotIdentitiesPath: getEnv("BOT_IDENTITIES_PATH", "data/bot_identities.json"),
		GameConfigPath:    getEnv("GAME_CONFIG_PATH", "data/game_config.json"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
	if v := os.Getenv("LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.LogJSON = b
		}
	}
	return s
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
