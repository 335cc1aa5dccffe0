package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// GameConfig holds the rule and pacing knobs read from data/game_config.json.
type GameConfig struct {
	RackSize int `json:"rack_size"`
	// StalemateThreshold is the number of consecutive scoreless moves after which
	// the acting player is offered to finish the game.
	StalemateThreshold int    `json:"stalemate_threshold"`
	BingoBonus         int    `json:"bingo_bonus"`
	BotMinDelayMillis  int    `json:"bot_min_delay_ms"`
	BotMaxDelayMillis  int    `json:"bot_max_delay_ms"`
	BotLevel           string `json:"bot_level"`
	// ResendAttempts bounds how often a snapshot whose broadcast failed is sent again.
	ResendAttempts      int `json:"resend_attempts"`
	ResendBackoffMillis int `json:"resend_backoff_ms"`
}

const (
	defaultRackSize           = 7
	defaultStalemateThreshold = 6
	defaultBingoBonus         = 50
	defaultBotMinDelay        = 400 * time.Millisecond
	defaultBotMaxDelay        = 1200 * time.Millisecond
	defaultBotLevel           = "greedy"
	defaultResendAttempts     = 3
	defaultResendBackoff      = 500 * time.Millisecond
)

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		var c GameConfig
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, nil before a successful load.
func GetGameConfig() *GameConfig {
	return cfg
}

// Rules returns the loaded configuration with every unset field defaulted.
// It is safe to call without a prior LoadGameConfig.
func Rules() GameConfig {
	var c GameConfig
	if cfg != nil {
		c = *cfg
	}
	return c.WithDefaults()
}

// WithDefaults fills zero fields with the standard values.
func (c GameConfig) WithDefaults() GameConfig {
	if c.RackSize <= 0 {
		c.RackSize = defaultRackSize
	}
	if c.StalemateThreshold <= 0 {
		c.StalemateThreshold = defaultStalemateThreshold
	}
	if c.BingoBonus <= 0 {
		c.BingoBonus = defaultBingoBonus
	}
	if c.BotMinDelayMillis <= 0 {
		c.BotMinDelayMillis = int(defaultBotMinDelay / time.Millisecond)
	}
	if c.BotMaxDelayMillis < c.BotMinDelayMillis {
		c.BotMaxDelayMillis = max(c.BotMinDelayMillis, int(defaultBotMaxDelay/time.Millisecond))
	}
	if c.BotLevel == "" {
		c.BotLevel = defaultBotLevel
	}
	// A negative value disables resending.
	if c.ResendAttempts == 0 {
		c.ResendAttempts = defaultResendAttempts
	}
	if c.ResendBackoffMillis <= 0 {
		c.ResendBackoffMillis = int(defaultResendBackoff / time.Millisecond)
	}
	return c
}

// BotDelay returns the configured thinking delay range for computer players.
func (c GameConfig) BotDelay() (time.Duration, time.Duration) {
	return time.Duration(c.BotMinDelayMillis) * time.Millisecond, time.Duration(c.BotMaxDelayMillis) * time.Millisecond
}

// ResendBackoff returns the delay before the first resend attempt.
func (c GameConfig) ResendBackoff() time.Duration {
	return time.Duration(c.ResendBackoffMillis) * time.Millisecond
}
