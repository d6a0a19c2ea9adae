// Package config loads runtime settings from homeward.cfg.json and
// HOMEWARD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/talgya/homeward/internal/engine"
	"github.com/talgya/homeward/internal/world"
)

// FileName is the config file looked up in the config directory.
const FileName = "homeward.cfg.json"

// APIConfig holds HTTP surface settings.
type APIConfig struct {
	Port           int
	CORSOrigins    []string
	TrustedProxies []string // IPs or CIDRs allowed to set X-Forwarded-For
}

// JournalConfig holds session journal settings.
type JournalConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from the JSON file in configDir and sets default
// values. A missing file is not an error; defaults apply.
func Load(configDir string) error {
	setDefaults()

	viper.SetEnvPrefix("HOMEWARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

func setDefaults() {
	gen := world.DefaultGenConfig()

	viper.SetDefault("logLevel", "info")

	viper.SetDefault("world.width", gen.Width)
	viper.SetDefault("world.height", gen.Height)
	viper.SetDefault("world.waterLevel", gen.WaterLevel)
	viper.SetDefault("world.minWalkable", gen.MinWalkable)
	viper.SetDefault("world.maxAttempts", gen.MaxAttempts)
	viper.SetDefault("world.seed", gen.Seed)
	viper.SetDefault("world.tileSize", world.DefaultTileSize)
	viper.SetDefault("world.maxResample", world.DefaultMaxResample)

	viper.SetDefault("noise.octaves", gen.Noise.Octaves)
	viper.SetDefault("noise.scale", gen.Noise.Scale)
	viper.SetDefault("noise.persistence", gen.Noise.Persistence)

	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.corsOrigins", []string{})
	viper.SetDefault("api.trustedProxies", []string{})

	viper.SetDefault("journal.enabled", true)
	viper.SetDefault("journal.path", "data/homeward.db")
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetSessionConfig returns the island generation and session settings.
func GetSessionConfig() engine.SessionConfig {
	return engine.SessionConfig{
		Gen: world.GenConfig{
			Width:       viper.GetInt("world.width"),
			Height:      viper.GetInt("world.height"),
			WaterLevel:  viper.GetFloat64("world.waterLevel"),
			MinWalkable: viper.GetInt("world.minWalkable"),
			MaxAttempts: viper.GetInt("world.maxAttempts"),
			Seed:        viper.GetInt64("world.seed"),
			Noise: world.NoiseParams{
				Octaves:     viper.GetInt("noise.octaves"),
				Scale:       viper.GetFloat64("noise.scale"),
				Persistence: viper.GetFloat64("noise.persistence"),
			},
		},
		TileSize:    viper.GetFloat64("world.tileSize"),
		MaxResample: viper.GetInt("world.maxResample"),
	}
}

// GetAPIConfig returns the HTTP surface settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		Port:           viper.GetInt("api.port"),
		CORSOrigins:    viper.GetStringSlice("api.corsOrigins"),
		TrustedProxies: viper.GetStringSlice("api.trustedProxies"),
	}
}

// GetJournalConfig returns the session journal settings.
func GetJournalConfig() JournalConfig {
	return JournalConfig{
		Enabled: viper.GetBool("journal.enabled"),
		Path:    viper.GetString("journal.path"),
	}
}
