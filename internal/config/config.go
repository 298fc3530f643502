// Package config handles loading, defaulting, and validation of the
// floorplan engine's TOML configuration file. Every section maps to a typed
// struct so the rest of the codebase gets strong typing without manual key
// lookups.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration, mirroring the TOML sections.
type Config struct {
	Server   ServerConfig   `toml:"server"   json:"server"`
	Data     DataConfig     `toml:"data"     json:"data"`
	Logging  LoggingConfig  `toml:"logging"  json:"logging"`
	GenAI    GenAIConfig    `toml:"genai"    json:"genai"`
	Pipeline PipelineConfig `toml:"pipeline" json:"pipeline"`
	Stream   StreamConfig   `toml:"stream"   json:"stream"`
}

type ServerConfig struct {
	Bind string `toml:"bind" json:"bind"`
}

type DataConfig struct {
	// Uploads is where original plan images are persisted and served from.
	Uploads string `toml:"uploads" json:"uploads"`
}

type LoggingConfig struct {
	Level string `toml:"level" json:"level"`
}

type GenAIConfig struct {
	// APIKeyEnv names the environment variable holding the API key, so the
	// key itself never lives in config files.
	APIKeyEnv      string  `toml:"api_key_env"     json:"api_key_env"`
	BaseURL        string  `toml:"base_url"        json:"base_url"`
	DetectModel    string  `toml:"detect_model"    json:"detect_model"`
	ImageModel     string  `toml:"image_model"     json:"image_model"`
	TimeoutSeconds int     `toml:"timeout_seconds" json:"timeout_seconds"`
	Temperature    float64 `toml:"temperature"     json:"temperature"`
	// Simulate selects the offline generator regardless of API key.
	Simulate bool `toml:"simulate" json:"simulate"`
}

type PipelineConfig struct {
	// ExpandPercent grows each detected box by this percentage of its own
	// size, half on each side, to compensate for under-cropped walls.
	ExpandPercent int `toml:"expand_percent" json:"expand_percent"`
	// InteriorShots is the number of eye-level views requested per room.
	// The model decides how many it actually returns.
	InteriorShots int `toml:"interior_shots" json:"interior_shots"`
}

type StreamConfig struct {
	// QueueSize bounds each viewer's delivery queue; overflow drops the
	// oldest queued event for that viewer only.
	QueueSize int `toml:"queue_size" json:"queue_size"`
}

// APIKey resolves the configured API key from the environment.
func (g GenAIConfig) APIKey() string {
	if g.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(g.APIKeyEnv)
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the TOML file omits a field.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "0.0.0.0:8080",
		},
		Data: DataConfig{
			Uploads: "/var/lib/floorplan/uploads",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		GenAI: GenAIConfig{
			APIKeyEnv:      "FLOORPLAN_API_KEY",
			BaseURL:        "https://generativelanguage.googleapis.com/v1beta",
			DetectModel:    "gemini-2.5-flash",
			ImageModel:     "gemini-2.5-flash-image-preview",
			TimeoutSeconds: 120,
			Temperature:    0.4,
			Simulate:       false,
		},
		Pipeline: PipelineConfig{
			ExpandPercent: 5,
			InteriorShots: 2,
		},
		Stream: StreamConfig{
			QueueSize: 512,
		},
	}
}

// Load reads the TOML file at path, layers it on top of the defaults, and
// validates the result. An error is returned if the file can't be read,
// parsed, or if any constraint is violated.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints on a configuration.
func Validate(cfg Config) error {
	if cfg.Server.Bind == "" {
		return errors.New("server.bind must not be empty")
	}
	if cfg.Data.Uploads == "" {
		return errors.New("data.uploads must not be empty")
	}
	if cfg.GenAI.DetectModel == "" || cfg.GenAI.ImageModel == "" {
		return errors.New("genai.detect_model and genai.image_model must not be empty")
	}
	if cfg.GenAI.TimeoutSeconds <= 0 {
		return errors.New("genai.timeout_seconds must be > 0")
	}
	if cfg.Pipeline.ExpandPercent < 0 || cfg.Pipeline.ExpandPercent > 100 {
		return errors.New("pipeline.expand_percent must be between 0 and 100")
	}
	if cfg.Pipeline.InteriorShots < 1 || cfg.Pipeline.InteriorShots > 8 {
		return errors.New("pipeline.interior_shots must be between 1 and 8")
	}
	if cfg.Stream.QueueSize < 0 {
		return errors.New("stream.queue_size must be >= 0")
	}
	return nil
}

// DefaultConfigDir is where named configuration profiles live.
func DefaultConfigDir() string {
	return "/etc/floorplan"
}

// ProfileInfo describes one named configuration profile on disk.
type ProfileInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ListProfiles returns the TOML profiles available in dir. A missing
// directory yields an empty list rather than an error.
func ListProfiles(dir string) ([]ProfileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var profiles []ProfileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		profiles = append(profiles, ProfileInfo{
			Name: strings.TrimSuffix(e.Name(), ".toml"),
			Path: filepath.Join(dir, e.Name()),
		})
	}
	return profiles, nil
}
