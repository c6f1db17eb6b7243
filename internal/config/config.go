// Package config loads chessbot settings from the XDG config file, .env
// files and CHESSBOT_* environment variables, in increasing priority.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/hailam/chessbot/internal/engine"
)

const cfgFile = "chessbot/config.json"

// Environment variables that override the config file.
const (
	EnvEnginePath    = "CHESSBOT_ENGINE_PATH"
	EnvLogLevel      = "CHESSBOT_LOG_LEVEL"
	EnvHTTPAddr      = "CHESSBOT_HTTP_ADDR"
	EnvDataDir       = "CHESSBOT_DATA_DIR"
	EnvFallbackDepth = "CHESSBOT_FALLBACK_DEPTH"
)

// InvalidConfig reports a setting that failed validation.
type InvalidConfig struct {
	Field  string
	Reason string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// EngineConfig describes the external UCI engine. An empty Path disables it
// and external difficulty labels fall back to the local search.
type EngineConfig struct {
	Path               string   `json:"path"`
	Args               []string `json:"args,omitempty"`
	HandshakeTimeoutMS int      `json:"handshake_timeout_ms"`
	GraceMS            int      `json:"grace_ms"`
}

func (e EngineConfig) HandshakeTimeout() time.Duration {
	return time.Duration(e.HandshakeTimeoutMS) * time.Millisecond
}

func (e EngineConfig) Grace() time.Duration {
	return time.Duration(e.GraceMS) * time.Millisecond
}

// SearchConfig tunes the local engine. Zero values keep the built-in
// defaults.
type SearchConfig struct {
	FallbackDepth  int    `json:"fallback_depth"`
	Seed           uint64 `json:"seed,omitempty"`
	PieceValues    []int  `json:"piece_values,omitempty"`
	CaptureScale   int    `json:"capture_scale,omitempty"`
	PromotionBonus int    `json:"promotion_bonus,omitempty"`
	CheckBonus     int    `json:"check_bonus,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type HTTPConfig struct {
	Addr string `json:"addr"`
}

type Config struct {
	Engine  EngineConfig `json:"engine"`
	Search  SearchConfig `json:"search"`
	Log     LogConfig    `json:"log"`
	HTTP    HTTPConfig   `json:"http"`
	DataDir string       `json:"data_dir,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			HandshakeTimeoutMS: 5000,
			GraceMS:            2000,
		},
		Search: SearchConfig{FallbackDepth: engine.DefaultDepth},
		Log:    LogConfig{Level: "info", Format: "console"},
		HTTP:   HTTPConfig{Addr: ":8080"},
	}
}

// Load reads the config file found in the XDG config directories, if any,
// then applies envFiles (".env" when none are given, ignored if missing)
// and the process environment.
func Load(envFiles ...string) (*Config, error) {
	path, err := xdg.SearchConfigFile(cfgFile)
	if err != nil {
		path = ""
	}
	return LoadFile(path, envFiles...)
}

// LoadFile is Load with an explicit config file; an empty path means none.
func LoadFile(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	getenv, err := readEnv(envFiles)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readEnv merges the dotenv files under the process environment, which
// wins on conflicts.
func readEnv(files []string) (func(string) string, error) {
	optional := len(files) == 0
	if optional {
		files = []string{".env"}
	}
	vals := map[string]string{}
	for _, f := range files {
		m, err := godotenv.Read(f)
		if err != nil {
			if optional && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: read %s: %w", f, err)
		}
		maps.Copy(vals, m)
	}
	return func(k string) string {
		if v, ok := os.LookupEnv(k); ok {
			return v
		}
		return vals[k]
	}, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvEnginePath); v != "" {
		c.Engine.Path = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvHTTPAddr); v != "" {
		c.HTTP.Addr = v
	}
	if v := getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := getenv(EnvFallbackDepth); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return &InvalidConfig{Field: EnvFallbackDepth, Reason: fmt.Sprintf("not a number: %q", v)}
		}
		c.Search.FallbackDepth = d
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return &InvalidConfig{Field: "log.level", Reason: err.Error()}
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return &InvalidConfig{Field: "log.format", Reason: fmt.Sprintf("%q is not console or json", c.Log.Format)}
	}
	if d := c.Search.FallbackDepth; d < 1 || d > 8 {
		return &InvalidConfig{Field: "search.fallback_depth", Reason: fmt.Sprintf("%d is outside 1..8", d)}
	}
	if n := len(c.Search.PieceValues); n != 0 && n != 6 {
		return &InvalidConfig{Field: "search.piece_values", Reason: fmt.Sprintf("want 6 values, got %d", n)}
	}
	for _, v := range c.Search.PieceValues {
		if v <= 0 {
			return &InvalidConfig{Field: "search.piece_values", Reason: "values must be positive"}
		}
	}
	if c.Search.CaptureScale < 0 || c.Search.PromotionBonus < 0 || c.Search.CheckBonus < 0 {
		return &InvalidConfig{Field: "search", Reason: "ordering bonuses must not be negative"}
	}
	if c.Engine.HandshakeTimeoutMS <= 0 {
		return &InvalidConfig{Field: "engine.handshake_timeout_ms", Reason: "must be positive"}
	}
	if c.Engine.GraceMS < 0 {
		return &InvalidConfig{Field: "engine.grace_ms", Reason: "must not be negative"}
	}
	if c.HTTP.Addr == "" {
		return &InvalidConfig{Field: "http.addr", Reason: "empty"}
	}
	return nil
}

// EvalParams applies the configured piece values to the default
// evaluation parameters.
func (c *Config) EvalParams() engine.EvalParams {
	p := engine.DefaultEvalParams()
	for i, v := range c.Search.PieceValues {
		p.PieceValues[i] = engine.Score(v)
	}
	return p
}

// OrderParams applies the configured ordering bonuses to the defaults.
func (c *Config) OrderParams() engine.OrderParams {
	p := engine.DefaultOrderParams()
	if c.Search.CaptureScale > 0 {
		p.CaptureScale = c.Search.CaptureScale
	}
	if c.Search.PromotionBonus > 0 {
		p.PromotionBonus = c.Search.PromotionBonus
	}
	if c.Search.CheckBonus > 0 {
		p.CheckBonus = c.Search.CheckBonus
	}
	return p
}

// Save writes c to the user's XDG config file.
func (c *Config) Save() (string, error) {
	path, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	return path, c.SaveFile(path)
}

func (c *Config) SaveFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
