// Package config loads database configuration files.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/dball/topograph/internal/database"
	"github.com/dball/topograph/internal/store"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrUnknownFormat      = errors.New("unknown config file format")
	ErrPathRequired       = errors.New("path is required for persistent engines")
	ErrInvalidDegree      = errors.New("degree must be at least 2")
	ErrInvalidLogLevel    = errors.New("log level must be debug, info, warn, or error")
	ErrInvalidLogFormat   = errors.New("log format must be text or json")
)

// Config holds all configuration options.
type Config struct {
	Engine     string `json:"engine,omitempty" yaml:"engine,omitempty" toml:"engine"`
	Path       string `json:"path,omitempty" yaml:"path,omitempty" toml:"path"`
	SyncWrites bool   `json:"sync_writes,omitempty" yaml:"sync_writes,omitempty" toml:"sync_writes"`
	Degree     int    `json:"degree,omitempty" yaml:"degree,omitempty" toml:"degree"`
	AttrsSize  int    `json:"attrs_size,omitempty" yaml:"attrs_size,omitempty" toml:"attrs_size"`
	IdentsSize int    `json:"idents_size,omitempty" yaml:"idents_size,omitempty" toml:"idents_size"`
	LogLevel   string `json:"log_level,omitempty" yaml:"log_level,omitempty" toml:"log_level"`
	LogFormat  string `json:"log_format,omitempty" yaml:"log_format,omitempty" toml:"log_format"`

	// Source is the path of the loaded config file, if any.
	Source string `json:"-" yaml:"-" toml:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Engine:     "memory",
		Degree:     64,
		AttrsSize:  256,
		IdentsSize: 1024,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// Load merges the config file at path over the defaults. An empty path loads the
// defaults. A relative store path is resolved against the config file's directory.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return Config{}, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
	}
	fileCfg, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}
	if fileCfg.Path != "" && !filepath.IsAbs(fileCfg.Path) {
		fileCfg.Path = filepath.Join(filepath.Dir(path), fileCfg.Path)
	}
	cfg = mergeConfig(cfg, fileCfg)
	cfg.Source = path
	err = Validate(cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}
	return cfg, nil
}

// Parse decodes a config of the format named by the file extension, rejecting unknown
// fields.
func Parse(ext string, data []byte) (cfg Config, err error) {
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		var standardized []byte
		standardized, err = hujson.Standardize(data)
		if err != nil {
			err = fmt.Errorf("invalid JSONC: %w", err)
			return
		}
		decoder := json.NewDecoder(bytes.NewReader(standardized))
		decoder.DisallowUnknownFields()
		err = decoder.Decode(&cfg)
		if err != nil {
			err = fmt.Errorf("invalid JSON: %w", err)
		}
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		err = decoder.Decode(&cfg)
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if err != nil {
			err = fmt.Errorf("invalid YAML: %w", err)
		}
	case ".toml":
		var md toml.MetaData
		md, err = toml.Decode(string(data), &cfg)
		if err != nil {
			err = fmt.Errorf("invalid TOML: %w", err)
			return
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			err = fmt.Errorf("invalid TOML: unknown field %q", undecoded[0].String())
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	return
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Engine != "" {
		base.Engine = overlay.Engine
	}
	if overlay.Path != "" {
		base.Path = overlay.Path
	}
	if overlay.SyncWrites {
		base.SyncWrites = true
	}
	if overlay.Degree != 0 {
		base.Degree = overlay.Degree
	}
	if overlay.AttrsSize != 0 {
		base.AttrsSize = overlay.AttrsSize
	}
	if overlay.IdentsSize != 0 {
		base.IdentsSize = overlay.IdentsSize
	}
	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}
	if overlay.LogFormat != "" {
		base.LogFormat = overlay.LogFormat
	}
	return base
}

// Validate ensures the config can open a database.
func Validate(cfg Config) error {
	switch cfg.Engine {
	case "", "memory":
	case "badger":
	case "leveldb", "bolt":
		if cfg.Path == "" {
			return fmt.Errorf("%w: %s", ErrPathRequired, cfg.Engine)
		}
	default:
		return fmt.Errorf("%w: %q", store.ErrUnknownEngine, cfg.Engine)
	}
	if cfg.Degree < 2 {
		return ErrInvalidDegree
	}
	if _, ok := logLevels[cfg.LogLevel]; !ok {
		return ErrInvalidLogLevel
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return ErrInvalidLogFormat
	}
	return nil
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Logger returns a logger writing to w at the configured level and format.
func (cfg Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevels[cfg.LogLevel]}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Database returns the database config, logging to the logger.
func (cfg Config) Database(logger *slog.Logger) database.Config {
	return database.Config{
		Degree:     cfg.Degree,
		AttrsSize:  cfg.AttrsSize,
		IdentsSize: cfg.IdentsSize,
		Logger:     logger,
		Store: store.Config{
			Engine:     cfg.Engine,
			Path:       cfg.Path,
			SyncWrites: cfg.SyncWrites,
			Degree:     cfg.Degree,
			Logger:     logger,
		},
	}
}
