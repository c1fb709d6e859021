// Package config manages v2gsim daemon configuration using koanf/v2.
//
// Supports YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete v2gsim configuration.
type Config struct {
	Listen  ListenConfig  `koanf:"listen"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
	Session SessionConfig `koanf:"session"`
	EVSE    EVSEConfig    `koanf:"evse"`
}

// ListenConfig holds the V2GTP TCP listener configuration.
type ListenConfig struct {
	// Addr is the TCP listen address (e.g., ":15118").
	Addr string `koanf:"addr"`
}

// MetricsConfig holds the Prometheus/introspection HTTP endpoint
// configuration. The same HTTP server answers /metrics and the
// /v1/sessions introspection surface (spec §4.7).
type MetricsConfig struct {
	// Addr is the HTTP listen address (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the Prometheus endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// SessionConfig holds the default per-session parameters (spec §4.3/§9
// Open Questions i and ii). ReadWindow, DataLinkDelay and TransportDelay
// map directly onto session.Config; this type exists so the values can be
// loaded/validated/overridden the way the teacher does it, before being
// handed to session.New as a plain session.Config value.
type SessionConfig struct {
	// ReadWindow bounds a single transport read (spec Open Question ii).
	ReadWindow int `koanf:"read_window"`

	// DataLinkDelay is the first graceful-stop delay.
	DataLinkDelay time.Duration `koanf:"data_link_delay"`

	// TransportDelay is the second graceful-stop delay.
	TransportDelay time.Duration `koanf:"transport_delay"`

	// SupportedProtocols lists application-protocol URNs in priority
	// order. It is loaded and validated as non-empty, but v2gsimd does not
	// pass it to the SAP handshake state: that state always offers the
	// fixed table in internal/secc (ISO 15118-2, then DIN SPEC 70121).
	SupportedProtocols []string `koanf:"supported_protocols"`
}

// EVSEConfig holds the identity this SECC presents during SessionSetup
// (spec §4.6 "added").
type EVSEConfig struct {
	// ID is the EVSEID advertised in SessionSetupRes.
	ID string `koanf:"id"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with the spec's literal
// defaults: a 7000-byte read window, a 2s data-link delay and a 3s
// transport delay (spec §4.3), and ISO 15118-2 as the sole offered
// protocol.
func DefaultConfig() *Config {
	return &Config{
		Listen: ListenConfig{
			Addr: ":15118",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Session: SessionConfig{
			ReadWindow:         7000,
			DataLinkDelay:      2 * time.Second,
			TransportDelay:     3 * time.Second,
			SupportedProtocols: []string{"urn:iso:15118:2:2013:MsgDef"},
		},
		EVSE: EVSEConfig{
			ID: "EVSE-SIM-001",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for v2gsim configuration.
// Variables are named V2GSIM_<section>_<key>, e.g., V2GSIM_LISTEN_ADDR.
const envPrefix = "V2GSIM_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (V2GSIM_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	V2GSIM_LISTEN_ADDR           -> listen.addr
//	V2GSIM_METRICS_ADDR          -> metrics.addr
//	V2GSIM_METRICS_PATH          -> metrics.path
//	V2GSIM_LOG_LEVEL             -> log.level
//	V2GSIM_LOG_FORMAT            -> log.format
//	V2GSIM_SESSION_READ_WINDOW   -> session.read_window
//	V2GSIM_EVSE_ID               -> evse.id
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load defaults first.
	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	// Load YAML file on top of defaults.
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	// Load environment variable overrides on top of YAML.
	// V2GSIM_LISTEN_ADDR -> listen.addr (strip prefix, lowercase, first _ -> .).
	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms V2GSIM_LISTEN_ADDR -> listen.addr and
// V2GSIM_SESSION_READ_WINDOW -> session.read_window.
// Strips the V2GSIM_ prefix, lowercases, and replaces the first _ (the
// section separator) with .; later underscores stay part of the key.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"listen.addr":                  defaults.Listen.Addr,
		"metrics.addr":                 defaults.Metrics.Addr,
		"metrics.path":                 defaults.Metrics.Path,
		"log.level":                    defaults.Log.Level,
		"log.format":                   defaults.Log.Format,
		"session.read_window":          defaults.Session.ReadWindow,
		"session.data_link_delay":      defaults.Session.DataLinkDelay.String(),
		"session.transport_delay":      defaults.Session.TransportDelay.String(),
		"session.supported_protocols":  defaults.Session.SupportedProtocols,
		"evse.id":                      defaults.EVSE.ID,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyListenAddr indicates the V2GTP listen address is empty.
	ErrEmptyListenAddr = errors.New("listen.addr must not be empty")

	// ErrInvalidReadWindow indicates the read window is non-positive.
	ErrInvalidReadWindow = errors.New("session.read_window must be > 0")

	// ErrInvalidDataLinkDelay indicates the data-link delay is negative.
	ErrInvalidDataLinkDelay = errors.New("session.data_link_delay must be >= 0")

	// ErrInvalidTransportDelay indicates the transport delay is negative.
	ErrInvalidTransportDelay = errors.New("session.transport_delay must be >= 0")

	// ErrNoSupportedProtocols indicates no application protocol was offered.
	ErrNoSupportedProtocols = errors.New("session.supported_protocols must not be empty")

	// ErrEmptyEVSEID indicates no EVSE identifier was configured.
	ErrEmptyEVSEID = errors.New("evse.id must not be empty")
)

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Listen.Addr == "" {
		return ErrEmptyListenAddr
	}

	if cfg.Session.ReadWindow <= 0 {
		return ErrInvalidReadWindow
	}

	if cfg.Session.DataLinkDelay < 0 {
		return ErrInvalidDataLinkDelay
	}

	if cfg.Session.TransportDelay < 0 {
		return ErrInvalidTransportDelay
	}

	if len(cfg.Session.SupportedProtocols) == 0 {
		return ErrNoSupportedProtocols
	}

	if cfg.EVSE.ID == "" {
		return ErrEmptyEVSEID
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
