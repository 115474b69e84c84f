package rpc

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EngineConfig is the façade's environment: storage backend location,
// resource limits, and the CORS/timeout knobs the HTTP binding reads.
// Field names are this engine's own; the contracts they carry (a storage
// URL, a max file size, an origin allowlist, per-operation timeouts) are
// fixed by spec, their names are not.
type EngineConfig struct {
	StorageBackendURL  string        `yaml:"storageBackendUrl"`
	MaxUploadBytes     int64         `yaml:"maxUploadBytes"`
	CORSOrigins        []string      `yaml:"corsOrigins"`
	PluginAutoDiscover bool          `yaml:"pluginAutoDiscover"`
	Timeouts           TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig holds the per-operation wall-clock limits spec.md §5
// names. Exceeding one surfaces as a Timeout error.
type TimeoutConfig struct {
	Upload   time.Duration `yaml:"upload"`
	Parse    time.Duration `yaml:"parse"`
	Simulate time.Duration `yaml:"simulate"`
	Validate time.Duration `yaml:"validate"`
}

// DefaultMaxUploadBytes is the façade's max accepted upload size; a
// larger body is rejected with PayloadTooLarge before parsing begins.
const DefaultMaxUploadBytes = 100 * 1024 * 1024

// MaxUploadBytesOrDefault returns c.MaxUploadBytes, falling back to
// DefaultMaxUploadBytes when unset.
func (c EngineConfig) MaxUploadBytesOrDefault() int64 {
	if c.MaxUploadBytes <= 0 {
		return DefaultMaxUploadBytes
	}
	return c.MaxUploadBytes
}

// DefaultConfig returns the engine's out-of-the-box configuration: the
// spec's fixed resource limits and timeouts, no storage backend, and no
// CORS allowlist.
func DefaultConfig() EngineConfig {
	return EngineConfig{
		MaxUploadBytes:     DefaultMaxUploadBytes,
		PluginAutoDiscover: true,
		Timeouts: TimeoutConfig{
			Upload:   30 * time.Second,
			Parse:    60 * time.Second,
			Simulate: 10 * time.Second,
			Validate: 10 * time.Second,
		},
	}
}

// LoadConfig reads an EngineConfig from a YAML file, filling in any
// zero-valued field from DefaultConfig. No other check is applied to
// the values read.
func LoadConfig(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes parses YAML configuration from a byte slice.
func LoadConfigFromBytes(data []byte) (*EngineConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Timeouts.Upload == 0 {
		cfg.Timeouts.Upload = 30 * time.Second
	}
	if cfg.Timeouts.Parse == 0 {
		cfg.Timeouts.Parse = 60 * time.Second
	}
	if cfg.Timeouts.Simulate == 0 {
		cfg.Timeouts.Simulate = 10 * time.Second
	}
	if cfg.Timeouts.Validate == 0 {
		cfg.Timeouts.Validate = 10 * time.Second
	}
	return &cfg, nil
}
