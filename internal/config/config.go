package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
var (
	// DefaultThresholds is the standard SNR grid, ascending.
	DefaultThresholds = []float64{7.75, 8, 8.5, 9, 10, 11, 12, 15, 20, 40, 100}

	// DefaultWindows is the standard coincidence-window grid in seconds.
	DefaultWindows = []float64{0.1, 0.2, 0.5, 1, 2, 5}
)

const (
	DefaultMinSignificance   = 5.0
	DefaultMaxRounds         = 100
	DefaultHTTPPort          = 8080
	DefaultBroadcastInterval = 2 * time.Second
)

// Config is the top-level analysis configuration.
type Config struct {
	Primary  Source         `yaml:"primary"`
	Aux      AuxConfig      `yaml:"aux"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Output   OutputConfig   `yaml:"output"`
	Serve    ServeConfig    `yaml:"serve"`
	Alerts   AlertsConfig   `yaml:"alerts"`
}

// Source describes one trigger file to load.
type Source struct {
	// Channel is the instrument channel name, e.g. "H1:GDS-CALIB_STRAIN".
	Channel string `yaml:"channel"`

	// File is the path to the trigger table.
	File string `yaml:"file"`

	// Format is the table format: ascii | csv.
	Format string `yaml:"format"`

	// Kind selects the discriminant column: frequency | mchirp.
	Kind string `yaml:"kind"`
}

// AuxConfig locates the auxiliary channel trigger tables.
type AuxConfig struct {
	// Dir is a directory of trigger tables, one file per channel; the
	// channel name is the file name without its extension.
	Dir string `yaml:"dir"`

	// Format is the table format shared by all files in Dir: ascii | csv.
	Format string `yaml:"format"`

	// Kind selects the discriminant column for all auxiliary channels.
	Kind string `yaml:"kind"`

	// Sources lists additional individually-configured channels, merged
	// with (and overriding) the directory scan.
	Sources []Source `yaml:"sources"`

	// Ignore lists channel names to skip entirely.
	Ignore []string `yaml:"ignore"`
}

// AnalysisConfig holds the veto-loop parameters.
type AnalysisConfig struct {
	// SegmentsFile is the path to the analysis ("good data") segment list.
	SegmentsFile string `yaml:"segments_file"`

	// SNRThresholds is the ascending SNR grid searched per channel.
	SNRThresholds []float64 `yaml:"snr_thresholds"`

	// TimeWindows is the ascending coincidence-window grid, seconds.
	TimeWindows []float64 `yaml:"time_windows"`

	// MinSignificance stops the loop when no channel reaches it.
	MinSignificance float64 `yaml:"min_significance"`

	// MaxRounds is the safety cap on the number of veto rounds.
	MaxRounds int `yaml:"max_rounds"`

	// Workers is the parallelism for channel evaluation.
	// Zero means one worker per CPU; see EffectiveWorkers.
	Workers int `yaml:"workers"`
}

// EffectiveWorkers resolves the evaluation parallelism, substituting one
// worker per CPU when Workers is unset.
func (a AnalysisConfig) EffectiveWorkers() int {
	if a.Workers > 0 {
		return a.Workers
	}
	return runtime.NumCPU()
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	// Dir receives the JSON summary, segment lists and trigger tables.
	Dir string `yaml:"dir"`

	// SQLite, when set, is the path of a results database to append to.
	SQLite string `yaml:"sqlite"`
}

// ServeConfig configures the optional embedded status server.
type ServeConfig struct {
	// Enabled turns the HTTP API and WebSocket stream on.
	Enabled bool `yaml:"enabled"`

	// HTTPPort is the listen port for both the API and the stream.
	HTTPPort int `yaml:"http_port"`

	// BroadcastInterval is how often the WebSocket hub pushes run status.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// Auth configures API authentication.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig specifies how API requests are authenticated.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header carrying the key. Defaults to "X-API-Key".
	Header string `yaml:"header"`

	// KeyEnv is the environment variable holding the expected key value.
	KeyEnv string `yaml:"key_env"`
}

// EffectiveHeader returns the configured header name or its default.
func (a AuthConfig) EffectiveHeader() string {
	if a.Header == "" {
		return "X-API-Key"
	}
	return a.Header
}

// Key returns the API key resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// AlertsConfig holds round-quality rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines a threshold condition evaluated against each round.
type AlertRule struct {
	// Name is the human-readable rule identifier.
	Name string `yaml:"name"`

	// Condition is an expression like "deadtime_pct > 20" or
	// "significance < 10".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | http.
	Type string `yaml:"type"`

	// URLEnv is the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			SNRThresholds:   append([]float64(nil), DefaultThresholds...),
			TimeWindows:     append([]float64(nil), DefaultWindows...),
			MinSignificance: DefaultMinSignificance,
			MaxRounds:       DefaultMaxRounds,
		},
		Output: OutputConfig{Dir: "."},
		Serve: ServeConfig{
			HTTPPort:          DefaultHTTPPort,
			BroadcastInterval: DefaultBroadcastInterval,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Primary.Channel == "" {
		return fmt.Errorf("primary.channel is required")
	}
	if cfg.Primary.File == "" {
		return fmt.Errorf("primary.file is required")
	}
	if err := validateFormat("primary.format", cfg.Primary.Format); err != nil {
		return err
	}
	if cfg.Aux.Dir == "" && len(cfg.Aux.Sources) == 0 {
		return fmt.Errorf("aux.dir or aux.sources is required")
	}
	if err := validateFormat("aux.format", cfg.Aux.Format); err != nil {
		return err
	}
	for i, src := range cfg.Aux.Sources {
		if src.Channel == "" {
			return fmt.Errorf("aux.sources[%d]: channel is required", i)
		}
		if src.File == "" {
			return fmt.Errorf("aux.sources[%d] %q: file is required", i, src.Channel)
		}
		if err := validateFormat(fmt.Sprintf("aux.sources[%d].format", i), src.Format); err != nil {
			return err
		}
	}

	if cfg.Analysis.SegmentsFile == "" {
		return fmt.Errorf("analysis.segments_file is required")
	}
	if err := validateGrid("analysis.snr_thresholds", cfg.Analysis.SNRThresholds); err != nil {
		return err
	}
	if err := validateGrid("analysis.time_windows", cfg.Analysis.TimeWindows); err != nil {
		return err
	}
	for _, w := range cfg.Analysis.TimeWindows {
		if w <= 0 {
			return fmt.Errorf("analysis.time_windows must be positive, got %v", w)
		}
	}
	if cfg.Analysis.MinSignificance < 0 {
		return fmt.Errorf("analysis.min_significance must be non-negative")
	}
	if cfg.Analysis.MaxRounds < 0 {
		return fmt.Errorf("analysis.max_rounds must be non-negative")
	}
	if cfg.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must be non-negative")
	}

	if cfg.Serve.Enabled {
		if cfg.Serve.HTTPPort <= 0 || cfg.Serve.HTTPPort > 65535 {
			return fmt.Errorf("serve.http_port %d out of range", cfg.Serve.HTTPPort)
		}
		if cfg.Serve.BroadcastInterval <= 0 {
			return fmt.Errorf("serve.broadcast_interval must be positive")
		}
		switch cfg.Serve.Auth.Mode {
		case "apikey", "none", "":
		default:
			return fmt.Errorf("serve.auth.mode: unknown mode %q", cfg.Serve.Auth.Mode)
		}
	}

	for i, rule := range cfg.Alerts.Rules {
		if rule.Name == "" {
			return fmt.Errorf("alerts.rules[%d]: name is required", i)
		}
		if rule.Condition == "" {
			return fmt.Errorf("alerts.rules[%d] %q: condition is required", i, rule.Name)
		}
		switch rule.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("alerts.rules[%d] %q: unknown severity %q", i, rule.Name, rule.Severity)
		}
	}
	for i, wh := range cfg.Alerts.Webhooks {
		switch wh.Type {
		case "slack", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d]: unknown type %q", i, wh.Type)
		}
	}

	return nil
}

func validateFormat(field, format string) error {
	switch format {
	case "ascii", "csv", "":
		return nil
	default:
		return fmt.Errorf("%s: unknown format %q", field, format)
	}
}

func validateGrid(field string, values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("%s must not be empty", field)
	}
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return fmt.Errorf("%s must be strictly ascending", field)
		}
	}
	return nil
}
