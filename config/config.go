package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opd-ai/callaudio/audiomode"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Validation constants for configuration bounds checking.
const (
	// MinQueueSize is the smallest usable event queue.
	MinQueueSize = 1
	// MaxQueueSize bounds the memory a stalled worker can pin.
	MaxQueueSize = 65536
	// MinJournalSize of zero keeps counters but no transition records.
	MinJournalSize = 0
	// MaxJournalSize is the maximum number of retained transition records.
	MaxJournalSize = 1000000
)

// EnvPrefix is prepended to every environment override, e.g. CALLAUDIO_QUEUE_SIZE.
const EnvPrefix = "CALLAUDIO"

// Log formats accepted by ConfigureLogging.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the runtime settings for a machine and its logging.
type Config struct {
	QueueSize   int    `mapstructure:"queue_size"`
	JournalSize int    `mapstructure:"journal_size"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	LogFile     string `mapstructure:"log_file"`
}

// DefaultConfig returns the built-in settings.
//
// Default Value Rationale:
//   - QueueSize: 64 - several call-state bursts can queue before producers block
//   - JournalSize: 256 - enough history to explain a full call session
//   - LogLevel: info - state changes are logged, per-event detail is not
//   - LogFormat: text - readable on a terminal; use json for collectors
func DefaultConfig() *Config {
	return &Config{
		QueueSize:   64,
		JournalSize: 256,
		LogLevel:    "info",
		LogFormat:   FormatText,
		LogFile:     "",
	}
}

// Load reads configuration from path, if given, and from CALLAUDIO_*
// environment variables. Environment values override the file. The file
// type follows its extension (yaml, toml or json).
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("queue_size", defaults.QueueSize)
	v.SetDefault("journal_size", defaults.JournalSize)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("log_file", defaults.LogFile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logConfigurationInfo(cfg, v.ConfigFileUsed())
	return cfg, nil
}

// Validate checks every field against its bounds.
func (c *Config) Validate() error {
	if c.QueueSize < MinQueueSize || c.QueueSize > MaxQueueSize {
		return fmt.Errorf("%w: queue_size %d out of range [%d, %d]",
			ErrInvalidConfig, c.QueueSize, MinQueueSize, MaxQueueSize)
	}
	if c.JournalSize < MinJournalSize || c.JournalSize > MaxJournalSize {
		return fmt.Errorf("%w: journal_size %d out of range [%d, %d]",
			ErrInvalidConfig, c.JournalSize, MinJournalSize, MaxJournalSize)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: log_format %q must be %q or %q",
			ErrInvalidConfig, c.LogFormat, FormatText, FormatJSON)
	}
	return nil
}

func logConfigurationInfo(cfg *Config, file string) {
	logrus.WithFields(logrus.Fields{
		"function":     "Load",
		"config_file":  file,
		"queue_size":   cfg.QueueSize,
		"journal_size": cfg.JournalSize,
		"log_level":    cfg.LogLevel,
		"log_format":   cfg.LogFormat,
	}).Debug("Loaded configuration")
}

// MachineOptions translates the settings into audiomode machine options.
func (c *Config) MachineOptions() []audiomode.Option {
	return []audiomode.Option{
		audiomode.WithQueueSize(c.QueueSize),
		audiomode.WithJournal(audiomode.NewJournal(c.JournalSize)),
	}
}
