package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "gridcalc.yaml"

const (
	styleTable = "table"
	stylePlain = "plain"
)

// Config is the gridcalc.yaml file. every field is optional.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Watch   WatchConfig   `yaml:"watch"`
	Lock    LockConfig    `yaml:"lock"`
}

type OutputConfig struct {
	Style   string `yaml:"style"`
	ShowRaw bool   `yaml:"show_raw"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

type LockConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

func defaultConfig() Config {
	return Config{
		Output:  OutputConfig{Style: styleTable},
		Logging: LoggingConfig{Level: "info"},
		Watch:   WatchConfig{Debounce: 200 * time.Millisecond},
		Lock:    LockConfig{Timeout: 5 * time.Second},
	}
}

// loadConfig reads path over the defaults. a missing file is only an error
// when the path was asked for explicitly.
func loadConfig(path string, required bool) (Config, error) {
	cfg := defaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges that the YAML schema alone cannot express
func (c Config) Validate() error {
	switch c.Output.Style {
	case styleTable, stylePlain:
	default:
		return fmt.Errorf("output.style must be %q or %q, got %q", styleTable, stylePlain, c.Output.Style)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if c.Lock.Timeout <= 0 {
		return fmt.Errorf("lock.timeout must be positive")
	}
	return nil
}
