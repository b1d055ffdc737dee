// Package config loads launchdash settings from YAML with environment
// overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source drivers.
const (
	DriverFile     = "file"
	DriverS3       = "s3"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultAddr            = ":8050"
	defaultPath            = "spacex_launch_dash.csv"
	defaultTable           = "launches"
	defaultSliderStep      = 1000
	defaultShutdownTimeout = 10 * time.Second

	envPrefix = "LAUNCHDASH_"
	// ConfigPathEnv names the YAML file to read when --config is not given.
	ConfigPathEnv = envPrefix + "CONFIG"
)

// Config holds every runtime setting.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Source    SourceConfig    `yaml:"source"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// SourceConfig selects where the dataset is read from. Path is used by the
// file and sqlite drivers; Bucket and Key by s3; DSN by postgres.
type SourceConfig struct {
	Driver    string `yaml:"driver"`
	Path      string `yaml:"path"`
	Bucket    string `yaml:"bucket"`
	Key       string `yaml:"key"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"pathStyle"`
	DSN       string `yaml:"dsn"`
	Table     string `yaml:"table"`
}

type DashboardConfig struct {
	SliderStep float64 `yaml:"sliderStep"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:    ServerConfig{Addr: defaultAddr, ShutdownTimeout: defaultShutdownTimeout},
		Source:    SourceConfig{Driver: DriverFile, Path: defaultPath, Table: defaultTable},
		Dashboard: DashboardConfig{SliderStep: defaultSliderStep},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Load starts from Default, overlays the YAML file at path (or the file named
// by LAUNCHDASH_CONFIG when path is empty) and applies LAUNCHDASH_*
// environment overrides. The result is not validated; callers apply flag
// overrides first and then call Validate.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

// LoadEnvFile exports the KEY=VALUE pairs in path into the process
// environment so Load sees them as LAUNCHDASH_* overrides. Variables that
// are already set keep their value.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path == "" {
		path, _ = lookup(ConfigPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decode(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("ADDR", &c.Server.Addr)
	str("SOURCE_DRIVER", &c.Source.Driver)
	str("DSN", &c.Source.DSN)
	str("TABLE", &c.Source.Table)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	if v, ok := lookup(envPrefix + "DATA"); ok && v != "" {
		c.SetData(v)
	}
	if v, ok := lookup(envPrefix + "SLIDER_STEP"); ok && v != "" {
		step, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sSLIDER_STEP: %w", envPrefix, err)
		}
		c.Dashboard.SliderStep = step
	}
	return nil
}

// SetData points the source at location. An s3://bucket/key URL selects the
// s3 driver; anything else is a local path and keeps a sqlite driver if one is
// configured, otherwise selects the file driver.
func (c *Config) SetData(location string) {
	if bucket, key, ok := ParseS3URL(location); ok {
		c.Source.Driver = DriverS3
		c.Source.Bucket = bucket
		c.Source.Key = key
		return
	}
	if c.Source.Driver != DriverSQLite {
		c.Source.Driver = DriverFile
	}
	c.Source.Path = location
}

// ParseS3URL splits s3://bucket/key. ok is false for other schemes or when
// either part is empty.
func ParseS3URL(location string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(location, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// Validate checks that the selected driver has what it needs.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr required"))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.shutdownTimeout must not be negative"))
	}
	switch c.Source.Driver {
	case DriverFile, DriverSQLite:
		if c.Source.Path == "" {
			errs = append(errs, fmt.Errorf("source.path required for %s driver", c.Source.Driver))
		}
	case DriverS3:
		if c.Source.Bucket == "" || c.Source.Key == "" {
			errs = append(errs, errors.New("source.bucket and source.key required for s3 driver"))
		}
	case DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown source driver %q", c.Source.Driver))
	}
	if c.Dashboard.SliderStep <= 0 {
		errs = append(errs, errors.New("dashboard.sliderStep must be positive"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
