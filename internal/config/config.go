package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the ringserve configuration.
type Config struct {
	Env      string         `yaml:"env"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// ServerConfig holds http listener settings.
type ServerConfig struct {
	Address         string    `yaml:"address"`
	MaxHeaderBytes  SizeBytes `yaml:"max_header_bytes"`
	ShutdownTimeout Duration  `yaml:"shutdown_timeout"`
	Engine          string    `yaml:"engine"` // nethttp | fasthttp
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PipelineConfig controls how the pipeline reports errors and which
// static mounts the demo server answers.
type PipelineConfig struct {
	ExposeErrors bool          `yaml:"expose_errors"`
	Lifetime     *bool         `yaml:"lifetime"`
	Mounts       []MountConfig `yaml:"mounts"`
}

// MountConfig is one static answer served under a path prefix.
type MountConfig struct {
	Prefix string   `yaml:"prefix"`
	Method string   `yaml:"method"`
	Status int      `yaml:"status"`
	Body   string   `yaml:"body"`
	Delay  Duration `yaml:"delay"`
}

// TrackLifetime reports whether the pipeline should stop work for clients
// that went away. It defaults to true.
func (p PipelineConfig) TrackLifetime() bool {
	return p.Lifetime == nil || *p.Lifetime
}

// Default returns the configuration used when nothing else is given.
func Default() *Config {
	return &Config{
		Env: "development",
		Server: ServerConfig{
			Address:         ":3000",
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: Duration(5 * time.Second),
			Engine:          "nethttp",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error. Variables from a
// .env file in the working directory are loaded first; ones already set in
// the environment win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse %s", path)
			}
		case !os.IsNotExist(err):
			return nil, errors.Wrapf(err, "read %s", path)
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from RING_* variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("RING_ENV"); v != "" {
		c.Env = v
	}
	if v := getenv("RING_ADDRESS"); v != "" {
		c.Server.Address = v
	}
	if v := getenv("RING_ENGINE"); v != "" {
		c.Server.Engine = v
	}
	if v := getenv("RING_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("RING_EXPOSE_ERRORS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "RING_EXPOSE_ERRORS")
		}
		c.Pipeline.ExposeErrors = b
	}
	return nil
}

// Validate checks the configuration and fills in per-mount defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Address) == "" {
		return errors.New("server.address is required")
	}
	switch c.Server.Engine {
	case "", "nethttp":
		c.Server.Engine = "nethttp"
	case "fasthttp":
	default:
		return errors.Errorf("server.engine: unknown engine %q", c.Server.Engine)
	}
	for i := range c.Pipeline.Mounts {
		m := &c.Pipeline.Mounts[i]
		if strings.Trim(m.Prefix, "/") == "" {
			return errors.Errorf("pipeline.mounts[%d]: prefix is required", i)
		}
		if m.Status == 0 {
			m.Status = 200
		}
		if m.Status < 100 || m.Status > 599 {
			return errors.Errorf("pipeline.mounts[%d]: invalid status %d", i, m.Status)
		}
		m.Method = strings.ToUpper(m.Method)
	}
	return nil
}

// IsProduction reports whether Env is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
