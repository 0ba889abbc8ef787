// Package config loads the crosshttpd server configuration from a YAML
// file, environment variables and command-line flags, merged in that
// order (flags win over env, env wins over file).
package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config mirrors the YAML config file.
type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
		// Transport selects the host runtime: "nethttp" or "fasthttp".
		Transport string `yaml:"transport"`
	} `yaml:"server"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Limits struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"limits"`
	Session struct {
		Enabled    bool   `yaml:"enabled"`
		DBPath     string `yaml:"db_path"`
		CookieName string `yaml:"cookie_name"`
		TTL        string `yaml:"ttl"`
		GCSchedule string `yaml:"gc_schedule"`
	} `yaml:"session"`
}

// Addr returns the joined listen address, defaulting the port to 8080.
func (c *Config) Addr() string {
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(port))
}

// SessionTTL parses the configured session lifetime, defaulting to 24h.
func (c *Config) SessionTTL() (time.Duration, error) {
	if c.Session.TTL == "" {
		return 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(c.Session.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid session ttl %q: %w", c.Session.TTL, err)
	}
	return d, nil
}

// Load reads and parses the YAML config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyEnv overlays CROSSHTTP_* environment variables onto cfg and
// reports whether any were used.
func ApplyEnv(cfg *Config) bool {
	used := false
	if v := os.Getenv("CROSSHTTP_ADDR"); v != "" {
		cfg.Server.Address = v
		used = true
	}
	if v := os.Getenv("CROSSHTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
			used = true
		}
	}
	if v := os.Getenv("CROSSHTTP_TRANSPORT"); v != "" {
		cfg.Server.Transport = strings.ToLower(v)
		used = true
	}
	if v := os.Getenv("CROSSHTTP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
		used = true
	}
	if v := os.Getenv("CROSSHTTP_SESSION_DB"); v != "" {
		cfg.Session.DBPath = v
		used = true
	}
	return used
}

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Port      int
	Transport string
	Config    string
	Set       map[string]bool
}

// ParseCommandFlags parses the crosshttpd command line.
func ParseCommandFlags() Flags {
	portPtr := flag.Int("port", 8080, "HTTP listen port")
	transportPtr := flag.String("transport", "nethttp", "host transport: nethttp or fasthttp")
	cfgPtr := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Port: *portPtr, Transport: *transportPtr, Config: *cfgPtr, Set: setFlags}
}

// EffectiveConfigResult is the merged configuration plus a record of
// which source decided the listen address.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	Source string // "flags", "env" or "config"
}

// LoadEffective merges the config file (when present), environment
// overrides and explicit flags into the effective runtime config.
func LoadEffective(flags Flags) (*EffectiveConfigResult, error) {
	cfg := &Config{}
	source := "config"
	if loaded, err := Load(flags.Config); err == nil {
		cfg = loaded
	} else if !os.IsNotExist(err) || flags.Set["config"] {
		// a missing default config file is fine; an explicit one is not
		return nil, err
	}
	if ApplyEnv(cfg) {
		source = "env"
	}
	if flags.Set["port"] {
		cfg.Server.Port = flags.Port
		source = "flags"
	}
	if flags.Set["transport"] {
		cfg.Server.Transport = strings.ToLower(flags.Transport)
		source = "flags"
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = "nethttp"
	}
	if cfg.Server.Transport != "nethttp" && cfg.Server.Transport != "fasthttp" {
		return nil, fmt.Errorf("unknown transport %q (want nethttp or fasthttp)", cfg.Server.Transport)
	}
	return &EffectiveConfigResult{Config: cfg, Addr: cfg.Addr(), Source: source}, nil
}
