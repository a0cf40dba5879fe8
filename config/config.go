// Package config loads and validates the bot's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingKey is returned by Validate for required keys without a
// usable default.
var ErrMissingKey = errors.New("config: missing required key")

// Duration is a time.Duration that unmarshals from YAML as either a
// Go duration string ("90s", "2m") or a bare number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		if secs, err := strconv.Atoi(s); err == nil {
			*d = Duration(time.Duration(secs) * time.Second)
			return nil
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: bad duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	return fmt.Errorf("config: bad duration at line %d", node.Line)
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the top-level configuration document.
type Config struct {
	Bot     Bot                       `yaml:"bot"`
	Storage Storage                   `yaml:"storage"`
	Plugins map[string]map[string]any `yaml:"plugins"`
}

// Bot holds the global connection and behavior settings.
type Bot struct {
	Nick       string `yaml:"nick"`
	Username   string `yaml:"username"`
	Realname   string `yaml:"realname"`
	Password   string `yaml:"password"`
	AuthMethod string `yaml:"auth_method"` // "pass" or "nickserv"
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`

	CommandPrefix string   `yaml:"command_prefix"`
	Channels      []string `yaml:"channels"`
	Plugins       []string `yaml:"plugins"`
	UseNotice     bool     `yaml:"use_notice"`

	PingInterval Duration `yaml:"ping_interval"`
	PingTimeout  Duration `yaml:"ping_timeout"`
	BackoffMin   Duration `yaml:"backoff_min"`
	BackoffMax   Duration `yaml:"backoff_max"`
	PaceInterval Duration `yaml:"pace_interval"`
	PaceBurst    int      `yaml:"pace_burst"`
	QueueCap     int      `yaml:"queue_cap"`
}

// Storage selects and configures the persistence backend.
type Storage struct {
	Backend  string `yaml:"backend"` // "memory", "redis" or "mongodb"
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
	Prefix   string `yaml:"prefix"`
}

// Addr returns the server address in "host:port" form.
func (b Bot) Addr() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

// Default returns a configuration with all optional settings at their
// defaults. Nick and host still have to be filled in.
func Default() *Config {
	return &Config{
		Bot: Bot{
			Port:          6667,
			AuthMethod:    "pass",
			CommandPrefix: "!",
			PingInterval:  Duration(3 * time.Minute),
			PingTimeout:   Duration(10 * time.Minute),
			BackoffMin:    Duration(2 * time.Second),
			BackoffMax:    Duration(5 * time.Minute),
			PaceInterval:  Duration(500 * time.Millisecond),
			PaceBurst:     4,
			QueueCap:      128,
		},
		Storage: Storage{
			Backend:  "memory",
			Database: "ircbot",
			Prefix:   "ircbot",
		},
		Plugins: make(map[string]map[string]any),
	}
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw YAML on top of the defaults and validates the
// result.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the required keys and setting ranges.
func (c *Config) Validate() error {
	if c.Bot.Nick == "" {
		return fmt.Errorf("%w: bot.nick", ErrMissingKey)
	}
	if c.Bot.Host == "" {
		return fmt.Errorf("%w: bot.host", ErrMissingKey)
	}
	if c.Bot.Port <= 0 || c.Bot.Port > 65535 {
		return fmt.Errorf("config: bot.port out of range: %d", c.Bot.Port)
	}
	switch c.Bot.AuthMethod {
	case "", "pass", "nickserv":
	default:
		return fmt.Errorf("config: unknown bot.auth_method %q", c.Bot.AuthMethod)
	}
	switch c.Storage.Backend {
	case "", "memory":
	case "redis", "mongodb":
		if c.Storage.URL == "" {
			return fmt.Errorf("%w: storage.url (required for %s)", ErrMissingKey, c.Storage.Backend)
		}
	default:
		return fmt.Errorf("config: unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Plugins == nil {
		c.Plugins = make(map[string]map[string]any)
	}
	return nil
}
