// Package config loads the process configuration from a YAML file. The
// resulting values are plain structs handed to constructors at startup;
// no other package reads files or the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Duration parses "5s"-style YAML values into a time.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.v2 unmarshalling for duration strings.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts back to the standard library type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full configuration for all orderstats commands.
type Config struct {
	Redis    RedisConfig    `yaml:"redis"`
	Queue    QueueConfig    `yaml:"queue"`
	Consumer ConsumerConfig `yaml:"consumer"`
	HTTP     HTTPConfig     `yaml:"http"`
	Debug    DebugConfig    `yaml:"debug"`
}

// RedisConfig covers both the aggregate store and the stream queue, which
// share one Redis deployment.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// QueueConfig names the order stream and its consumer group.
type QueueConfig struct {
	Stream     string   `yaml:"stream"`
	Group      string   `yaml:"group"`
	Visibility Duration `yaml:"visibility_timeout"`
}

// ConsumerConfig bounds the consume loop.
type ConsumerConfig struct {
	BatchSize   int64    `yaml:"batch_size"`
	WaitTime    Duration `yaml:"wait_time"`
	IdleBackoff Duration `yaml:"idle_backoff"`
}

// HTTPConfig is the read API listener.
type HTTPConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

// DebugConfig is the optional Prometheus exposition listener. An empty
// Addr disables it.
type DebugConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Queue: QueueConfig{
			Stream:     "orders",
			Group:      "aggregators",
			Visibility: Duration(30 * time.Second),
		},
		Consumer: ConsumerConfig{
			BatchSize:   5,
			WaitTime:    Duration(5 * time.Second),
			IdleBackoff: Duration(2 * time.Second),
		},
		HTTP: HTTPConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			RequestTimeout: Duration(5 * time.Second),
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return cfg, nil
}
