// Package config loads ChemistFlow's YAML configuration, with
// environment variables overriding individual keys for container
// deployment.
//
// Grounded on the teacher's getenv(k, def string) string helper used in
// cmd/coordinator/main.go and cmd/node/main.go: ChemistFlow generalizes
// the same "env var wins if set" idiom across a whole struct's fields
// instead of a couple of loose command-line defaults, and loads the
// struct itself from YAML (gopkg.in/yaml.v3) rather than flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientConfig is the shape repeated for preprocessorClient and
// engineClient. The cluster gossip transport's client is not configured
// through it.
type ClientConfig struct {
	BaseURI string `yaml:"baseUri"`
	Timeout struct {
		Connect time.Duration `yaml:"connect"`
		Request time.Duration `yaml:"request"`
	} `yaml:"timeout"`
	Retries int `yaml:"retries"`
	Pool    struct {
		MaxConnections int           `yaml:"maxConnections"`
		MaxIdleTime    time.Duration `yaml:"maxIdleTime"`
	} `yaml:"pool"`
}

// CacheConfig matches the cache.* keys.
type CacheConfig struct {
	LocalTTL                time.Duration `yaml:"localTtl"`
	LocalMaxEntries         int           `yaml:"localMaxEntries"`
	DistributedReadTimeout  time.Duration `yaml:"distributedReadTimeout"`
	DistributedWriteTimeout time.Duration `yaml:"distributedWriteTimeout"`
}

// ClusterConfig matches the cluster.* keys.
type ClusterConfig struct {
	SeedNodes []string `yaml:"seedNodes"`
	Hostname  string   `yaml:"hostname"`
	Port      int      `yaml:"port"`
}

// LoggingConfig is the expansion's ambient logging.* block.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// HTTPConfig is the http.* bind address block.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Config is ChemistFlow's complete configuration.
type Config struct {
	HTTP               HTTPConfig    `yaml:"http"`
	PreprocessorClient ClientConfig  `yaml:"preprocessorClient"`
	EngineClient       ClientConfig  `yaml:"engineClient"`
	Cache              CacheConfig   `yaml:"cache"`
	Cluster            ClusterConfig `yaml:"cluster"`
	Logging            LoggingConfig `yaml:"logging"`
}

// Default returns a Config with ChemistFlow's baseline defaults:
// cache.localMaxEntries = 1000, a 2s connect / 5s request timeout, and
// info-level, non-JSON logging.
func Default() Config {
	var c Config
	c.HTTP.Host = "0.0.0.0"
	c.HTTP.Port = 8080
	c.Cache.LocalMaxEntries = 1000
	c.Cache.LocalTTL = 5 * time.Minute
	c.Cache.DistributedReadTimeout = 2 * time.Second
	c.Cache.DistributedWriteTimeout = 2 * time.Second
	c.Logging.Level = "info"

	for _, client := range []*ClientConfig{&c.PreprocessorClient, &c.EngineClient} {
		client.Timeout.Connect = 2 * time.Second
		client.Timeout.Request = 5 * time.Second
		client.Pool.MaxConnections = 32
		client.Pool.MaxIdleTime = 90 * time.Second
	}
	return c
}

// Load reads YAML from path over Default(), then applies environment
// variable overrides. An empty path skips the file read entirely, so a
// deployment can configure purely through CHEMISTFLOW_* environment
// variables (container-native, no mounted file required).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyEnvOverrides mirrors the teacher's getenv(k, def) fallback
// pattern, generalized across every override ChemistFlow recognizes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHEMISTFLOW_HTTP_HOST"); v != "" {
		cfg.HTTP.Host = v
	}
	if v := getenvInt("CHEMISTFLOW_HTTP_PORT"); v != 0 {
		cfg.HTTP.Port = v
	}
	if v := os.Getenv("CHEMISTFLOW_PREPROCESSOR_BASE_URI"); v != "" {
		cfg.PreprocessorClient.BaseURI = v
	}
	if v := os.Getenv("CHEMISTFLOW_ENGINE_BASE_URI"); v != "" {
		cfg.EngineClient.BaseURI = v
	}
	if v := os.Getenv("CHEMISTFLOW_CLUSTER_HOSTNAME"); v != "" {
		cfg.Cluster.Hostname = v
	}
	if v := getenvInt("CHEMISTFLOW_CLUSTER_PORT"); v != 0 {
		cfg.Cluster.Port = v
	}
	if v := os.Getenv("CHEMISTFLOW_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func getenvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
