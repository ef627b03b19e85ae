package types

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	System    ConfigSystem    `yaml:"system"`
	Provider  ConfigProvider  `yaml:"provider"`
	Translate ConfigTranslate `yaml:"translate"`
}

type ConfigSystem struct {
	Debug bool `yaml:"debug"`
	Redis struct {
		URL         string        `yaml:"url"`
		Prefix      string        `yaml:"prefix"`
		CacheExpire time.Duration `yaml:"cache_expire"`
	} `yaml:"redis"`
	Listen         string        `yaml:"listen"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ConfigProvider selects the model endpoint. Settings is a YAML document
// parsed by the provider itself. Credentials left out of it are read from
// the environment.
type ConfigProvider struct {
	Type     string `yaml:"type"`
	Settings string `yaml:"settings"`
}

type ConfigTranslate struct {
	DefaultLang      string `yaml:"default_lang"`
	MaxWords         int    `yaml:"max_words"`
	MiniChunkWords   *int   `yaml:"mini_chunk_words,omitempty"` // 0 turns the language count off
	Concurrency      int    `yaml:"concurrency"`
	Retries          *int   `yaml:"retries,omitempty"`
	SkipSameLanguage bool   `yaml:"skip_same_language"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML config at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	// Read config
	configFileBytes, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse config
	var cfg Config
	err = yaml.Unmarshal(configFileBytes, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Provider.Type == "" {
		c.Provider.Type = "openai"
	}
	if c.System.Listen == "" {
		c.System.Listen = ":1323"
	}
	if c.System.RequestTimeout == 0 {
		c.System.RequestTimeout = 60 * time.Second
	}
	if c.System.Redis.CacheExpire == 0 {
		c.System.Redis.CacheExpire = 24 * time.Hour
	}
	if c.Translate.DefaultLang == "" {
		c.Translate.DefaultLang = "eng"
	}
}
