package moderation

import "time"

type configGetter interface {
	GetModeration() Config
}

type Config struct {
	ApiKey    string `yaml:"apiKey"`
	BaseUrl   string `yaml:"baseUrl"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"maxTokens"`
	// Timeout bounds a single classification call, zero means 30s
	Timeout time.Duration `yaml:"timeout"`
	// Concurrency is the number of images of one submission classified in parallel
	Concurrency int `yaml:"concurrency"`
}

const (
	defaultModel       = "gpt-4o-mini"
	defaultMaxTokens   = 150
	defaultTimeout     = 30 * time.Second
	defaultConcurrency = 3
)

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	return c
}
