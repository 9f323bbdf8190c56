package pack

import "time"

type configGetter interface {
	GetPack() Config
}

type Config struct {
	// MaxItems bounds the number of candidate images in one submission
	MaxItems int `yaml:"maxItems"`
	// SweepPeriod is the orphan sweep period in seconds, negative disables the sweep
	SweepPeriod int `yaml:"sweepPeriod"`
	// SweepGrace keeps objects younger than this out of the sweep
	SweepGrace   time.Duration `yaml:"sweepGrace"`
	ListCacheTTL time.Duration `yaml:"listCacheTtl"`
}

func (c Config) withDefaults() Config {
	if c.MaxItems <= 0 {
		c.MaxItems = 30
	}
	if c.SweepPeriod == 0 {
		c.SweepPeriod = 3600
	}
	if c.SweepGrace <= 0 {
		c.SweepGrace = time.Hour
	}
	if c.ListCacheTTL <= 0 {
		c.ListCacheTTL = 30 * time.Second
	}
	return c
}
