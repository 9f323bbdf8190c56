package config

import (
	"os"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"gopkg.in/yaml.v3"

	"github.com/llaa33219/plakker-web-sub000/db"
	"github.com/llaa33219/plakker-web-sub000/gateway/gatewayconfig"
	"github.com/llaa33219/plakker-web-sub000/imagenorm"
	"github.com/llaa33219/plakker-web-sub000/moderation"
	"github.com/llaa33219/plakker-web-sub000/pack"
	"github.com/llaa33219/plakker-web-sub000/quota"
	"github.com/llaa33219/plakker-web-sub000/redisprovider"
	"github.com/llaa33219/plakker-web-sub000/store"
)

const CName = "config"

// NewFromFile reads yaml config, expanding ${VAR} references from the environment
// so secrets can stay out of the file.
func NewFromFile(path string) (c *Config, err error) {
	c = &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), c); err != nil {
		return nil, err
	}
	return
}

type Config struct {
	Log        logger.Config        `yaml:"log"`
	Mongo      db.Mongo             `yaml:"mongo"`
	Redis      redisprovider.Config `yaml:"redis"`
	S3Store    store.Config         `yaml:"s3Store"`
	Gateway    gatewayconfig.Config `yaml:"gateway"`
	Pack       pack.Config          `yaml:"pack"`
	Quota      quota.Config         `yaml:"quota"`
	Moderation moderation.Config    `yaml:"moderation"`
	ImageNorm  imagenorm.Config     `yaml:"imageNorm"`
}

func (c *Config) Init(a *app.App) (err error) {
	return nil
}

func (c *Config) Name() (name string) {
	return CName
}

func (c *Config) GetMongo() db.Mongo {
	return c.Mongo
}

func (c *Config) GetRedis() redisprovider.Config {
	return c.Redis
}

func (c *Config) GetS3Store() store.Config {
	return c.S3Store
}

func (c *Config) GetGateway() gatewayconfig.Config {
	return c.Gateway
}

func (c *Config) GetPack() pack.Config {
	return c.Pack
}

func (c *Config) GetQuota() quota.Config {
	return c.Quota
}

func (c *Config) GetModeration() moderation.Config {
	return c.Moderation
}

func (c *Config) GetImageNorm() imagenorm.Config {
	return c.ImageNorm
}
