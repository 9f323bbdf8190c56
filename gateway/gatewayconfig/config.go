package gatewayconfig

type ConfigGetter interface {
	GetGateway() Config
}

type Config struct {
	Addr string `yaml:"addr"`
	// MaxRequestBytes bounds the whole upload body
	MaxRequestBytes int64 `yaml:"maxRequestBytes"`
	// TrustedProxies lists addresses or CIDRs, besides loopback and private networks,
	// whose X-Forwarded-For header is honored
	TrustedProxies []string `yaml:"trustedProxies"`
	// TrustAnyForward takes the client address from X-Forwarded-For as is
	TrustAnyForward bool `yaml:"trustAnyForward"`
}

func (c Config) WithDefaults() Config {
	if c.MaxRequestBytes <= 0 {
		c.MaxRequestBytes = 100 * 1024 * 1024
	}
	return c
}
