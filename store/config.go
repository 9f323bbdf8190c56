package store

type configSource interface {
	GetS3Store() Config
}

type Credentials struct {
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
}

type Config struct {
	Region      string      `yaml:"region"`
	Bucket      string      `yaml:"bucket"`
	Credentials Credentials `yaml:"credentials"`
	// Endpoint overrides the AWS endpoint for S3-compatible stores (minio, r2, ...)
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"usePathStyle"`
	// GcsCompat re-signs requests for the GCS interoperability API
	GcsCompat bool `yaml:"gcsCompat"`
}
