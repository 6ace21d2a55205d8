package store

import (
	"net/url"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	DefaultEndpoint  = "http://localhost:9000"
	DefaultAccessKey = "minioadmin"
	DefaultSecretKey = "minioadmin"
	DefaultRegion    = "us-east-1"

	EndpointEnv  = "MINIO_ENDPOINT_URL"
	AccessKeyEnv = "MINIO_ACCESS_KEY"
	SecretKeyEnv = "MINIO_SECRET_KEY"
	RegionEnv    = "MINIO_REGION"
)

// Config holds the connection settings shared by every backend.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string

	// Debug turns on SDK request logging where the backend supports it.
	Debug bool
}

// ResolveConfig fills the empty fields of explicit from the environment and
// then from the built-in defaults. Explicit values always win.
func ResolveConfig(explicit Config) Config {
	v := viper.New()
	_ = v.BindEnv("endpoint", EndpointEnv)
	_ = v.BindEnv("access-key", AccessKeyEnv)
	_ = v.BindEnv("secret-key", SecretKeyEnv)
	_ = v.BindEnv("region", RegionEnv)
	v.SetDefault("endpoint", DefaultEndpoint)
	v.SetDefault("access-key", DefaultAccessKey)
	v.SetDefault("secret-key", DefaultSecretKey)
	v.SetDefault("region", DefaultRegion)

	cfg := explicit
	fill(&cfg.Endpoint, v.GetString("endpoint"))
	fill(&cfg.AccessKey, v.GetString("access-key"))
	fill(&cfg.SecretKey, v.GetString("secret-key"))
	fill(&cfg.Region, v.GetString("region"))
	return cfg
}

func fill(field *string, fallback string) {
	if *field == "" {
		*field = fallback
	}
}

// HostAndSecure splits the endpoint URL into the host:port form some
// clients want and whether TLS should be used. A bare host:port is taken as
// plain HTTP.
func (c Config) HostAndSecure() (string, bool, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Host == "" {
		u, err = url.Parse("http://" + c.Endpoint)
		if err != nil || u.Host == "" {
			return "", false, errors.Errorf("invalid store endpoint: %q", c.Endpoint)
		}
	}
	return u.Host, u.Scheme == "https", nil
}
