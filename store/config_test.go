package store

import (
	"os"
	"testing"
)

func clearStoreEnv(t *testing.T) {
	for _, k := range []string{EndpointEnv, AccessKeyEnv, SecretKeyEnv, RegionEnv} {
		if v, ok := os.LookupEnv(k); ok {
			os.Unsetenv(k)
			k, v := k, v
			t.Cleanup(func() { os.Setenv(k, v) })
		}
	}
}

func TestResolveConfigDefaults(t *testing.T) {
	clearStoreEnv(t)

	cfg := ResolveConfig(Config{})
	if cfg.Endpoint != DefaultEndpoint {
		t.Errorf("endpoint = %s", cfg.Endpoint)
	}
	if cfg.AccessKey != DefaultAccessKey || cfg.SecretKey != DefaultSecretKey {
		t.Errorf("unexpected credentials %s/%s", cfg.AccessKey, cfg.SecretKey)
	}
	if cfg.Region != DefaultRegion {
		t.Errorf("region = %s", cfg.Region)
	}
}

func TestResolveConfigEnvFallback(t *testing.T) {
	clearStoreEnv(t)
	t.Setenv(EndpointEnv, "http://minio.internal:9000")
	t.Setenv(AccessKeyEnv, "env-access")
	t.Setenv(SecretKeyEnv, "env-secret")

	cfg := ResolveConfig(Config{})
	if cfg.Endpoint != "http://minio.internal:9000" {
		t.Errorf("endpoint = %s", cfg.Endpoint)
	}
	if cfg.AccessKey != "env-access" || cfg.SecretKey != "env-secret" {
		t.Errorf("unexpected credentials %s/%s", cfg.AccessKey, cfg.SecretKey)
	}
}

func TestResolveConfigExplicitWins(t *testing.T) {
	clearStoreEnv(t)
	t.Setenv(EndpointEnv, "http://minio.internal:9000")
	t.Setenv(AccessKeyEnv, "env-access")

	cfg := ResolveConfig(Config{Endpoint: "https://s3.example.org", AccessKey: "flag-access"})
	if cfg.Endpoint != "https://s3.example.org" {
		t.Errorf("endpoint = %s", cfg.Endpoint)
	}
	if cfg.AccessKey != "flag-access" {
		t.Errorf("access key = %s", cfg.AccessKey)
	}
	if cfg.SecretKey != DefaultSecretKey {
		t.Errorf("secret key = %s", cfg.SecretKey)
	}
}

func TestHostAndSecure(t *testing.T) {
	tests := []struct {
		endpoint string
		host     string
		secure   bool
	}{
		{"http://localhost:9000", "localhost:9000", false},
		{"https://s3.example.org", "s3.example.org", true},
		{"localhost:9000", "localhost:9000", false},
	}
	for _, tt := range tests {
		host, secure, err := Config{Endpoint: tt.endpoint}.HostAndSecure()
		if err != nil {
			t.Errorf("%s: %v", tt.endpoint, err)
			continue
		}
		if host != tt.host || secure != tt.secure {
			t.Errorf("%s: got (%s, %v), want (%s, %v)", tt.endpoint, host, secure, tt.host, tt.secure)
		}
	}
}

func TestJoin(t *testing.T) {
	tests := []struct{ prefix, rel, want string }{
		{"tenant/ncbi/", "raw_data/x", "tenant/ncbi/raw_data/x"},
		{"tenant/ncbi", "raw_data/x", "tenant/ncbi/raw_data/x"},
		{"tenant/ncbi/", "/raw_data/x", "tenant/ncbi/raw_data/x"},
		{"", "raw_data/x", "raw_data/x"},
	}
	for _, tt := range tests {
		if got := Join(tt.prefix, tt.rel); got != tt.want {
			t.Errorf("Join(%q, %q) = %q, want %q", tt.prefix, tt.rel, got, tt.want)
		}
	}
}
