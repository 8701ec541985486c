package config

import (
	"path/filepath"
	"testing"
	"time"
)

func validRedisConfig() Config {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 8080},
		Redis: RedisConfig{Addrs: []string{"localhost:6379"}},
		Graph: GraphConfig{URI: "neo4j://localhost:7687"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validRedisConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validRedisConfig()
	cfg.Redis.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_MissingGraphURI(t *testing.T) {
	cfg := validRedisConfig()
	cfg.Graph.URI = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing graph uri")
	}
}

func TestValidate_MemoryDriver(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}, Backend: BackendConfig{Driver: DriverMemory}}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for memory driver without fixture")
	}

	cfg.Backend.Fixture = "config/fixtures/articles.yaml"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validRedisConfig()
	cfg.Backend.Driver = "postgres"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	expected := `backend.driver must be "redis" or "memory", got "postgres"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_PageSizes(t *testing.T) {
	cfg := validRedisConfig()
	cfg.Query.DefaultPageSize = 500
	cfg.Query.MaxPageSize = 100

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default page size above max")
	}
}

func TestValidate_TripRatio(t *testing.T) {
	cfg := validRedisConfig()
	cfg.Breaker.TripRatio = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for trip ratio above 1")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Backend.Driver != DriverRedis {
		t.Errorf("expected driver=redis, got %q", cfg.Backend.Driver)
	}
	if cfg.Redis.KeyPrefix != "wikiquery:" {
		t.Errorf("expected KeyPrefix=wikiquery:, got %q", cfg.Redis.KeyPrefix)
	}
	if cfg.Graph.Database != "neo4j" {
		t.Errorf("expected Database=neo4j, got %q", cfg.Graph.Database)
	}
	if cfg.Query.Workers != 8 {
		t.Errorf("expected Workers=8, got %d", cfg.Query.Workers)
	}
	if cfg.Query.IdentityInlineLimit != 256 {
		t.Errorf("expected IdentityInlineLimit=256, got %d", cfg.Query.IdentityInlineLimit)
	}
	if cfg.Query.MaxTextHits != 10000 {
		t.Errorf("expected MaxTextHits=10000, got %d", cfg.Query.MaxTextHits)
	}
	if cfg.Query.QueryTimeout() != 5*time.Second {
		t.Errorf("expected 5s query timeout, got %v", cfg.Query.QueryTimeout())
	}
	if cfg.Query.BackendTimeout() != 2*time.Second {
		t.Errorf("expected 2s backend timeout, got %v", cfg.Query.BackendTimeout())
	}
	if cfg.Breaker.TripRatio != 0.5 || cfg.Breaker.MinRequests != 10 {
		t.Errorf("unexpected breaker defaults %+v", cfg.Breaker)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{Query: QueryConfig{Workers: 2, TimeoutMs: 100}}
	cfg.ApplyDefaults()

	if cfg.Query.Workers != 2 || cfg.Query.TimeoutMs != 100 {
		t.Errorf("explicit values overwritten: %+v", cfg.Query)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("WQ_TEST_ADDR", "redis:6379")

	got := string(expandEnvVars([]byte("a: ${WQ_TEST_ADDR}\nb: ${WQ_TEST_MISSING:-fallback}\nc: ${WQ_TEST_MISSING}")))
	want := "a: redis:6379\nb: fallback\nc: "
	if got != want {
		t.Errorf("expandEnvVars() = %q, want %q", got, want)
	}
}

func TestLoad_ShippedConfigs(t *testing.T) {
	for _, env := range []string{"local", "docker"} {
		t.Run(env, func(t *testing.T) {
			cfg, err := Load(env)
			if err != nil {
				t.Fatalf("Load(%q): %v", env, err)
			}
			if cfg.HTTP.Port == 0 {
				t.Error("expected a port")
			}
		})
	}
}

func TestFindConfigPath_Fallback(t *testing.T) {
	t.Chdir(t.TempDir())

	got := findConfigPath("nonexistent")
	if got != filepath.Join("config", "nonexistent.yaml") {
		t.Errorf("unexpected fallback path %q", got)
	}
}
