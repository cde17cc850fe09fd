package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/opinions/internal/errors"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()
	if cfg.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, DefaultAddr)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("Level() = %v, want info", cfg.Level())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}
	if cfg.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want default", cfg.Addr)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `{
  "addr": "127.0.0.1:9000",
  "logLevel": "debug",
  "store": {"backend": "sqlite", "sqlitePath": "votes.db"}
}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.Store.Backend != BackendSQLite || cfg.Store.SQLitePath != "votes.db" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level() = %v, want debug", cfg.Level())
	}
	if cfg.Remote != DefaultRemote {
		t.Errorf("Remote = %q, want default filled in", cfg.Remote)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "opinions.yml"), `
metrics: true
store:
  backend: s3
  s3:
    bucket: votes
    region: eu-west-1
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := StoreConfig{
		Backend:    BackendS3,
		SQLitePath: DefaultSQLitePath,
		S3:         S3Config{Bucket: "votes", Region: "eu-west-1", Key: DefaultS3Key},
	}
	if diff := cmp.Diff(want, cfg.Store); diff != "" {
		t.Errorf("Store mismatch (-want +got):\n%s", diff)
	}
	if !cfg.Metrics {
		t.Error("Metrics = false, want true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadFileParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	writeFile(t, path, `{"addr": `)

	_, err := LoadFile(path)
	if !errors.Is(err, "E101") {
		t.Fatalf("LoadFile() error = %v, want E101", err)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := New()
	err := cfg.ApplyEnv(map[string]string{
		"OPINIONS_ADDR":          ":9090",
		"OPINIONS_STORE":         "s3",
		"OPINIONS_S3_BUCKET":     "b",
		"OPINIONS_S3_REGION":     "us-east-1",
		"OPINIONS_S3_ENDPOINT":   "http://localhost:9000",
		"OPINIONS_S3_PATH_STYLE": "true",
		"OPINIONS_METRICS":       "true",
		"OPINIONS_LOG_LEVEL":     "warn",
		"UNRELATED":              "x",
	})
	if err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	want := New()
	want.Addr = ":9090"
	want.Metrics = true
	want.LogLevel = "warn"
	want.Store.Backend = BackendS3
	want.Store.S3.Bucket = "b"
	want.Store.S3.Region = "us-east-1"
	want.Store.S3.Endpoint = "http://localhost:9000"
	want.Store.S3.UsePathStyle = true

	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyEnvBadValue(t *testing.T) {
	err := New().ApplyEnv(map[string]string{"OPINIONS_METRICS": "maybe"})
	if !errors.Is(err, "E102") {
		t.Fatalf("ApplyEnv() error = %v, want E102", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, YAMLFileName), "addr: \":7000\"\n")
	t.Setenv("OPINIONS_ADDR", ":7001")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":7001" {
		t.Errorf("Addr = %q, want env value", cfg.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		code   string
	}{
		{"bad addr", func(c *Config) { c.Addr = "nope" }, "E106"},
		{"bad remote", func(c *Config) { c.Remote = "localhost:8080" }, "E100"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "E105"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }, "E103"},
		{"empty sqlite path", func(c *Config) {
			c.Store.Backend = BackendSQLite
			c.Store.SQLitePath = " "
		}, "E100"},
		{"incomplete s3", func(c *Config) { c.Store.Backend = BackendS3 }, "E104"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.code) {
				t.Errorf("Validate() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestValidateIncompleteS3ListsFields(t *testing.T) {
	cfg := New()
	cfg.Store.Backend = BackendS3
	cfg.Store.S3.Key = ""

	err := cfg.Validate()
	var e *errors.Error
	if !asError(err, &e) {
		t.Fatalf("Validate() = %v, want *errors.Error", err)
	}
	if diff := cmp.Diff([]string{"bucket", "key", "region"}, e.Messages); diff != "" {
		t.Errorf("Messages mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	for _, name := range []string{ConfigFileName, YAMLFileName} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := New()
			cfg.Addr = "localhost:8181"
			cfg.Store.Backend = BackendSQLite
			cfg.Store.S3.SecretAccessKey = "secret"

			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo() error = %v", err)
			}
			if cfg.Path() != path {
				t.Errorf("Path() = %q, want %q", cfg.Path(), path)
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if loaded.Addr != "localhost:8181" || loaded.Store.Backend != BackendSQLite {
				t.Errorf("loaded = %+v", loaded)
			}
			if loaded.Store.S3.SecretAccessKey != "" {
				t.Error("secret key was written to the config file")
			}
		})
	}
}

func asError(err error, target **errors.Error) bool {
	e, ok := err.(*errors.Error)
	if ok {
		*target = e
	}
	return ok
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
