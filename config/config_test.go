package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("IMDB_RANK_CONFIG", "")
	chdirForTest(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TargetType != "movie" {
		t.Errorf("TargetType: got %q, want movie", cfg.TargetType)
	}
	if cfg.PriorRating != 7.0 {
		t.Errorf("PriorRating: got %g, want 7", cfg.PriorRating)
	}
	if cfg.PriorWeight != 25000 {
		t.Errorf("PriorWeight: got %g, want 25000", cfg.PriorWeight)
	}
	if cfg.TopN != 9999 {
		t.Errorf("TopN: got %d, want 9999", cfg.TopN)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirForTest(t, t.TempDir())
	t.Setenv("IMDB_RANK_CONFIG", "")
	t.Setenv("TOP_N", "50")
	t.Setenv("PRIOR_RATING", "6.5")
	t.Setenv("TARGET_TYPE", "tvMovie")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TopN != 50 || cfg.PriorRating != 6.5 || cfg.TargetType != "tvMovie" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadTOMLOverlay(t *testing.T) {
	dir := t.TempDir()
	chdirForTest(t, dir)
	t.Setenv("TOP_N", "50")

	path := filepath.Join(dir, "imdb-rank.toml")
	content := "top_n = 100\nstore_driver = \"sqlite\"\nsqlite_path = \"movies.db\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TopN != 100 {
		t.Errorf("TopN: got %d, want 100 from file", cfg.TopN)
	}
	if cfg.StoreDriver != "sqlite" || cfg.SQLitePath != "movies.db" {
		t.Errorf("store settings: got %q/%q", cfg.StoreDriver, cfg.SQLitePath)
	}
	if cfg.PriorWeight != 25000 {
		t.Errorf("PriorWeight should keep default, got %g", cfg.PriorWeight)
	}
}

func TestLoadMissingFile(t *testing.T) {
	chdirForTest(t, t.TempDir())
	if _, err := Load("does-not-exist.toml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			BasicsPath:  "b.tsv",
			RatingsPath: "r.tsv",
			OutputPath:  "out.csv",
			TargetType:  "movie",
			PriorRating: 7,
			PriorWeight: 25000,
			TopN:        9999,
			StoreDriver: "postgres",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero top n", func(c *Config) { c.TopN = 0 }, "top_n"},
		{"negative weight", func(c *Config) { c.PriorWeight = -1 }, "prior_weight"},
		{"prior out of range", func(c *Config) { c.PriorRating = 11 }, "prior_rating"},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mysql" }, "store_driver"},
		{"no output", func(c *Config) { c.OutputPath = " " }, "output_path"},
	}

	for _, tt := range tests {
		cfg := base()
		tt.mutate(cfg)
		err := cfg.Validate()
		if tt.wantErr == "" {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tt.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: got %v, want error containing %q", tt.name, err, tt.wantErr)
		}
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost: "db", PostgresPort: "5432", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "imdb", PostgresSSLMode: "disable",
	}
	want := "host=db port=5432 user=u password=p dbname=imdb sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}
