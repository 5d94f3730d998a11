package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("CORS_ORIGINS", "https://academy.example, http://localhost:5173 ,")
	t.Setenv("VIDEO_POLL_INTERVAL", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DB.Enabled() {
		t.Fatalf("port = %s, db enabled = %v", cfg.Port, cfg.DB.Enabled())
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://localhost:5173" {
		t.Fatalf("origins = %v", cfg.CORSOrigins)
	}
	if cfg.Editor.VideoPollInterval != 2*time.Second || cfg.Editor.VideoRenderTimeout != 10*time.Minute {
		t.Fatalf("editor = %+v", cfg.Editor)
	}
	if cfg.Media.MaxUploadBytes != 20<<20 {
		t.Fatalf("max upload = %d", cfg.Media.MaxUploadBytes)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:      "8080",
			JWTSecret: "0123456789abcdef",
			Editor:    EditorConfig{VideoPollInterval: time.Second, VideoRenderTimeout: time.Minute},
		}
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	cases := map[string]func(c *Config){
		"port":          func(c *Config) { c.Port = "99999" },
		"secret":        func(c *Config) { c.JWTSecret = "short" },
		"poll>=timeout": func(c *Config) { c.Editor.VideoPollInterval = time.Hour },
		"admin pair":    func(c *Config) { c.BootstrapAdmin.Email = "a@b.de" },
		"admin pw":      func(c *Config) { c.BootstrapAdmin = AdminConfig{Email: "a@b.de", Password: "123"} },
	}
	for name, mutate := range cases {
		c := base()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestDSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "require"}
	dsn := c.DSN()
	for _, want := range []string{"host=db", "sslmode=require", "dbname=n"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("dsn %q missing %q", dsn, want)
		}
	}
}
