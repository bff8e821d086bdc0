package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerPort != 8080 || cfg.Database.Driver != "sqlite" || cfg.MirrorTTL != 30*time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Auth.AdminUsername != "admin" || cfg.Auth.AdminPassword != "admin123" {
		t.Fatalf("unexpected admin defaults: %+v", cfg.Auth)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.EmailJS.Configured() {
		t.Fatalf("emailjs should default to demo mode")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())

	cases := map[string]map[string]string{
		"driver":     {"STORE_DRIVER": "mysql"},
		"port":       {"SERVER_PORT": "0"},
		"rate limit": {"RATE_LIMIT_PER_MINUTE": "-1"},
		"secret":     {"ENVIRONMENT": "production", "JWT_SECRET": ""},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestEmailJSConfigured(t *testing.T) {
	e := EmailJS{ServiceID: "s", TemplateID: "t", PublicKey: "k"}
	if !e.Configured() {
		t.Fatalf("expected configured")
	}
	e.PublicKey = ""
	if e.Configured() {
		t.Fatalf("missing key should mean demo mode")
	}
}
