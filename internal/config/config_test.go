package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "local" {
		t.Errorf("expected local storage, got %s", cfg.Storage.Driver)
	}
	if cfg.Scheduler.RunHour != 6 || cfg.Scheduler.Budget != 10*time.Minute {
		t.Errorf("unexpected scheduler defaults %+v", cfg.Scheduler)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "9000"
storage:
  driver: s3
  bucket: hr-documents
  region: eu-central-1
mail:
  host: smtp.example.com
  rate_per_second: 2.5
auth:
  jwt_secret: from-file
scheduler:
  run_hour: 4
  timezone: Europe/Moscow
  budget: 2m
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("APP_CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SCHEDULER_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Errorf("expected env to override port, got %s", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "s3" || cfg.Storage.Bucket != "hr-documents" {
		t.Errorf("unexpected storage %+v", cfg.Storage)
	}
	if cfg.Mail.Host != "smtp.example.com" || cfg.Mail.RatePerSecond != 2.5 || cfg.Mail.QueueSize != 1000 {
		t.Errorf("unexpected mail %+v", cfg.Mail)
	}
	if cfg.Auth.JWTSecret != "from-file" {
		t.Errorf("expected secret from file, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Scheduler.Enabled || cfg.Scheduler.RunHour != 4 || cfg.Scheduler.Budget != 2*time.Minute {
		t.Errorf("unexpected scheduler %+v", cfg.Scheduler)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"unknown storage", map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "ftp"}},
		{"s3 without bucket", map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "s3"}},
		{"bad hour", map[string]string{"JWT_SECRET": "s", "SCHEDULER_RUN_HOUR": "25"}},
		{"bad timezone", map[string]string{"JWT_SECRET": "s", "SCHEDULER_TIMEZONE": "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_CONFIG_FILE", "")
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
