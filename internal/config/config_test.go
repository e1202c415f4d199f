package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(t *testing.T, cfg Config)
	}{
		{
			name:    "no environment variables uses defaults",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg Config) {
				defaults := Default()
				if cfg.DBPath != defaults.DBPath {
					t.Errorf("DBPath = %v, want %v", cfg.DBPath, defaults.DBPath)
				}
				if cfg.EventRetentionDays != defaults.EventRetentionDays {
					t.Errorf("EventRetentionDays = %v, want %v", cfg.EventRetentionDays, defaults.EventRetentionDays)
				}
				if cfg.NudgesPerHour != defaults.NudgesPerHour {
					t.Errorf("NudgesPerHour = %v, want %v", cfg.NudgesPerHour, defaults.NudgesPerHour)
				}
			},
		},
		{
			name: "valid custom configuration",
			envVars: map[string]string{
				"DAYFOLD_DB_PATH":                  "/tmp/test.db",
				"DAYFOLD_TIME_ZONE":                "America/New_York",
				"DAYFOLD_OWNER":                    "alice",
				"DAYFOLD_EVENT_RETENTION_DAYS":     "90",
				"DAYFOLD_EVENT_CLEANUP_BATCH_SIZE": "100",
				"DAYFOLD_GOAL_EVAL_CONCURRENCY":    "8",
				"DAYFOLD_NUDGES_PER_HOUR":          "2",
			},
			check: func(t *testing.T, cfg Config) {
				if cfg.DBPath != "/tmp/test.db" {
					t.Errorf("DBPath = %v", cfg.DBPath)
				}
				if cfg.TimeZone != "America/New_York" {
					t.Errorf("TimeZone = %v", cfg.TimeZone)
				}
				if cfg.Owner != "alice" {
					t.Errorf("Owner = %v", cfg.Owner)
				}
				if cfg.EventRetentionDays != 90 {
					t.Errorf("EventRetentionDays = %v", cfg.EventRetentionDays)
				}
				if cfg.GoalEvalConcurrency != 8 {
					t.Errorf("GoalEvalConcurrency = %v", cfg.GoalEvalConcurrency)
				}
			},
		},
		{
			name:    "invalid time zone",
			envVars: map[string]string{"DAYFOLD_TIME_ZONE": "Mars/Olympus_Mons"},
			wantErr: true,
		},
		{
			name:    "retention too short",
			envVars: map[string]string{"DAYFOLD_EVENT_RETENTION_DAYS": "5"},
			wantErr: true,
		},
		{
			name:    "non-numeric int",
			envVars: map[string]string{"DAYFOLD_NUDGES_PER_HOUR": "lots"},
			wantErr: true,
		},
		{
			name:    "concurrency out of range",
			envVars: map[string]string{"DAYFOLD_GOAL_EVAL_CONCURRENCY": "100"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Point the file path somewhere empty so a developer's real
			// config cannot leak into the test.
			t.Setenv("DAYFOLD_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := FromEnv()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got config %s", cfg)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromEnv: %v", err)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := []byte("db_path: /tmp/from-file.db\nevent_retention_days: 180\nowner: carol\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("DAYFOLD_CONFIG", path)

	t.Run("FileOverridesDefaults", func(t *testing.T) {
		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("FromEnv: %v", err)
		}
		if cfg.DBPath != "/tmp/from-file.db" {
			t.Errorf("DBPath = %v", cfg.DBPath)
		}
		if cfg.EventRetentionDays != 180 {
			t.Errorf("EventRetentionDays = %v", cfg.EventRetentionDays)
		}
		if cfg.Owner != "carol" {
			t.Errorf("Owner = %v", cfg.Owner)
		}
	})

	t.Run("EnvOverridesFile", func(t *testing.T) {
		t.Setenv("DAYFOLD_OWNER", "dave")
		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("FromEnv: %v", err)
		}
		if cfg.Owner != "dave" {
			t.Errorf("Owner = %v, env should win over file", cfg.Owner)
		}
	})

	t.Run("MalformedFileRejected", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(bad, []byte("db_path: [unclosed"), 0o644); err != nil {
			t.Fatalf("write bad file: %v", err)
		}
		t.Setenv("DAYFOLD_CONFIG", bad)
		if _, err := FromEnv(); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}

	cfg.DBPath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty db_path should fail")
	}
}
