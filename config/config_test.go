package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
)

func setConfigPathForTest(t *testing.T, path string) {
	t.Helper()

	old := resolveConfigPath
	resolveConfigPath = func() (string, error) { return path, nil }
	t.Cleanup(func() { resolveConfigPath = old })
}

func TestLoadOrCreateConfigMissingCreatesDefault(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config", "config.toml")
	setConfigPathForTest(t, configPath)

	// Ensure missing
	if _, err := os.Stat(configPath); err == nil {
		t.Fatalf("expected config file to be missing")
	}

	created, err := LoadOrCreateConfig()
	if err != nil {
		t.Fatalf("LoadOrCreateConfig() error: %v", err)
	}
	if !created {
		t.Fatalf("LoadOrCreateConfig() created=false, want true")
	}

	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}

	var got Config
	if _, err := toml.DecodeFile(configPath, &got); err != nil {
		t.Fatalf("decode created config: %v", err)
	}
	if got.Server.Host != "127.0.0.1" {
		t.Fatalf("default server host = %q, want %q", got.Server.Host, "127.0.0.1")
	}
	if got.Server.Port != 8888 {
		t.Fatalf("default server port = %d, want %d", got.Server.Port, 8888)
	}
	if got.Select.MaxClips != 3 {
		t.Fatalf("default max clips = %d, want 3", got.Select.MaxClips)
	}
	if got.Render.CropWidth != 720 || got.Render.CropHeight != 1280 {
		t.Fatalf("default crop = %dx%d, want 720x1280", got.Render.CropWidth, got.Render.CropHeight)
	}
	if Conf.App.WorkDir == "" {
		t.Fatal("work dir should be resolved when the file does not set one")
	}
}

func TestLoadOrCreateConfigReadsExisting(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.toml")
	setConfigPathForTest(t, configPath)

	content := "[server]\nhost = \"0.0.0.0\"\nport = 9999\n\n[select]\nmin_words = 7\nmax_clips = 5\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	created, err := LoadOrCreateConfig()
	if err != nil {
		t.Fatalf("LoadOrCreateConfig() error: %v", err)
	}
	if created {
		t.Fatalf("LoadOrCreateConfig() created=true, want false")
	}

	if Conf.Server.Port != 9999 {
		t.Fatalf("server port = %d, want 9999", Conf.Server.Port)
	}
	if Conf.Select.MinWords != 7 || Conf.Select.MaxClips != 5 {
		t.Fatalf("select = %+v, want min_words 7, max_clips 5", Conf.Select)
	}
	// Sections absent from the file keep defaults
	if Conf.Scene.MaxDurationSeconds != 60 {
		t.Fatalf("scene max duration = %v, want default 60", Conf.Scene.MaxDurationSeconds)
	}
}

func TestEnvOverrides(t *testing.T) {
	tmp := t.TempDir()
	setConfigPathForTest(t, filepath.Join(tmp, "config.toml"))

	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("CLIPGEN_PORT", "7777")

	if _, err := LoadOrCreateConfig(); err != nil {
		t.Fatalf("LoadOrCreateConfig() error: %v", err)
	}

	if Conf.Supabase.Url != "https://example.supabase.co" {
		t.Fatalf("supabase url = %q, want env value", Conf.Supabase.Url)
	}
	if Conf.Server.Port != 7777 {
		t.Fatalf("server port = %d, want env override 7777", Conf.Server.Port)
	}
}

func TestSaveConfigCreatesParentDirs(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "deep", "nest", "config.toml")
	setConfigPathForTest(t, configPath)

	Conf = defaultConfig()
	if err := SaveConfig(); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}
}

func TestCheckConfig(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"zero window", func(c *Config) { c.Transcribe.WindowSeconds = 0 }, true},
		{"max below min duration", func(c *Config) { c.Scene.MaxDurationSeconds = 1 }, true},
		{"negative epsilon", func(c *Config) { c.Scene.FusionEpsilon = -1 }, true},
		{"zero max clips", func(c *Config) { c.Select.MaxClips = 0 }, true},
		{"negative min words", func(c *Config) { c.Select.MinWords = -1 }, true},
		{"zero crop", func(c *Config) { c.Render.CropWidth = 0 }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			Conf = defaultConfig()
			tc.mutate(&Conf)
			err := CheckConfig()
			if tc.wantErr && err == nil {
				t.Fatal("CheckConfig() = nil, want error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("CheckConfig() = %v, want nil", err)
			}
		})
	}
}
