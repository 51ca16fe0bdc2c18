package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFlexibleStringSlice(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"strings", `["123", "456"]`, []string{"123", "456"}},
		{"numbers", `[123, 456]`, []string{"123", "456"}},
		{"mixed", `["123", 456]`, []string{"123", "456"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got FlexibleStringSlice
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("UnmarshalJSON() error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Source.WSUrl == "" {
		t.Error("default source.ws_url is empty")
	}
	if cfg.MaxFileDownloadSize <= 0 {
		t.Error("default max_file_download_size is not positive")
	}
	if !cfg.AutoReply.Enabled {
		t.Error("auto reply not enabled by default")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"source": {"ws_url": "ws://10.0.0.5:3001", "access_token": "secret"},
		"telegram": {"token": "tg-token"},
		"routes": [{"sources": [1001, "1002"], "target": -100555}],
		"events": {"target": -100777, "excluded": [1001]}
	}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Source.WSUrl != "ws://10.0.0.5:3001" {
		t.Errorf("ws_url = %q", cfg.Source.WSUrl)
	}
	if cfg.Telegram.Token != "tg-token" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if len(cfg.Routes) != 1 || cfg.Routes[0].Target != -100555 {
		t.Fatalf("routes = %+v", cfg.Routes)
	}
	if cfg.Events.Target != -100777 || len(cfg.Events.Excluded) != 1 {
		t.Errorf("events = %+v", cfg.Events)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("BRIDGECLAW_TELEGRAM_TOKEN", "env-token")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Errorf("token = %q, want env-token", cfg.Telegram.Token)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate(defaults) error: %v", err)
	}

	cfg.Routes = []Route{{Sources: nil, Target: 1}}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted a route without sources")
	}

	cfg.Routes = []Route{{Sources: FlexibleStringSlice{"1001"}, Target: 0}}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted a route without a target")
	}

	cfg = DefaultConfig()
	cfg.Source.WSUrl = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted an empty ws_url")
	}
}

func TestTargetFor(t *testing.T) {
	cfg := &Config{Routes: []Route{
		{Sources: FlexibleStringSlice{"1001", "1002"}, Target: -1},
		{Sources: FlexibleStringSlice{"1002", "1003"}, Target: -2},
	}}

	if target, ok := cfg.TargetFor("1003"); !ok || target != -2 {
		t.Errorf("TargetFor(1003) = (%d, %v)", target, ok)
	}
	// First matching route wins.
	if target, ok := cfg.TargetFor("1002"); !ok || target != -1 {
		t.Errorf("TargetFor(1002) = (%d, %v), want first route", target, ok)
	}
	if _, ok := cfg.TargetFor("9999"); ok {
		t.Error("TargetFor(9999) matched, want no route")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Telegram.Token = "tok"
	cfg.Routes = []Route{{Sources: FlexibleStringSlice{"1"}, Target: 2}}

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if got.Telegram.Token != "tok" || len(got.Routes) != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
