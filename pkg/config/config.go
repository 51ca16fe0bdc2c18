package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so route sources can contain both "123456" and 123456.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	// Try []string first
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	// Try []interface{} to handle mixed types
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Source    SourceConfig    `json:"source"`
	Telegram  TelegramConfig  `json:"telegram"`
	Routes    []Route         `json:"routes"`
	Events    EventsConfig    `json:"events"`
	AutoReply AutoReplyConfig `json:"auto_reply"`

	// MaxFileDownloadSize caps the bytes fetched per group file, in bytes.
	// Larger files are redelivered as a link-only notice.
	MaxFileDownloadSize int64 `env:"BRIDGECLAW_MAX_FILE_DOWNLOAD_SIZE" json:"max_file_download_size"`

	LogLevel string `env:"BRIDGECLAW_LOG_LEVEL" json:"log_level"`
}

// SourceConfig holds the OneBot-style source connection settings.
type SourceConfig struct {
	WSUrl             string `env:"BRIDGECLAW_SOURCE_WS_URL"             json:"ws_url"`
	AccessToken       string `env:"BRIDGECLAW_SOURCE_ACCESS_TOKEN"       json:"access_token"`
	ReconnectInterval int    `env:"BRIDGECLAW_SOURCE_RECONNECT_INTERVAL" json:"reconnect_interval"` // seconds
}

// TelegramConfig holds the destination bot settings.
type TelegramConfig struct {
	Token string `env:"BRIDGECLAW_TELEGRAM_TOKEN" json:"token"`
}

// Route maps one or more source groups onto a destination chat.
type Route struct {
	Sources FlexibleStringSlice `json:"sources"`
	Target  int64               `json:"target"`
}

// EventsConfig controls lifecycle-event forwarding to the operator chat.
type EventsConfig struct {
	Target   int64               `env:"BRIDGECLAW_EVENTS_TARGET" json:"target"`
	Excluded FlexibleStringSlice `json:"excluded"`
}

// AutoReplyConfig controls the canned reply sent back on the source side for
// direct messages. Each sender is answered at most once per window.
type AutoReplyConfig struct {
	Enabled      bool   `env:"BRIDGECLAW_AUTO_REPLY_ENABLED"       json:"enabled"`
	FriendText   string `env:"BRIDGECLAW_AUTO_REPLY_FRIEND_TEXT"   json:"friend_text"`
	StrangerText string `env:"BRIDGECLAW_AUTO_REPLY_STRANGER_TEXT" json:"stranger_text"`
	WindowDays   int    `env:"BRIDGECLAW_AUTO_REPLY_WINDOW_DAYS"   json:"window_days"`
}

func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			WSUrl:             "ws://127.0.0.1:3001",
			ReconnectInterval: 5,
		},
		AutoReply: AutoReplyConfig{
			Enabled:      true,
			FriendText:   "this account is bridged; messages here are not monitored",
			StrangerText: "this account is bridged and does not accept messages from strangers",
			WindowDays:   7,
		},
		MaxFileDownloadSize: 50 << 20,
		LogLevel:            "info",
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate rejects configurations the bridge cannot run with.
func (c *Config) Validate() error {
	if c.Source.WSUrl == "" {
		return fmt.Errorf("source.ws_url is required")
	}
	for i, r := range c.Routes {
		if len(r.Sources) == 0 {
			return fmt.Errorf("routes[%d]: at least one source group is required", i)
		}
		if r.Target == 0 {
			return fmt.Errorf("routes[%d]: target chat is required", i)
		}
	}
	return nil
}

// TargetFor resolves the destination chat for a source group. The first
// matching route wins.
func (c *Config) TargetFor(groupID string) (int64, bool) {
	for _, r := range c.Routes {
		for _, src := range r.Sources {
			if src == groupID {
				return r.Target, true
			}
		}
	}
	return 0, false
}
