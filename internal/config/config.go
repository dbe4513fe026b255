package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// global configuration structure
type Config struct {
	Bot        BotConfig        `mapstructure:"bot"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Moderation ModerationConfig `mapstructure:"moderation"`
}

// Telegram bot configuration
type BotConfig struct {
	Token   string        `mapstructure:"token"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// webhook server configuration
type WebhookConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ListenPort  string `mapstructure:"listen_port"`
	MetricsPath string `mapstructure:"metrics_path"`
	CertFile    string `mapstructure:"cert_file"`
	KeyFile     string `mapstructure:"key_file"`
}

// logging configuration
type LoggerConfig struct {
	Directory string            `mapstructure:"directory"`
	Rotation  LogRotationConfig `mapstructure:"rotation"`
	Level     string            `mapstructure:"level"`
}

// log rotation settings
type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
}

// moderation policy settings
type ModerationConfig struct {
	DefaultWarnLimit int     `mapstructure:"default_warn_limit"`
	DefaultSoftWarn  bool    `mapstructure:"default_soft_warn"`
	EnforceGbans     bool    `mapstructure:"enforce_gbans"`
	SudoUsers        []int64 `mapstructure:"sudo_users"`
	SupportUsers     []int64 `mapstructure:"support_users"`

	// FanoutDelay is the pause between per-chat calls during a gban
	// fan-out, to stay under platform rate limits.
	FanoutDelay time.Duration `mapstructure:"fanout_delay"`
	// ChatCallTimeout bounds any single per-chat platform call.
	ChatCallTimeout time.Duration `mapstructure:"chat_call_timeout"`
}

// IsSudo reports whether the user is one of the bot's superusers.
func (m *ModerationConfig) IsSudo(userID int64) bool {
	for _, id := range m.SudoUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// IsSupport reports whether the user is on the support list.
func (m *ModerationConfig) IsSupport(userID int64) bool {
	for _, id := range m.SupportUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// OperatorIDs returns the broadcast list for gban notifications.
func (m *ModerationConfig) OperatorIDs() []int64 {
	ids := make([]int64, 0, len(m.SudoUsers)+len(m.SupportUsers))
	ids = append(ids, m.SudoUsers...)
	ids = append(ids, m.SupportUsers...)
	return ids
}

var cfg *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Moderation.DefaultWarnLimit < 3 {
		return nil, fmt.Errorf("moderation.default_warn_limit must be at least 3, got %d", cfg.Moderation.DefaultWarnLimit)
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not initialized, call Load() first")
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.webhook.listen_port", "8443")
	v.SetDefault("bot.webhook.metrics_path", "/metrics")
	v.SetDefault("bot.webhook.cert_file", "")
	v.SetDefault("bot.webhook.key_file", "")

	v.SetDefault("logger.directory", "logs")
	v.SetDefault("logger.rotation.max_size", 10)
	v.SetDefault("logger.rotation.max_backups", 30)
	v.SetDefault("logger.rotation.max_age", 90)
	v.SetDefault("logger.rotation.compress", true)
	v.SetDefault("logger.level", "INFO")

	v.SetDefault("database.port", 3306)
	v.SetDefault("database.charset", "utf8mb4")

	v.SetDefault("moderation.default_warn_limit", 3)
	v.SetDefault("moderation.default_soft_warn", false)
	v.SetDefault("moderation.enforce_gbans", true)
	v.SetDefault("moderation.fanout_delay", 100*time.Millisecond)
	v.SetDefault("moderation.chat_call_timeout", 10*time.Second)
}
