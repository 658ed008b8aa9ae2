// Package config loads the daemon configuration from a YAML file with
// environment-variable overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// MailboxConfig holds the IMAP connection and scan settings.
type MailboxConfig struct {
	// Host is the IMAP server hostname.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the IMAPS port. Defaults to 993.
	Port int `mapstructure:"port" yaml:"port"`

	// Username is the mailbox account name.
	Username string `mapstructure:"username" yaml:"username"`

	// Password is the mailbox password. Prefer the IMAP_PASS environment
	// variable or the OS keyring over storing it in the config file.
	Password string `mapstructure:"password" yaml:"password"`

	// Sender restricts fetching to mail from this address.
	Sender string `mapstructure:"sender" yaml:"sender"`

	// Folder is the mailbox folder to monitor.
	Folder string `mapstructure:"folder" yaml:"folder"`

	// PollIntervalSec is the fallback scan interval (in seconds) used
	// when the server does not support IDLE.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// StoreConfig holds the lead database settings.
type StoreConfig struct {
	// Driver selects the database backend ("sqlite" or "postgres").
	Driver string `mapstructure:"driver" yaml:"driver"`

	// DSN is the database path (sqlite) or connection URL (postgres).
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// QueueConfig holds the optional message-broker settings.
type QueueConfig struct {
	// URL is the AMQP broker URL. Empty disables event publishing.
	URL string `mapstructure:"url" yaml:"url"`
}

// LogConfig holds the logger sink settings.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// IngestConfig holds the processing settings.
type IngestConfig struct {
	// Workers bounds how many messages are processed concurrently.
	Workers int `mapstructure:"workers" yaml:"workers"`

	// BatchTimeoutSec bounds a single fetch-and-process sweep.
	BatchTimeoutSec int `mapstructure:"batch_timeout_sec" yaml:"batch_timeout_sec"`
}

// Config is the top-level daemon configuration.
type Config struct {
	Mailbox MailboxConfig `mapstructure:"mailbox" yaml:"mailbox"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Queue   QueueConfig   `mapstructure:"queue" yaml:"queue"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Ingest  IngestConfig  `mapstructure:"ingest" yaml:"ingest"`
}

// DefaultPath returns the default configuration file location,
// ~/.config/adf-ingest/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "adf-ingest", "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mailbox.host", "")
	v.SetDefault("mailbox.port", 993)
	v.SetDefault("mailbox.username", "")
	v.SetDefault("mailbox.password", "")
	v.SetDefault("mailbox.sender", "leads@yourdomain.com")
	v.SetDefault("mailbox.folder", "INBOX")
	v.SetDefault("mailbox.poll_interval_sec", 15)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "adf-ingest.db")
	v.SetDefault("queue.url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "adfIngest.log")
	v.SetDefault("log.max_size_mb", 1)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("ingest.workers", 4)
	v.SetDefault("ingest.batch_timeout_sec", 30)
}

func bindEnv(v *viper.Viper) {
	// Ignored errors: BindEnv only fails with zero arguments.
	_ = v.BindEnv("mailbox.host", "IMAP_HOST")
	_ = v.BindEnv("mailbox.port", "IMAP_PORT")
	_ = v.BindEnv("mailbox.username", "IMAP_USER")
	_ = v.BindEnv("mailbox.password", "IMAP_PASS")
	_ = v.BindEnv("mailbox.sender", "ADF_SENDER")
	_ = v.BindEnv("store.dsn", "DATABASE_URL")
	_ = v.BindEnv("queue.url", "AMQP_URL")
}

// Load reads the configuration from the given YAML file path using Viper.
// A missing file is not an error; defaults and environment overrides
// still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		_, pathErr := err.(*os.PathError)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !pathErr && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
