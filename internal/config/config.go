package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type InviteConfig struct {
	TTLHours    int    `mapstructure:"ttl_hours"`
	URLTemplate string `mapstructure:"url_template"`
	SweepCron   string `mapstructure:"sweep_cron"`
}

// TTL is the lifetime stamped on newly issued invites.
func (c InviteConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

type EmailConfig struct {
	From     string `mapstructure:"from"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type Config struct {
	DatabaseURL string       `mapstructure:"database_url"`
	ServerPort  string       `mapstructure:"server_port"`
	JWTSecret   string       `mapstructure:"jwt_secret"`
	Invite      InviteConfig `mapstructure:"invite"`
	Email       EmailConfig  `mapstructure:"email"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}

	if config.JWTSecret == "" {
		log.Fatal("JWT secret must be set in the config file")
	}

	if config.Invite.TTLHours == 0 {
		config.Invite.TTLHours = 168
	}
	if config.Invite.URLTemplate == "" {
		config.Invite.URLTemplate = "https://app.bookwell.dev/invites/respond?token=%s"
	}
	if config.Invite.SweepCron == "" {
		config.Invite.SweepCron = "@every 1h"
	}

	if config.Email.SMTPPort == 0 {
		config.Email.SMTPPort = 587
	}

	return &config
}
