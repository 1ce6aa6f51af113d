package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Backend struct {
		BaseURL        string `mapstructure:"base_url"`
		APIKey         string `mapstructure:"api_key"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	} `mapstructure:"backend"`

	Workspace struct {
		ID string `mapstructure:"id"`
	} `mapstructure:"workspace"`

	Upload struct {
		// AllowedKinds is the content-kind allow-list; submissions with any
		// other declared kind are rejected before a record is created.
		AllowedKinds []string `mapstructure:"allowed_kinds"`
		MaxFileBytes int64    `mapstructure:"max_file_bytes"`
	} `mapstructure:"upload"`

	Progress struct {
		TickMs    int `mapstructure:"tick_ms"`
		Increment int `mapstructure:"increment"`
		Ceiling   int `mapstructure:"ceiling"`
	} `mapstructure:"progress"`

	Origin struct {
		// Path to the SQLite file backing the origin marker slot.
		Path string `mapstructure:"path"`
	} `mapstructure:"origin"`

	Server struct {
		Addr string `mapstructure:"addr"`
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("backend.base_url", "http://localhost:9090")
	viper.SetDefault("backend.timeout_seconds", 30)
	viper.SetDefault("upload.allowed_kinds", []string{
		"text/plain",
		"text/html",
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	})
	viper.SetDefault("upload.max_file_bytes", int64(25<<20))
	viper.SetDefault("progress.tick_ms", 500)
	viper.SetDefault("progress.increment", 10)
	viper.SetDefault("progress.ceiling", 90)
	viper.SetDefault("origin.path", "muninn-origin.db")
	viper.SetDefault("server.addr", "localhost")
	viper.SetDefault("server.port", "8080")

	// Allow Viper to read environment variables. The API key is bound
	// explicitly so it can be supplied without a config file at all.
	viper.AutomaticEnv()
	viper.BindEnv("backend.api_key", "MUNINN_API_KEY")
	viper.BindEnv("workspace.id", "MUNINN_WORKSPACE_ID")

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
