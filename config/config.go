/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config resolves the service configuration once at startup.
//
// Sources are applied in order, later ones winning: built-in defaults, an
// optional YAML file, .env files and finally the process environment.
// Values in .env files never replace variables already set in the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/tomoncle/sales-performance/database"
	"github.com/tomoncle/sales-performance/utils"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIPort = 8000
	AppTitle       = "Sales Performance API"
	AppVersion     = "1.0.0"
)

type ServerConfig struct {
	Bind            string        `yaml:"bind"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	StrictConfig    bool          `yaml:"strict_config"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Bind, s.Port)
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type Config struct {
	Server   ServerConfig              `yaml:"server"`
	Database database.ConnectionConfig `yaml:"database"`
	Log      LogConfig                 `yaml:"log"`
}

// Default returns the configuration used when no source overrides anything.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Bind:            "0.0.0.0",
			Port:            DefaultAPIPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: *database.DefaultConnectionConfig(),
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// Load resolves the configuration. file may be empty. When envFiles is empty
// ".env" in the working directory is tried; missing env files are skipped.
func Load(file string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", file, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	database.ApplyEnv(&cfg.Database)

	cfg.Server.Bind = utils.EnvDefaultString("API_BIND", cfg.Server.Bind)
	cfg.Server.Port = utils.EnvDefaultInt("API_PORT", cfg.Server.Port)
	cfg.Server.RequestTimeout = utils.EnvDefaultSeconds("API_REQUEST_TIMEOUT", cfg.Server.RequestTimeout)
	cfg.Server.ShutdownTimeout = utils.EnvDefaultSeconds("API_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.StrictConfig = utils.EnvDefaultBool("STRICT_CONFIG", cfg.Server.StrictConfig)

	cfg.Log.Level = utils.EnvDefaultString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = utils.EnvDefaultString("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = utils.EnvDefaultString("LOG_FILE", cfg.Log.File)
}

// Validate reports settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid API port: %d", c.Server.Port)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}
	if c.Server.StrictConfig && c.Database.UsesDefaultPassword() {
		return fmt.Errorf("invalid database config: DB_PASSWORD is the built-in placeholder")
	}
	return nil
}
