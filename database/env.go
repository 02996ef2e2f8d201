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

package database

import (
	"github.com/tomoncle/sales-performance/utils"
)

// ConfigFromEnv returns the default configuration with the environment
// applied.
func ConfigFromEnv() *ConnectionConfig {
	cfg := DefaultConnectionConfig()
	ApplyEnv(cfg)
	return cfg
}

// ApplyEnv overrides cfg with the DB_* environment variables. Connection
// values (host, port, name, user, password) are taken as set, even when
// empty; the remaining settings ignore empty values.
func ApplyEnv(cfg *ConnectionConfig) {
	if cfg == nil {
		return
	}
	cfg.Type = utils.EnvDefaultString("DB_TYPE", cfg.Type)

	// Database connection info
	cfg.Host = utils.EnvLookupString("DB_HOST", cfg.Host)
	cfg.Port = utils.EnvLookupString("DB_PORT", cfg.Port)
	cfg.Username = utils.EnvLookupString("DB_USERNAME", cfg.Username)
	cfg.Username = utils.EnvLookupString("DB_USER", cfg.Username)
	cfg.Password = utils.EnvLookupString("DB_PASSWORD", cfg.Password)
	cfg.DBName = utils.EnvLookupString("DB_NAME", cfg.DBName)
	cfg.SSLMode = utils.EnvDefaultString("DB_SSLMODE", cfg.SSLMode)
	cfg.Charset = utils.EnvDefaultString("DB_CHARSET", cfg.Charset)

	// Connection pool config
	cfg.MaxIdleConns = utils.EnvDefaultInt("DB_MAX_IDLE_CONNS", cfg.MaxIdleConns)
	cfg.MaxOpenConns = utils.EnvDefaultInt("DB_MAX_OPEN_CONNS", cfg.MaxOpenConns)
	cfg.ConnMaxLifetime = utils.EnvDefaultSeconds("DB_CONN_MAX_LIFETIME", cfg.ConnMaxLifetime)
	cfg.HealthCheckInterval = utils.EnvDefaultSeconds("DB_HEALTH_CHECK_INTERVAL", cfg.HealthCheckInterval)

	// Logging config
	cfg.EnableQueryLog = utils.EnvDefaultBool("DB_ENABLE_QUERY_LOG", cfg.EnableQueryLog)
	cfg.SlowQueryTime = utils.EnvDefaultSeconds("DB_SLOW_QUERY_TIME", cfg.SlowQueryTime)
}
