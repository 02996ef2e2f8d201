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
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
)

const (
	DefaultDBType     = "mysql"
	DefaultDBHost     = "localhost"
	DefaultDBPort     = "3306"
	DefaultDBName     = "sales_performance_db"
	DefaultDBUser     = "root"
	DefaultDBPassword = "your_password_here"
)

var supportedTypes = []string{"mysql", "postgres", "sqlite"}

// Engine owns the process-wide connection pool and creates sessions bound to it.
type Engine interface {
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) *HealthStatus
	GetDB() *bun.DB
	GetSQLDB() *sql.DB
	NewSession() *Session
	GetStats() *DBStats
	SetLogger(logger Logger)
	Close() error
}

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	OpenSessions  int64         `json:"open_sessions"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql pool stats plus session counters.
type DBStats struct {
	MaxOpenConns      int           `json:"max_open_conns"`
	OpenConns         int           `json:"open_conns"`
	InUse             int           `json:"in_use"`
	Idle              int           `json:"idle"`
	WaitCount         int64         `json:"wait_count"`
	WaitDuration      time.Duration `json:"wait_duration"`
	MaxIdleClosed     int64         `json:"max_idle_closed"`
	MaxIdleTimeClosed int64         `json:"max_idle_time_closed"`
	MaxLifetimeClosed int64         `json:"max_lifetime_closed"`
	SessionsCreated   int64         `json:"sessions_created"`
	SessionsOpen      int64         `json:"sessions_open"`
}

// ConnectionConfig describes how to reach the database and size its pool.
type ConnectionConfig struct {
	Type                string        `json:"type" yaml:"type"` // mysql, postgres, sqlite
	Host                string        `json:"host" yaml:"host"`
	Port                string        `json:"port" yaml:"port"`
	Username            string        `json:"user" yaml:"user"`
	Password            string        `json:"-" yaml:"password"`
	DBName              string        `json:"dbname" yaml:"dbname"`
	SSLMode             string        `json:"sslmode" yaml:"sslmode"`
	Charset             string        `json:"charset" yaml:"charset"` // MySQL only
	MaxIdleConns        int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	MaxOpenConns        int           `json:"max_open_conns" yaml:"max_open_conns"`
	ConnMaxLifetime     time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime     time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`
	ConnectTimeout      time.Duration `json:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout         time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout        time.Duration `json:"write_timeout" yaml:"write_timeout"`
	HealthCheckInterval time.Duration `json:"health_check_interval" yaml:"health_check_interval"`
	EnableQueryLog      bool          `json:"enable_query_log" yaml:"enable_query_log"`
	SlowQueryTime       time.Duration `json:"slow_query_time" yaml:"slow_query_time"`
}

// DefaultConnectionConfig returns the development defaults. They let the
// process start without any configuration; production deployments override
// at least the password.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Type:            DefaultDBType,
		Host:            DefaultDBHost,
		Port:            DefaultDBPort,
		Username:        DefaultDBUser,
		Password:        DefaultDBPassword,
		DBName:          DefaultDBName,
		Charset:         "utf8mb4",
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		ConnectTimeout:  time.Second * 10,
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		EnableQueryLog:  false,
		SlowQueryTime:   time.Second * 2,
	}
}

// Scheme returns the fixed URL scheme for the configured driver type.
func (c *ConnectionConfig) Scheme() string {
	switch c.normalizedType() {
	case "postgres":
		return "postgres"
	case "sqlite":
		return "sqlite"
	default:
		return "mysql"
	}
}

// URL composes <scheme>://<user>:<password>@<host>:<port>/<database>.
// Values are inserted verbatim.
func (c *ConnectionConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s@%s:%s/%s",
		c.Scheme(),
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.DBName,
	)
}

// RedactedURL is URL with the password masked, for logs.
func (c *ConnectionConfig) RedactedURL() string {
	return fmt.Sprintf("%s://%s:***@%s:%s/%s", c.Scheme(), c.Username, c.Host, c.Port, c.DBName)
}

// DSN returns the driver-specific data source name. Credentials are escaped
// for the driver, unlike URL.
func (c *ConnectionConfig) DSN() string {
	switch c.normalizedType() {
	case "postgres":
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		query := url.Values{}
		query.Set("sslmode", sslMode)
		query.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
		dsn := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.Username, c.Password),
			Host:     net.JoinHostPort(c.Host, c.Port),
			Path:     "/" + c.DBName,
			RawQuery: query.Encode(),
		}
		return dsn.String()
	case "sqlite":
		if c.DBName == ":memory:" || strings.HasPrefix(c.DBName, "file:") || strings.HasSuffix(c.DBName, ".db") {
			return c.DBName
		}
		return fmt.Sprintf("%s.db", c.DBName)
	default:
		charset := c.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		mc := mysql.NewConfig()
		mc.User = c.Username
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, c.Port)
		mc.DBName = c.DBName
		mc.ParseTime = true
		mc.Loc = time.Local
		mc.Timeout = c.ConnectTimeout
		mc.ReadTimeout = c.ReadTimeout
		mc.WriteTimeout = c.WriteTimeout
		_ = mc.Apply(mysql.Charset(charset, ""))
		return mc.FormatDSN()
	}
}

// UsesDefaultPassword reports whether the development placeholder is in effect.
func (c *ConnectionConfig) UsesDefaultPassword() bool {
	return c.normalizedType() != "sqlite" && c.Password == DefaultDBPassword
}

// Validate checks the settings that cannot be deferred to first use.
func (c *ConnectionConfig) Validate() error {
	t := c.normalizedType()
	supported := false
	for _, s := range supportedTypes {
		if t == s {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported database type: %s, supported types: %v", c.Type, supportedTypes)
	}
	if c.DBName == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if t != "sqlite" && c.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}
	return nil
}

func (c *ConnectionConfig) normalizedType() string {
	switch strings.ToLower(strings.TrimSpace(c.Type)) {
	case "", "mysql":
		return "mysql"
	case "postgres", "postgresql":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return strings.ToLower(strings.TrimSpace(c.Type))
	}
}
