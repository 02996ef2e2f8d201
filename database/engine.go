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
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

type defaultEngine struct {
	config          *ConnectionConfig
	db              *bun.DB
	sqlDB           *sql.DB
	logger          Logger
	slowHook        *slowQueryHook
	mu              sync.RWMutex
	sessionsCreated atomic.Int64
	sessionsOpen    atomic.Int64
	stopHealthCheck chan struct{}
	healthCheckOnce sync.Once
	closeOnce       sync.Once
	closeErr        error
}

// NewEngine builds the connection pool described by config. No connection is
// made here: sql.Open only validates its arguments, so an unreachable
// database is reported by the first session that uses it.
func NewEngine(config *ConnectionConfig) (Engine, error) {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	sqlDB, err := openSQLDB(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create database engine: %w", err)
	}
	return newEngine(config, sqlDB)
}

// NewEngineFromDB wraps an already opened pool. The SQL dialect is taken from
// config.Type.
func NewEngineFromDB(config *ConnectionConfig, sqlDB *sql.DB) (Engine, error) {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	if sqlDB == nil {
		return nil, fmt.Errorf("database handle cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newEngine(config, sqlDB)
}

func openSQLDB(config *ConnectionConfig) (*sql.DB, error) {
	switch config.normalizedType() {
	case "mysql":
		return sql.Open("mysql", config.DSN())
	case "postgres":
		return sql.Open("postgres", config.DSN())
	case "sqlite":
		return sql.Open(sqliteshim.ShimName, config.DSN())
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

// lazyMySQLDialect skips the server version probe mysqldialect runs in Init,
// so building an engine never dials.
type lazyMySQLDialect struct {
	*mysqldialect.Dialect
}

func (lazyMySQLDialect) Init(*sql.DB) {}

func dialectFor(config *ConnectionConfig) schema.Dialect {
	switch config.normalizedType() {
	case "postgres":
		return pgdialect.New()
	case "sqlite":
		return sqlitedialect.New()
	default:
		return lazyMySQLDialect{mysqldialect.New()}
	}
}

func newEngine(config *ConnectionConfig, sqlDB *sql.DB) (*defaultEngine, error) {
	e := &defaultEngine{
		config:          config,
		sqlDB:           sqlDB,
		logger:          GetLogger(),
		stopHealthCheck: make(chan struct{}),
	}

	e.db = bun.NewDB(sqlDB, dialectFor(config))
	if config.EnableQueryLog {
		e.db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if config.SlowQueryTime > 0 {
		e.slowHook = &slowQueryHook{slowTime: config.SlowQueryTime, logger: e.logger}
		e.db.AddQueryHook(e.slowHook)
	}

	e.configureConnectionPool()

	if models := RegisteredModelInstances(); len(models) > 0 {
		e.db.RegisterModel(models...)
	}

	if config.HealthCheckInterval > 0 {
		e.startHealthCheck()
	}

	e.logger.Debug("Database engine created", "type", config.Scheme(), "host", config.Host, "dbname", config.DBName)
	return e, nil
}

func (e *defaultEngine) configureConnectionPool() {
	if e.config.MaxIdleConns > 0 {
		e.sqlDB.SetMaxIdleConns(e.config.MaxIdleConns)
	}
	if e.config.MaxOpenConns > 0 {
		e.sqlDB.SetMaxOpenConns(e.config.MaxOpenConns)
	}
	if e.config.ConnMaxLifetime > 0 {
		e.sqlDB.SetConnMaxLifetime(e.config.ConnMaxLifetime)
	}
	if e.config.ConnMaxIdleTime > 0 {
		e.sqlDB.SetConnMaxIdleTime(e.config.ConnMaxIdleTime)
	}
}

func (e *defaultEngine) NewSession() *Session {
	e.sessionsCreated.Add(1)
	e.sessionsOpen.Add(1)
	return newSession(e.db, func() {
		e.sessionsOpen.Add(-1)
	})
}

func (e *defaultEngine) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

func (e *defaultEngine) GetDB() *bun.DB {
	return e.db
}

func (e *defaultEngine) GetSQLDB() *sql.DB {
	return e.sqlDB
}

func (e *defaultEngine) HealthCheck(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{
		LastCheckTime: start,
		OpenSessions:  e.sessionsOpen.Load(),
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	err := e.db.PingContext(ctxTimeout)
	status.ResponseTime = time.Since(start)
	if err != nil {
		status.LastError = err.Error()
	} else {
		status.Healthy = true
		status.Connected = true
	}

	stats := e.sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections
	return status
}

func (e *defaultEngine) startHealthCheck() {
	e.healthCheckOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(e.config.HealthCheckInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
					status := e.HealthCheck(ctx)
					cancel()
					if !status.Healthy {
						e.getLogger().Warn("Database health check failed", "error", status.LastError)
					}
				case <-e.stopHealthCheck:
					return
				}
			}
		}()
	})
}

func (e *defaultEngine) GetStats() *DBStats {
	stats := e.sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
		SessionsCreated:   e.sessionsCreated.Load(),
		SessionsOpen:      e.sessionsOpen.Load(),
	}
}

func (e *defaultEngine) SetLogger(logger Logger) {
	if logger == nil {
		return
	}
	e.mu.Lock()
	e.logger = logger
	e.mu.Unlock()
	if e.slowHook != nil {
		e.slowHook.setLogger(logger)
	}
}

func (e *defaultEngine) getLogger() Logger {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.logger
}

// Close stops the health loop and closes the pool. Later calls return the
// result of the first one.
func (e *defaultEngine) Close() error {
	e.closeOnce.Do(func() {
		close(e.stopHealthCheck)
		e.closeErr = e.db.Close()
		if e.closeErr != nil {
			e.getLogger().Error("Failed to close database engine", "error", e.closeErr)
		} else {
			e.getLogger().Info("Database engine closed")
		}
	})
	return e.closeErr
}
