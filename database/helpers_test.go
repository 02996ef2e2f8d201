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
	"os"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// dbEnvKeys lists every variable ApplyEnv reads.
var dbEnvKeys = []string{
	"DB_TYPE", "DB_HOST", "DB_PORT", "DB_USERNAME", "DB_USER", "DB_PASSWORD",
	"DB_NAME", "DB_SSLMODE", "DB_CHARSET", "DB_MAX_IDLE_CONNS", "DB_MAX_OPEN_CONNS",
	"DB_CONN_MAX_LIFETIME", "DB_HEALTH_CHECK_INTERVAL", "DB_ENABLE_QUERY_LOG",
	"DB_SLOW_QUERY_TIME",
}

// clearDBEnv unsets the DB_* variables for the duration of the test. The
// t.Setenv call registers the restore of the previous value.
func clearDBEnv(t *testing.T) {
	t.Helper()
	for _, key := range dbEnvKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func newMockEngine(t *testing.T) (Engine, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	cfg := DefaultConnectionConfig()
	cfg.SlowQueryTime = 0
	engine, err := NewEngineFromDB(cfg, sqlDB)
	require.NoError(t, err)
	engine.SetLogger(&recordingLogger{})
	t.Cleanup(func() { _ = engine.Close() })
	return engine, mock
}

type logRecord struct {
	level  string
	msg    string
	fields []interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	records []logRecord
}

func (l *recordingLogger) add(level, msg string, fields []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, logRecord{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) SetLevel(LogLevel) {}

func (l *recordingLogger) Debug(msg string, fields ...interface{}) { l.add("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields ...interface{}) { l.add("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields ...interface{}) { l.add("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields ...interface{}) { l.add("error", msg, fields) }

func (l *recordingLogger) find(level string) []logRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logRecord
	for _, r := range l.records {
		if r.level == level {
			out = append(out, r)
		}
	}
	return out
}
