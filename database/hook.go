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
	"errors"
	"sync"
	"time"

	"github.com/uptrace/bun"
)

var _ bun.QueryHook = (*slowQueryHook)(nil)

// slowQueryHook warns about statements slower than slowTime.
type slowQueryHook struct {
	mu       sync.RWMutex
	slowTime time.Duration
	logger   Logger
}

func (h *slowQueryHook) setLogger(logger Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logger = logger
}

func (h *slowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		return
	}
	duration := time.Since(event.StartTime)
	if duration <= h.slowTime {
		return
	}

	h.mu.RLock()
	logger := h.logger
	h.mu.RUnlock()
	if logger == nil {
		return
	}

	fields := []interface{}{
		"duration", duration.Round(time.Microsecond),
		"slow_threshold", h.slowTime,
		"operation", event.Operation(),
		"query", event.Query,
	}
	if session, err := SessionFromContext(ctx); err == nil {
		fields = append(fields, "session", session.ID())
	}
	logger.Warn("Database slow query detected", fields...)
}
