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

package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tomoncle/sales-performance/database"
)

type healthRouter struct {
	engine database.Engine
}

// NewHealthRouter exposes engine health, readiness and pool statistics.
func NewHealthRouter(engine database.Engine) Router {
	return &healthRouter{engine: engine}
}

func (h *healthRouter) Pattern() string {
	return "/health"
}

func (h *healthRouter) Routes(r chi.Router, handle Adapter) {
	r.Get("/", handle(h.status))
	r.Get("/ready", handle(h.ready))
	r.Get("/stats", handle(h.stats))
}

func (h *healthRouter) status(w http.ResponseWriter, r *http.Request) error {
	status := h.engine.HealthCheck(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
	return nil
}

// ready pings through the request session, so it exercises the same path a
// regular handler takes to reach the database.
func (h *healthRouter) ready(w http.ResponseWriter, r *http.Request) error {
	session, err := database.SessionFromContext(r.Context())
	if err != nil {
		return err
	}
	if err := session.Ping(r.Context()); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "session": session.ID()})
	return nil
}

func (h *healthRouter) stats(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, h.engine.GetStats())
	return nil
}
