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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/sales-performance/database"
)

// HandlerFunc is an http handler that reports failure by returning an error
// instead of writing the response itself.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Adapter turns a HandlerFunc into a plain http.HandlerFunc. Returned errors
// are passed to the server's ErrorHandler unchanged.
type Adapter func(HandlerFunc) http.HandlerFunc

// ErrorHandler writes the response for an error returned by a handler.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Router is a group of endpoints mounted under Pattern.
type Router interface {
	Pattern() string
	Routes(r chi.Router, handle Adapter)
}

// HTTPError carries an explicit status code and client-facing detail.
type HTTPError struct {
	Status int
	Detail string
	Err    error
}

func NewHTTPError(status int, detail string) *HTTPError {
	return &HTTPError{Status: status, Detail: detail}
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Detail, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Detail)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// StatusForError maps an error to the response status and detail used by
// DefaultErrorHandler.
func StatusForError(err error) (int, string) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status, httpErr.Detail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, http.StatusText(http.StatusGatewayTimeout)
	}

	switch database.ClassifyError(err) {
	case database.NoRowsErr:
		return http.StatusNotFound, http.StatusText(http.StatusNotFound)
	case database.DuplicateKeyErr,
		database.ForeignKeyViolationErr,
		database.NotNullViolationErr,
		database.CheckConstraintViolationErr:
		return http.StatusConflict, http.StatusText(http.StatusConflict)
	case database.UnavailableErr:
		return http.StatusServiceUnavailable, "Database unavailable"
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}

// DefaultErrorHandler logs err and writes {"detail": ...} with the status
// from StatusForError.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := StatusForError(err)

	entry := logger().WithFields(logrus.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     status,
		"request_id": chimiddleware.GetReqID(r.Context()),
	}).WithError(err)
	if session, sessErr := database.SessionFromContext(r.Context()); sessErr == nil {
		entry = entry.WithField("session", session.ID())
	}
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Info("Request failed")
	}

	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger().WithError(err).Warn("Failed to encode response")
	}
}
