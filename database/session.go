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

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Session is a unit of work bound to an Engine. A transaction is begun on
// first use, so creating a session never takes a pooled connection. Nothing
// is committed unless Commit is called; Close discards an open transaction.
//
// A Session is not safe for concurrent use by unrelated requests.
type Session struct {
	id      string
	db      *bun.DB
	mu      sync.Mutex
	tx      *bun.Tx
	closed  bool
	onClose func()
}

func newSession(db *bun.DB, onClose func()) *Session {
	return &Session{
		id:      uuid.NewString(),
		db:      db,
		onClose: onClose,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Conn returns the session's current transaction, beginning one if needed.
// Driver errors from BeginTx are returned unmodified.
func (s *Session) Conn(ctx context.Context) (bun.IDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	s.tx = &tx
	return s.tx, nil
}

func (s *Session) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	conn, err := s.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return conn.ExecContext(ctx, query, args...)
}

func (s *Session) QueryRowContext(ctx context.Context, query string, args ...interface{}) (*sql.Row, error) {
	conn, err := s.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return conn.QueryRowContext(ctx, query, args...), nil
}

func (s *Session) NewSelect(ctx context.Context) (*bun.SelectQuery, error) {
	conn, err := s.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return conn.NewSelect(), nil
}

func (s *Session) NewInsert(ctx context.Context) (*bun.InsertQuery, error) {
	conn, err := s.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return conn.NewInsert(), nil
}

func (s *Session) NewUpdate(ctx context.Context) (*bun.UpdateQuery, error) {
	conn, err := s.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return conn.NewUpdate(), nil
}

func (s *Session) NewDelete(ctx context.Context) (*bun.DeleteQuery, error) {
	conn, err := s.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return conn.NewDelete(), nil
}

// Ping runs a trivial statement inside the session's transaction.
func (s *Session) Ping(ctx context.Context) error {
	_, err := s.ExecContext(ctx, "SELECT 1")
	return err
}

// Commit commits the open transaction. The next use begins a new one.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	return tx.Commit()
}

// Rollback discards the open transaction. The next use begins a new one.
func (s *Session) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	return tx.Rollback()
}

// Close releases the session. Only the first call has an effect.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.tx != nil {
		err = s.tx.Rollback()
		s.tx = nil
		if errors.Is(err, sql.ErrTxDone) {
			err = nil
		}
	}
	if s.onClose != nil {
		s.onClose()
	}
	return err
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tx != nil
}
