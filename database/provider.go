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

import "context"

// SessionMaker creates a new session each time it is called.
type SessionMaker func() *Session

// Provider hands one fresh session to a unit of work and always closes it.
type Provider struct {
	maker  SessionMaker
	logger Logger
}

func NewProvider(maker SessionMaker, logger Logger) *Provider {
	if logger == nil {
		logger = GetLogger()
	}
	return &Provider{
		maker:  maker,
		logger: logger,
	}
}

// WithSession runs fn with a new session, also reachable through the context
// passed to fn. The session is closed when fn returns, fails or panics; a
// panic continues after the close.
//
// The error returned by fn is returned as is. A close error is returned only
// when fn succeeded, otherwise it is logged.
//
// WithSession never commits. Changes not committed by fn are discarded.
func (p *Provider) WithSession(ctx context.Context, fn func(ctx context.Context, session *Session) error) (err error) {
	session := p.maker()
	completed := false

	defer func() {
		closeErr := session.Close()
		if closeErr == nil {
			return
		}
		if completed && err == nil {
			err = closeErr
			return
		}
		p.logger.Warn("Failed to close database session", "session", session.ID(), "error", closeErr)
	}()

	err = fn(ContextWithSession(ctx, session), session)
	completed = true
	return err
}
