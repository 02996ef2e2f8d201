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
	"sync"
	"time"
)

// Factory builds the process-wide engine once and hands out session makers
// and providers bound to it.
type Factory struct {
	mu     sync.RWMutex
	engine Engine
	logger Logger
}

// NewFactory returns a new factory using the global logger.
func NewFactory() *Factory {
	return &Factory{
		logger: GetLogger(),
	}
}

// CreateFromConfig builds the engine from a copy of cfg, used as given. A nil
// cfg resolves the configuration with ConfigFromEnv. It fails with
// ErrEngineInitialized when called a second time.
func (f *Factory) CreateFromConfig(cfg *ConnectionConfig) (Engine, error) {
	if cfg == nil {
		cfg = ConfigFromEnv()
	} else {
		resolved := *cfg
		cfg = &resolved
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.engine != nil {
		return nil, ErrEngineInitialized
	}

	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	engine.SetLogger(f.logger)
	if cfg.UsesDefaultPassword() {
		f.logger.Warn("Database password is the built-in placeholder, set DB_PASSWORD")
	}

	f.engine = engine
	return engine, nil
}

// Use installs an engine built elsewhere, such as one from NewEngineFromDB.
func (f *Factory) Use(engine Engine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.engine != nil {
		return ErrEngineInitialized
	}
	engine.SetLogger(f.logger)
	f.engine = engine
	return nil
}

func (f *Factory) Engine() (Engine, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.engine == nil {
		return nil, ErrEngineNotInitialized
	}
	return f.engine, nil
}

// SessionMaker returns a zero-argument constructor of sessions bound to the engine.
func (f *Factory) SessionMaker() (SessionMaker, error) {
	engine, err := f.Engine()
	if err != nil {
		return nil, err
	}
	return engine.NewSession, nil
}

// Provider returns a request-scoped session provider bound to the engine.
func (f *Factory) Provider() (*Provider, error) {
	maker, err := f.SessionMaker()
	if err != nil {
		return nil, err
	}
	f.mu.RLock()
	logger := f.logger
	f.mu.RUnlock()
	return NewProvider(maker, logger), nil
}

// SetLogger sets the logger on the factory and the underlying engine.
func (f *Factory) SetLogger(logger Logger) {
	if logger == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logger = logger
	if f.engine != nil {
		f.engine.SetLogger(logger)
	}
}

// Close closes the engine owned by the factory.
func (f *Factory) Close() error {
	f.mu.RLock()
	engine := f.engine
	f.mu.RUnlock()
	if engine == nil {
		return nil
	}
	return engine.Close()
}

// GetHealthStatus returns the current database health status from the engine.
func (f *Factory) GetHealthStatus(ctx context.Context) *HealthStatus {
	engine, err := f.Engine()
	if err != nil {
		return &HealthStatus{
			Healthy:       false,
			Connected:     false,
			LastError:     err.Error(),
			LastCheckTime: time.Now(),
		}
	}
	return engine.HealthCheck(ctx)
}

// GetStats returns connection and session statistics from the engine.
func (f *Factory) GetStats() *DBStats {
	engine, err := f.Engine()
	if err != nil {
		return &DBStats{}
	}
	return engine.GetStats()
}
