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
	"reflect"
	"sort"
	"sync"
)

var defaultRegistry = NewModelRegistry()

// SQLModel is a declared table: a bun model pointer such as (*Region)(nil)
// and its registration priority, lower first.
type SQLModel struct {
	Instance interface{}
	Priority int
}

// ModelRegistry keeps declared models in priority order. A model type is
// kept once; later registrations of the same type are ignored.
type ModelRegistry struct {
	mu     sync.RWMutex
	models []SQLModel
	seen   map[reflect.Type]struct{}
}

func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{seen: make(map[reflect.Type]struct{})}
}

func (r *ModelRegistry) Register(instance interface{}, priority int) {
	if instance == nil {
		return
	}
	typ := reflect.TypeOf(instance)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[typ]; ok {
		return
	}
	r.seen[typ] = struct{}{}
	r.models = append(r.models, SQLModel{Instance: instance, Priority: priority})
	sort.SliceStable(r.models, func(i, j int) bool {
		return r.models[i].Priority < r.models[j].Priority
	})
}

func (r *ModelRegistry) Models() []SQLModel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SQLModel, len(r.models))
	copy(out, r.models)
	return out
}

// Instances returns the model pointers, ready for bun.DB.RegisterModel.
func (r *ModelRegistry) Instances() []interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]interface{}, len(r.models))
	for i, m := range r.models {
		out[i] = m.Instance
	}
	return out
}

// RegisterModel declares a model in the process-wide registry. Engines
// created afterwards register it with bun.
func RegisterModel(instance interface{}, priority int) {
	defaultRegistry.Register(instance, priority)
}

func RegisteredModels() []SQLModel {
	return defaultRegistry.Models()
}

func RegisteredModelInstances() []interface{} {
	return defaultRegistry.Instances()
}
