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

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomoncle/sales-performance/database"
	"github.com/tomoncle/sales-performance/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
)

type sessionRepository[T any] struct {
	session *database.Session
}

// New returns a repository for T whose queries run in session's transaction.
func New[T any](session *database.Session) Repository[T] {
	return &sessionRepository[T]{session: session}
}

// FromContext is New with the request session stored in ctx.
func FromContext[T any](ctx context.Context) (Repository[T], error) {
	session, err := database.SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return New[T](session), nil
}

func (r *sessionRepository[T]) GetOne(ctx context.Context, id any) (*T, error) {
	conn, err := r.session.Conn(ctx)
	if err != nil {
		return nil, err
	}
	var entity T
	if err := conn.NewSelect().Model(&entity).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *sessionRepository[T]) GetAll(ctx context.Context) ([]*T, error) {
	return r.List(ctx, nil)
}

func (r *sessionRepository[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	conn, err := r.session.Conn(ctx)
	if err != nil {
		return nil, err
	}
	entities := make([]*T, 0)
	query := conn.NewSelect().Model(&entities)
	applyFilter(query, filter)
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *sessionRepository[T]) Count(ctx context.Context, filter *types.QueryFilter) (int, error) {
	conn, err := r.session.Conn(ctx)
	if err != nil {
		return 0, err
	}
	query := conn.NewSelect().Model((*T)(nil))
	applyFilter(query, filter)
	return query.Count(ctx)
}

func (r *sessionRepository[T]) Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[T], error) {
	if req == nil {
		req = types.NewPageRequest(1, types.DefaultPageSize, nil, nil)
	}
	conn, err := r.session.Conn(ctx)
	if err != nil {
		return nil, err
	}

	page := types.NewPagination[T](req)
	var entities []*T
	query := conn.NewSelect().Model(&entities)
	applyFilter(query, req.Filter)

	total, err := query.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return page, nil
	}
	err = query.
		Offset(req.Offset()).
		Limit(req.Limit()).
		Order(req.Orders...).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	page.Total = total
	page.Items = entities
	return page, nil
}

func (r *sessionRepository[T]) Create(ctx context.Context, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	conn, err := r.session.Conn(ctx)
	if err != nil {
		return err
	}
	for _, e := range entity {
		if _, err := conn.NewInsert().Model(e).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *sessionRepository[T]) Update(ctx context.Context, entity *T) error {
	conn, err := r.session.Conn(ctx)
	if err != nil {
		return err
	}
	_, err = conn.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

// Delete removes the row with the given id and reports whether one existed.
func (r *sessionRepository[T]) Delete(ctx context.Context, id any) (bool, error) {
	conn, err := r.session.Conn(ctx)
	if err != nil {
		return false, err
	}
	res, err := conn.NewDelete().Model((*T)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Upsert inserts entities, updating fields when a row with the same
// duplicateKeys (default "id") already exists.
func (r *sessionRepository[T]) Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}
	if len(entity) == 0 {
		return nil
	}
	conn, err := r.session.Conn(ctx)
	if err != nil {
		return err
	}

	entities := make([]*T, len(entity))
	copy(entities, entity)

	dialectFeatures := conn.Dialect().Features()
	switch {
	case dialectFeatures.Has(feature.InsertOnConflict):
		return upsertOnConflict(ctx, conn.NewInsert(), fields, duplicateKeys, entities)
	case dialectFeatures.Has(feature.InsertOnDuplicateKey):
		return upsertOnDuplicateKey(ctx, conn.NewInsert(), fields, entities)
	default:
		return fmt.Errorf("upsert is not supported by dialect %s", conn.Dialect().Name())
	}
}

func upsertOnDuplicateKey[T any](ctx context.Context, insertQuery *bun.InsertQuery, fields []string, entities []*T) error {
	var queryArgs []string
	for _, field := range fields {
		queryArgs = append(queryArgs, fmt.Sprintf("%s = VALUES(%s)", field, field))
	}
	_, err := insertQuery.
		Model(&entities).
		On("DUPLICATE KEY UPDATE " + strings.Join(queryArgs, ", ")).
		Exec(ctx)
	return err
}

func upsertOnConflict[T any](ctx context.Context, insertQuery *bun.InsertQuery, fields []string, duplicateKeys []string, entities []*T) error {
	if len(duplicateKeys) == 0 {
		duplicateKeys = []string{"id"}
	}
	var queryArgs []string
	for _, field := range fields {
		queryArgs = append(queryArgs, fmt.Sprintf("%s = EXCLUDED.%s", field, field))
	}
	_, err := insertQuery.
		Model(&entities).
		On("CONFLICT (" + strings.Join(duplicateKeys, ", ") + ") DO UPDATE").
		Set(strings.Join(queryArgs, ", ")).
		Exec(ctx)
	return err
}

func applyFilter(query *bun.SelectQuery, filter *types.QueryFilter) {
	if filter != nil && filter.Schema != "" {
		query.Where(filter.Schema, filter.Args...)
	}
}
