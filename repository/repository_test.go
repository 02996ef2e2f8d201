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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/sales-performance/database"
	"github.com/tomoncle/sales-performance/models"
	"github.com/tomoncle/sales-performance/types"
)

func newEngine(t *testing.T) database.Engine {
	t.Helper()
	cfg := database.DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = filepath.Join(t.TempDir(), "repository")
	cfg.MaxOpenConns = 2
	engine, err := database.NewEngine(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	ctx := context.Background()
	setup := engine.NewSession()
	conn, err := setup.Conn(ctx)
	require.NoError(t, err)
	_, err = conn.NewCreateTable().Model((*models.Region)(nil)).Exec(ctx)
	require.NoError(t, err)
	require.NoError(t, setup.Commit())
	require.NoError(t, setup.Close())
	return engine
}

func seedRegions(t *testing.T, engine database.Engine) {
	t.Helper()
	ctx := context.Background()
	session := engine.NewSession()
	defer session.Close()

	repo := New[models.Region](session)
	require.NoError(t, repo.Create(ctx,
		&models.Region{Name: "Americas", Code: "AM", DisplayOrder: 1},
		&models.Region{Name: "Europe", Code: "EU", DisplayOrder: 2},
		&models.Region{Name: "Asia", Code: "AS", DisplayOrder: 3},
	))
	require.NoError(t, session.Commit())
}

func TestRepositoryCRUD(t *testing.T) {
	engine := newEngine(t)
	seedRegions(t, engine)
	ctx := context.Background()

	session := engine.NewSession()
	defer session.Close()
	repo := New[models.Region](session)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	eu, err := repo.List(ctx, types.NewQueryFilter("code = ?", "EU"))
	require.NoError(t, err)
	require.Len(t, eu, 1)

	got, err := repo.GetOne(ctx, eu[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Europe", got.Name)

	got.Name = "Western Europe"
	require.NoError(t, repo.Update(ctx, got))

	deleted, err := repo.Delete(ctx, eu[0].ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, eu[0].ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.GetOne(ctx, eu[0].ID)
	assert.Equal(t, database.NoRowsErr, database.ClassifyError(err))

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// nothing was committed
	require.NoError(t, session.Rollback())
	n, err = repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRepositoryPage(t *testing.T) {
	engine := newEngine(t)
	seedRegions(t, engine)
	ctx := context.Background()

	session := engine.NewSession()
	defer session.Close()
	repo := New[models.Region](session)

	page, err := repo.Page(ctx, types.NewPageRequest(2, 2, nil, []string{"display_order ASC"}))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages())
	require.Len(t, page.Items, 1)
	assert.Equal(t, "AS", page.Items[0].Code)

	empty, err := repo.Page(ctx, types.NewPageRequest(1, 10, types.NewQueryFilter("code = ?", "ZZ"), nil))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)
	assert.Empty(t, empty.Items)
}

func TestRepositoryUpsert(t *testing.T) {
	engine := newEngine(t)
	seedRegions(t, engine)
	ctx := context.Background()

	session := engine.NewSession()
	defer session.Close()
	repo := New[models.Region](session)

	err := repo.Upsert(ctx, []string{"name", "display_order"}, []string{"code"},
		&models.Region{Name: "Asia Pacific", Code: "AS", DisplayOrder: 9},
		&models.Region{Name: "Middle East", Code: "ME", DisplayOrder: 4},
	)
	require.NoError(t, err)
	require.NoError(t, session.Commit())

	regions, err := repo.List(ctx, types.NewQueryFilter("code IN (?, ?)", "AS", "ME"))
	require.NoError(t, err)
	byCode := map[string]*models.Region{}
	for _, r := range regions {
		byCode[r.Code] = r
	}
	require.Len(t, byCode, 2)
	assert.Equal(t, "Asia Pacific", byCode["AS"].Name)
	assert.Equal(t, 9, byCode["AS"].DisplayOrder)

	assert.Error(t, repo.Upsert(ctx, nil, nil, &models.Region{Code: "XX"}))
}

func TestRepositoryFromContext(t *testing.T) {
	_, err := FromContext[models.Region](context.Background())
	assert.ErrorIs(t, err, database.ErrNoSession)

	engine := newEngine(t)
	session := engine.NewSession()
	require.NoError(t, session.Close())

	repo, err := FromContext[models.Region](database.ContextWithSession(context.Background(), session))
	require.NoError(t, err)
	_, err = repo.GetAll(context.Background())
	assert.ErrorIs(t, err, database.ErrSessionClosed)
}
