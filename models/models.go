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

// Package models declares the bun models of the sales performance schema.
// Importing it registers every model with the database model registry; the
// tables themselves are created outside this service.
package models

import (
	"time"

	"github.com/tomoncle/sales-performance/database"
	"github.com/uptrace/bun"
)

// RowType is the kind of row in the sales grid.
type RowType string

const (
	RowTypeCountry RowType = "country"
	RowTypeModel   RowType = "model"
	RowTypeRegion  RowType = "region"
	RowTypeTotal   RowType = "total"
)

// Sales data categories.
const (
	CategoryPreviousYear = "previous_year"
	CategoryPlan         = "plan"
	CategoryActual       = "actual"
	CategoryFlash        = "flash"
	CategoryForecast     = "forecast"
)

type Region struct {
	bun.BaseModel `bun:"table:regions,alias:rg"`

	ID           int64  `bun:"id,pk,autoincrement" json:"id"`
	Name         string `bun:"name,notnull" json:"name"`
	Code         string `bun:"code,notnull,unique" json:"code"`
	DisplayOrder int    `bun:"display_order,notnull,default:0" json:"display_order"`
}

type Country struct {
	bun.BaseModel `bun:"table:countries,alias:ct"`

	ID           int64  `bun:"id,pk,autoincrement" json:"id"`
	Name         string `bun:"name,notnull" json:"name"`
	Code         string `bun:"code,notnull,unique" json:"code"`
	RegionID     int64  `bun:"region_id,notnull" json:"region_id"`
	DisplayOrder int    `bun:"display_order,notnull,default:0" json:"display_order"`
}

// ProductModel is a sold product model. The table is named "models".
type ProductModel struct {
	bun.BaseModel `bun:"table:models,alias:pm"`

	ID           int64  `bun:"id,pk,autoincrement" json:"id"`
	Name         string `bun:"name,notnull" json:"name"`
	Code         string `bun:"code,notnull,unique" json:"code"`
	DisplayOrder int    `bun:"display_order,notnull,default:0" json:"display_order"`
}

// Version is a named snapshot of the sales grid, e.g. rev1, rev2.
type Version struct {
	bun.BaseModel `bun:"table:versions,alias:v"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Year        string    `bun:"year,notnull" json:"year"`
	Month       string    `bun:"month,notnull" json:"month"`
	Week        string    `bun:"week" json:"week"`
	IsLatest    bool      `bun:"is_latest,notnull,default:false" json:"is_latest"`
	IsEditable  bool      `bun:"is_editable,notnull,default:true" json:"is_editable"`
	Description string    `bun:"description" json:"description"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	CreatedBy   *int64    `bun:"created_by" json:"created_by,omitempty"`
}

// SalesData is one cell row of the grid: quantity and amount for a month and
// category. ModelID is nil for country, region and total rows.
type SalesData struct {
	bun.BaseModel `bun:"table:sales_data,alias:sd"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	VersionID    int64     `bun:"version_id,notnull" json:"version_id"`
	CountryID    *int64    `bun:"country_id" json:"country_id,omitempty"`
	ModelID      *int64    `bun:"model_id" json:"model_id,omitempty"`
	RowType      RowType   `bun:"row_type,notnull" json:"row_type"`
	ParentID     *int64    `bun:"parent_id" json:"parent_id,omitempty"`
	DisplayOrder int       `bun:"display_order,notnull,default:0" json:"display_order"`
	Month        int       `bun:"month,notnull" json:"month"`
	Category     string    `bun:"category,notnull" json:"category"`
	Qty          int64     `bun:"qty,notnull,default:0" json:"qty"`
	Amt          int64     `bun:"amt,notnull,default:0" json:"amt"`
	Remarks      string    `bun:"remarks" json:"remarks"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
	CreatedBy    *int64    `bun:"created_by" json:"created_by,omitempty"`
}

// ChangeHistory records a single cell edit.
type ChangeHistory struct {
	bun.BaseModel `bun:"table:change_history,alias:ch"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	VersionID   int64     `bun:"version_id,notnull" json:"version_id"`
	Row         int       `bun:"row,notnull" json:"row"`
	Col         int       `bun:"col,notnull" json:"col"`
	OldValue    string    `bun:"old_value" json:"old_value"`
	NewValue    string    `bun:"new_value" json:"new_value"`
	SalesDataID *int64    `bun:"sales_data_id" json:"sales_data_id,omitempty"`
	ChangedAt   time.Time `bun:"changed_at,nullzero,notnull,default:current_timestamp" json:"changed_at"`
	ChangedBy   *int64    `bun:"changed_by" json:"changed_by,omitempty"`
}

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64      `bun:"id,pk,autoincrement" json:"id"`
	Username     string     `bun:"username,notnull" json:"username"`
	Email        string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash string     `bun:"password_hash,notnull" json:"-"`
	Role         string     `bun:"role,notnull,default:'viewer'" json:"role"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
	LastLogin    *time.Time `bun:"last_login" json:"last_login,omitempty"`
}

func init() {
	database.RegisterModel((*Region)(nil), 10)
	database.RegisterModel((*Country)(nil), 20)
	database.RegisterModel((*ProductModel)(nil), 30)
	database.RegisterModel((*User)(nil), 40)
	database.RegisterModel((*Version)(nil), 50)
	database.RegisterModel((*SalesData)(nil), 60)
	database.RegisterModel((*ChangeHistory)(nil), 70)
}
