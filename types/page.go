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

package types

const (
	DefaultPageSize = 10
	MaxPageSize     = 500
)

// QueryFilter is a bun WHERE fragment with its placeholder arguments,
// e.g. NewQueryFilter("version_id = ? AND month = ?", 7, 3).
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{Schema: schema, Args: args}
}

// PageRequest selects one page of rows. Page is 1-based; out of range
// values fall back to page 1 and DefaultPageSize, and PageSize is capped
// at MaxPageSize.
type PageRequest struct {
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Filter   *QueryFilter `json:"-"`
	Orders   []string     `json:"-"` // "display_order ASC", "id DESC"
}

func NewPageRequest(page int, pageSize int, filter *QueryFilter, orders []string) *PageRequest {
	return &PageRequest{Page: page, PageSize: pageSize, Filter: filter, Orders: orders}
}

func (p *PageRequest) Number() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

func (p *PageRequest) Limit() int {
	switch {
	case p.PageSize < 1:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	}
	return p.PageSize
}

func (p *PageRequest) Offset() int {
	return (p.Number() - 1) * p.Limit()
}

// Pagination is one page of items plus the total row count.
type Pagination[T any] struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	Items    []*T `json:"items"`
}

// NewPagination returns an empty page shaped by req.
func NewPagination[T any](req *PageRequest) *Pagination[T] {
	return &Pagination[T]{Page: req.Number(), PageSize: req.Limit(), Items: make([]*T, 0)}
}

func (p *Pagination[T]) TotalPages() int {
	if p.PageSize < 1 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
