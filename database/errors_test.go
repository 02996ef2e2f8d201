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
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want SQLError
	}{
		{"no rows", sql.ErrNoRows, NoRowsErr},
		{"wrapped no rows", fmt.Errorf("load version 3: %w", sql.ErrNoRows), NoRowsErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'email'"}, DuplicateKeyErr},
		{"mysql foreign key", &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}, ForeignKeyViolationErr},
		{"mysql access denied", &mysql.MySQLError{Number: 1045, Message: "Access denied for user 'root'"}, UnavailableErr},
		{"mysql unknown database", &mysql.MySQLError{Number: 1049, Message: "Unknown database 'sales_performance_db'"}, UnavailableErr},
		{"mysql invalid conn", mysql.ErrInvalidConn, UnavailableErr},
		{"pq unique", &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}, DuplicateKeyErr},
		{"pq not null", &pq.Error{Code: "23502"}, NotNullViolationErr},
		{"pq connection failure", &pq.Error{Code: "08006"}, UnavailableErr},
		{"pq missing database", &pq.Error{Code: "3D000"}, UnavailableErr},
		{"pq syntax", &pq.Error{Code: "42601"}, UnknownErr},
		{"bad conn", driver.ErrBadConn, UnavailableErr},
		{"dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connect: connection refused")}, UnavailableErr},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), DuplicateKeyErr},
		{"sqlite missing table", errors.New("SQL logic error: no such table: versions (1)"), NoTableErr},
		{"plain", errors.New("qty must be positive"), UnknownErr},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyError(tc.err), tc.want.String())
		})
	}
}

func TestIsSqlError(t *testing.T) {
	is, kind := IsSqlError(nil)
	assert.False(t, is)
	assert.Equal(t, UnknownErr, kind)

	is, _ = IsSqlError(errors.New("validation failed"))
	assert.False(t, is)

	is, kind = IsSqlError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found"})
	assert.True(t, is)
	assert.Equal(t, UnknownErr, kind)
}

func TestClassifyErrorKeepsIdentity(t *testing.T) {
	err := &mysql.MySQLError{Number: 1062}
	wrapped := fmt.Errorf("insert user: %w", err)
	assert.Equal(t, DuplicateKeyErr, ClassifyError(wrapped))

	var target *mysql.MySQLError
	assert.True(t, errors.As(wrapped, &target))
	assert.Same(t, err, target)
}

func TestSQLErrorString(t *testing.T) {
	assert.Equal(t, "duplicate_key", DuplicateKeyErr.String())
	assert.Equal(t, "unavailable", UnavailableErr.String())
	assert.Equal(t, "unknown", SQLError(999).String())
}
