/*
 * Copyright 2025 Carver Automation Corporation.
 *
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

// Package db reads the node inventory from PostgreSQL.
package db

//go:generate mockgen -destination=mock_db.go -package=db github.com/carverauto/outpost/pkg/db Querier

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	ErrFailedToQuery = errors.New("failed to query")
	ErrFailedToScan  = errors.New("failed to scan")
	ErrFailedOpenDB  = errors.New("failed to open database")
	ErrTLSIncomplete = errors.New("tls requires cert_file, key_file and ca_file")
	ErrTLSDisabled   = errors.New("tls configured but sslmode is disable")
	errAppendCA      = errors.New("unable to append CA certificate")
)

// Querier is the subset of *pgxpool.Pool used by this package.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
