// Copyright 2024 the Session Publisher authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package database is a facade over the data storage layer.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/openinstrument/session-publisher/pkg/logging"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sethvargo/go-retry"
)

// DB wraps a connection pool to the Postgres database.
type DB struct {
	Pool *pgxpool.Pool
}

// NewFromEnv creates the connection pool from the given configuration. The
// initial connection is retried with backoff so that servers starting
// alongside the database do not crash-loop.
func NewFromEnv(ctx context.Context, cfg *Config) (*DB, error) {
	logger := logging.FromContext(ctx)
	logger.Infow("creating connection pool")

	connStr := cfg.ConnectionString()

	b := retry.NewFibonacci(250 * time.Millisecond)
	b = retry.WithMaxRetries(8, b)

	var pool *pgxpool.Pool
	if err := retry.Do(ctx, b, func(ctx context.Context) error {
		p, err := pgxpool.Connect(ctx, connStr)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("failed to connect: %w", err))
		}
		pool = p
		return nil
	}); err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close releases database connections.
func (db *DB) Close(ctx context.Context) {
	logger := logging.FromContext(ctx)
	logger.Infow("closing connection pool")
	db.Pool.Close()
}
