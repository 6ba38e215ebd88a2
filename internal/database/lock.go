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

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgx "github.com/jackc/pgx/v4"
)

// ErrAlreadyLocked is returned if the lock is already in use.
var ErrAlreadyLocked = errors.New("lock already in use")

// UnlockFn can be deferred to release a lock.
type UnlockFn func() error

// Lock acquires the lock with the given name that times out after ttl.
// Returns an UnlockFn that can be used to unlock the lock. ErrAlreadyLocked
// will be returned if there is already a lock in use.
func (db *DB) Lock(ctx context.Context, lockID string, ttl time.Duration) (UnlockFn, error) {
	err := db.InTx(ctx, pgx.Serializable, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT
				lock_id, expires
			FROM
				Lock
			WHERE
				lock_id = $1
		`, lockID)

		var (
			existing bool
			id       string
			expires  time.Time
		)
		switch err := row.Scan(&id, &expires); {
		case err == nil:
			existing = true
		case errors.Is(err, pgx.ErrNoRows):
			existing = false
		default:
			return fmt.Errorf("scanning lock: %w", err)
		}

		expiry := time.Now().UTC().Add(ttl)
		if existing {
			if time.Now().UTC().Before(expires) {
				return ErrAlreadyLocked
			}
			// The previous holder's lease lapsed, take over the lock.
			if _, err := tx.Exec(ctx, `
				UPDATE
					Lock
				SET
					expires = $1
				WHERE
					lock_id = $2
			`, expiry, lockID); err != nil {
				return fmt.Errorf("updating expired lock: %w", err)
			}
			return nil
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO
				Lock (lock_id, expires)
			VALUES
				($1, $2)
		`, lockID, expiry); err != nil {
			return fmt.Errorf("inserting lock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return func() error {
		return db.unlock(lockID)
	}, nil
}

func (db *DB) unlock(lockID string) error {
	// A fresh context: the unlock must be attempted even if the caller's
	// context has already been canceled.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return db.InTx(ctx, pgx.Serializable, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			DELETE FROM
				Lock
			WHERE
				lock_id = $1
		`, lockID)
		if err != nil {
			return fmt.Errorf("deleting lock: %w", err)
		}
		if result.RowsAffected() != 1 {
			return fmt.Errorf("lock %q does not exist", lockID)
		}
		return nil
	})
}
