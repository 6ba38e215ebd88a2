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

// Package database persists the per-destination upload log. Each destination
// attempt produces exactly one row, written before the attempt's result is
// exposed to later destinations, so the log is a faithful audit trail of
// every invocation.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	coredb "github.com/openinstrument/session-publisher/internal/database"
	"github.com/openinstrument/session-publisher/internal/publish"

	pgx "github.com/jackc/pgx/v4"
)

// Entry is one persisted upload log row.
type Entry struct {
	ID          int64
	SessionID   string
	Destination string
	Success     bool
	RecordID    string
	RecordURL   string
	Error       string
	Metadata    map[string]string
	Timestamp   time.Time
}

// UploadLogDB wraps database handles for the upload log.
type UploadLogDB struct {
	db *coredb.DB
}

// New creates an UploadLogDB attached to the given database.
func New(db *coredb.DB) *UploadLogDB {
	return &UploadLogDB{db: db}
}

// compile-time check, the engine consumes the log through this interface.
var _ publish.AuditLog = (*UploadLogDB)(nil)

// Append writes one upload log row for a destination attempt.
func (db *UploadLogDB) Append(ctx context.Context, sessionID string, result *publish.Result) error {
	if sessionID == "" {
		return fmt.Errorf("missing session ID")
	}
	if result == nil {
		return fmt.Errorf("missing result")
	}

	var metadata []byte
	if len(result.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(result.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	return db.db.InTx(ctx, pgx.ReadCommitted, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO
				UploadLog
				(session_id, destination, success, record_id, record_url, error, metadata, created_at)
			VALUES
				($1, $2, $3, $4, $5, $6, $7, $8)
		`, sessionID, result.Destination, result.Success,
			result.RecordID, result.RecordURL, result.Error,
			metadata, result.Timestamp); err != nil {
			return fmt.Errorf("inserting upload log entry: %w", err)
		}
		return nil
	})
}

// ListForSession returns all upload log entries for a session, oldest first.
func (db *UploadLogDB) ListForSession(ctx context.Context, sessionID string) ([]*Entry, error) {
	var entries []*Entry

	if err := db.db.InTx(ctx, pgx.ReadCommitted, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT
				id, session_id, destination, success, record_id, record_url, error, metadata, created_at
			FROM
				UploadLog
			WHERE
				session_id = $1
			ORDER BY id ASC
		`, sessionID)
		if err != nil {
			return fmt.Errorf("listing upload log: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var e Entry
			var metadata []byte
			if err := rows.Scan(&e.ID, &e.SessionID, &e.Destination, &e.Success,
				&e.RecordID, &e.RecordURL, &e.Error, &metadata, &e.Timestamp); err != nil {
				return fmt.Errorf("scanning upload log entry: %w", err)
			}
			if len(metadata) > 0 {
				if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
					return fmt.Errorf("unmarshal metadata: %w", err)
				}
			}
			entries = append(entries, &e)
		}
		return rows.Err()
	}); err != nil {
		return nil, err
	}

	return entries, nil
}
