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

// Package database persists sessions and their append-only event log.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	coredb "github.com/openinstrument/session-publisher/internal/database"
	"github.com/openinstrument/session-publisher/internal/session/model"

	pgx "github.com/jackc/pgx/v4"
)

var (
	// ErrSessionNotFound is returned when looking up a session that does
	// not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned when inserting a session whose ID is
	// already taken.
	ErrSessionExists = errors.New("session already exists")
)

// SessionDB wraps database handles for session persistence.
type SessionDB struct {
	db *coredb.DB
}

// New creates a SessionDB attached to the given database.
func New(db *coredb.DB) *SessionDB {
	return &SessionDB{db: db}
}

// AddSession inserts a new session row. Exactly one row may exist per
// session ID; inserting a duplicate returns ErrSessionExists.
func (db *SessionDB) AddSession(ctx context.Context, s *model.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}

	return db.db.InTx(ctx, pgx.Serializable, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT
				1
			FROM
				Session
			WHERE
				session_id = $1
		`, s.ID)
		var one int
		switch err := row.Scan(&one); {
		case err == nil:
			return ErrSessionExists
		case errors.Is(err, pgx.ErrNoRows):
		default:
			return fmt.Errorf("checking for existing session: %w", err)
		}

		var endTime *time.Time
		if !s.EndTime.IsZero() {
			endTime = &s.EndTime
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO
				Session
				(session_id, instrument_id, start_time, end_time, user_name, status)
			VALUES
				($1, $2, $3, $4, $5, $6)
		`, s.ID, s.InstrumentID, s.StartTime, endTime, s.User, s.Status); err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}
		return nil
	})
}

// GetSession looks up one session by ID.
func (db *SessionDB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	conn, err := db.db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
		SELECT
			session_id, instrument_id, start_time, end_time, user_name, status
		FROM
			Session
		WHERE
			session_id = $1
	`, id)

	s, err := scanOneSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

// FindSessionsReadyToBuild returns the sessions the orchestrator should
// process on this run, ordered by session end time. The WHERE clause is the
// SQL form of model.ReadyToBuild: TO_BE_BUILT sessions plus NO_FILES_FOUND
// sessions whose end time is still inside the retry window. Terminal
// sessions are never returned.
func (db *SessionDB) FindSessionsReadyToBuild(ctx context.Context, now time.Time, retryWindow time.Duration) ([]*model.Session, error) {
	conn, err := db.db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT
			session_id, instrument_id, start_time, end_time, user_name, status
		FROM
			Session
		WHERE
			status = $1
			OR (status = $2 AND end_time > $3)
		ORDER BY end_time ASC
	`, model.StatusToBeBuilt, model.StatusNoFilesFound, now.Add(-retryWindow))
	if err != nil {
		return nil, fmt.Errorf("querying ready sessions: %w", err)
	}
	defer rows.Close()

	var results []*model.Session
	for rows.Next() {
		s, err := scanOneSession(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ready sessions: %w", err)
	}
	return results, nil
}

// UpdateStatus writes the session's status. The orchestrator calls this
// exactly once per build attempt, after the full pipeline for the session has
// run.
func (db *SessionDB) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	return db.db.InTx(ctx, pgx.Serializable, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE
				Session
			SET
				status = $1
			WHERE
				session_id = $2
		`, status, id)
		if err != nil {
			return fmt.Errorf("updating session status: %w", err)
		}
		if result.RowsAffected() != 1 {
			return ErrSessionNotFound
		}
		return nil
	})
}

// SetEndTime records the session's END timestamp.
func (db *SessionDB) SetEndTime(ctx context.Context, id string, end time.Time) error {
	return db.db.InTx(ctx, pgx.Serializable, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE
				Session
			SET
				end_time = $1
			WHERE
				session_id = $2
		`, end, id)
		if err != nil {
			return fmt.Errorf("updating session end time: %w", err)
		}
		if result.RowsAffected() != 1 {
			return ErrSessionNotFound
		}
		return nil
	})
}

// AppendEvent appends one entry to the session's event log. Events are never
// updated or deleted.
func (db *SessionDB) AppendEvent(ctx context.Context, e *model.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}

	return db.db.InTx(ctx, pgx.Serializable, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO
				SessionEvent
				(session_id, event_time, kind, status_at_time)
			VALUES
				($1, $2, $3, $4)
		`, e.SessionID, e.Time, e.Kind, e.StatusAtTime); err != nil {
			return fmt.Errorf("inserting session event: %w", err)
		}
		return nil
	})
}

// ListEvents returns the session's event log ordered by time.
func (db *SessionDB) ListEvents(ctx context.Context, sessionID string) ([]*model.Event, error) {
	conn, err := db.db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT
			session_id, event_time, kind, status_at_time
		FROM
			SessionEvent
		WHERE
			session_id = $1
		ORDER BY event_time ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session events: %w", err)
	}
	defer rows.Close()

	var results []*model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.SessionID, &e.Time, &e.Kind, &e.StatusAtTime); err != nil {
			return nil, fmt.Errorf("scanning session event: %w", err)
		}
		results = append(results, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session events: %w", err)
	}
	return results, nil
}

func scanOneSession(row pgx.Row) (*model.Session, error) {
	var (
		s       model.Session
		endTime *time.Time
	)
	if err := row.Scan(&s.ID, &s.InstrumentID, &s.StartTime, &endTime, &s.User, &s.Status); err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	if endTime != nil {
		s.EndTime = *endTime
	}
	return &s, nil
}
