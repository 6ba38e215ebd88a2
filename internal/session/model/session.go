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

// Package model is a model abstraction of instrument usage sessions.
package model

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a session.
type Status string

const (
	// StatusWaitingForEnd is the state of a session whose START has been
	// observed but not its END.
	StatusWaitingForEnd Status = "WAITING_FOR_END"

	// StatusToBeBuilt marks a session that ended and is waiting for the build
	// worker to pick it up.
	StatusToBeBuilt Status = "TO_BE_BUILT"

	// StatusNoConsent and StatusNoReservation mark sessions rejected by the
	// upstream precondition gate on END.
	StatusNoConsent     Status = "NO_CONSENT"
	StatusNoReservation Status = "NO_RESERVATION"

	// StatusNoFilesFound marks a build attempt that located zero files. It is
	// retried on later runs while the session is still inside the configured
	// retry window (measured from the session end time).
	StatusNoFilesFound Status = "NO_FILES_FOUND"

	// StatusError marks a failed build attempt.
	StatusError Status = "ERROR"

	// StatusCompleted marks a session whose record was built and exported
	// successfully per the active strategy.
	StatusCompleted Status = "COMPLETED"

	// StatusBuiltNotExported marks a session whose record was assembled but
	// whose export did not reach overall success. Re-submission is an
	// operator action, a blind automatic retry could double-publish to
	// destinations that already succeeded.
	StatusBuiltNotExported Status = "BUILT_NOT_EXPORTED"
)

var allStatuses = map[Status]struct{}{
	StatusWaitingForEnd:    {},
	StatusToBeBuilt:        {},
	StatusNoConsent:        {},
	StatusNoReservation:    {},
	StatusNoFilesFound:     {},
	StatusError:            {},
	StatusCompleted:        {},
	StatusBuiltNotExported: {},
}

// ParseStatus converts a stored string into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := allStatuses[status]; !ok {
		return "", fmt.Errorf("unknown session status %q", s)
	}
	return status, nil
}

// Terminal reports whether a session in this status is never re-submitted to
// the build worker. StatusNoFilesFound is absent: it stays eligible while
// inside the retry window, which the store query enforces.
func (s Status) Terminal() bool {
	switch s {
	case StatusError, StatusNoConsent, StatusNoReservation, StatusCompleted, StatusBuiltNotExported:
		return true
	}
	return false
}

// ReadyToBuild is the eligibility rule for pulling a session into a worker
// run: TO_BE_BUILT sessions always qualify, NO_FILES_FOUND sessions qualify
// strictly while their end time is inside the retry window. The store's
// ready-sessions query must stay equivalent to this predicate.
func ReadyToBuild(s *Session, now time.Time, retryWindow time.Duration) bool {
	switch s.Status {
	case StatusToBeBuilt:
		return true
	case StatusNoFilesFound:
		return !s.EndTime.IsZero() && s.EndTime.After(now.Add(-retryWindow))
	}
	return false
}

// Session is one tracked instrument-usage interval, the unit of record
// building. Exactly one row exists per ID.
type Session struct {
	ID           string
	InstrumentID string
	StartTime    time.Time
	EndTime      time.Time
	User         string
	Status       Status
}

// Validate checks that the session is well formed before persisting.
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	if s.InstrumentID == "" {
		return errors.New("instrument ID cannot be empty")
	}
	if s.StartTime.IsZero() {
		return errors.New("session start time cannot be zero")
	}
	if !s.EndTime.IsZero() && s.EndTime.Before(s.StartTime) {
		return errors.New("session end time cannot precede start time")
	}
	if _, ok := allStatuses[s.Status]; !ok {
		return fmt.Errorf("unknown session status %q", s.Status)
	}
	return nil
}

// EventKind identifies the kind of a session event.
type EventKind string

const (
	EventStart            EventKind = "START"
	EventEnd              EventKind = "END"
	EventRecordGeneration EventKind = "RECORD_GENERATION"
)

// Event is one entry of a session's append-only event log. Events are
// immutable once written and strictly ordered by time.
type Event struct {
	SessionID    string
	Time         time.Time
	Kind         EventKind
	StatusAtTime Status
}

// Validate checks that the event is well formed before persisting.
func (e *Event) Validate() error {
	if e.SessionID == "" {
		return errors.New("event session ID cannot be empty")
	}
	if e.Time.IsZero() {
		return errors.New("event time cannot be zero")
	}
	switch e.Kind {
	case EventStart, EventEnd, EventRecordGeneration:
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if _, ok := allStatuses[e.StatusAtTime]; !ok {
		return fmt.Errorf("unknown event status %q", e.StatusAtTime)
	}
	return nil
}
