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

package build

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openinstrument/session-publisher/internal/session/model"
)

var (
	// ErrNotWaitingForEnd is returned when ending a session that is not in
	// WAITING_FOR_END.
	ErrNotWaitingForEnd = errors.New("session is not waiting for end")

	// ErrEndBeforeStart is returned when a session's reported end time
	// precedes its start time.
	ErrEndBeforeStart = errors.New("end time precedes session start")
)

// RecordStart registers a new session at its start. The session enters
// WAITING_FOR_END and a START event is appended.
func (o *Orchestrator) RecordStart(ctx context.Context, session *model.Session) error {
	session.Status = model.StatusWaitingForEnd

	if err := o.store.AddSession(ctx, session); err != nil {
		return fmt.Errorf("adding session: %w", err)
	}
	if err := o.store.AppendEvent(ctx, &model.Event{
		SessionID:    session.ID,
		Time:         session.StartTime,
		Kind:         model.EventStart,
		StatusAtTime: model.StatusWaitingForEnd,
	}); err != nil {
		return fmt.Errorf("appending start event: %w", err)
	}
	return nil
}

// RecordEnd marks a session as ended and decides its next state: the gate
// admits it to TO_BE_BUILT or parks it in NO_CONSENT / NO_RESERVATION. An
// END event is appended with the decided status.
func (o *Orchestrator) RecordEnd(ctx context.Context, sessionID string, end time.Time) (model.Status, error) {
	session, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("loading session: %w", err)
	}
	if session.Status != model.StatusWaitingForEnd {
		return "", fmt.Errorf("session %s is %s: %w", sessionID, session.Status, ErrNotWaitingForEnd)
	}
	if end.Before(session.StartTime) {
		return "", fmt.Errorf("end %s, start %s: %w", end, session.StartTime, ErrEndBeforeStart)
	}

	if err := o.store.SetEndTime(ctx, sessionID, end); err != nil {
		return "", fmt.Errorf("setting end time: %w", err)
	}
	session.EndTime = end

	status := model.StatusToBeBuilt
	if err := o.gate.Check(ctx, session); err != nil {
		switch {
		case errors.Is(err, ErrNoConsent):
			status = model.StatusNoConsent
		case errors.Is(err, ErrNoReservation):
			status = model.StatusNoReservation
		default:
			return "", fmt.Errorf("gate check: %w", err)
		}
	}

	if err := o.store.UpdateStatus(ctx, sessionID, status); err != nil {
		return "", fmt.Errorf("updating status: %w", err)
	}
	if err := o.store.AppendEvent(ctx, &model.Event{
		SessionID:    sessionID,
		Time:         end,
		Kind:         model.EventEnd,
		StatusAtTime: status,
	}); err != nil {
		return "", fmt.Errorf("appending end event: %w", err)
	}
	return status, nil
}
