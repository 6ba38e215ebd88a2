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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	sessiondb "github.com/openinstrument/session-publisher/internal/session/database"
	"github.com/openinstrument/session-publisher/internal/session/model"
	"github.com/openinstrument/session-publisher/pkg/logging"
)

const maxIntakeBodyBytes = 64 * 1024

type startRequest struct {
	SessionID    string    `json:"session_id"`
	InstrumentID string    `json:"instrument_id"`
	User         string    `json:"user"`
	StartTime    time.Time `json:"start_time"`
}

type endRequest struct {
	SessionID string    `json:"session_id"`
	EndTime   time.Time `json:"end_time"`
}

type intakeResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// handleSessionStart registers a newly started session.
func (s *Server) handleSessionStart() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx).Named("build.handleSessionStart")

		var req startRequest
		if err := decodeJSON(r.Body, &req); err != nil {
			respondJSON(w, http.StatusBadRequest, &intakeResponse{Error: err.Error()})
			return
		}

		session := &model.Session{
			ID:           req.SessionID,
			InstrumentID: req.InstrumentID,
			User:         req.User,
			StartTime:    req.StartTime,
			Status:       model.StatusWaitingForEnd,
		}
		if err := session.Validate(); err != nil {
			respondJSON(w, http.StatusBadRequest, &intakeResponse{Error: err.Error()})
			return
		}

		if err := s.orchestrator.RecordStart(ctx, session); err != nil {
			if errors.Is(err, sessiondb.ErrSessionExists) {
				respondJSON(w, http.StatusConflict, &intakeResponse{
					SessionID: req.SessionID,
					Error:     "session already exists",
				})
				return
			}
			logger.Errorw("recording session start", "session_id", req.SessionID, "error", err)
			respondJSON(w, http.StatusInternalServerError, &intakeResponse{
				SessionID: req.SessionID,
				Error:     "failed to record session start",
			})
			return
		}

		respondJSON(w, http.StatusCreated, &intakeResponse{
			SessionID: session.ID,
			Status:    string(model.StatusWaitingForEnd),
		})
	})
}

// handleSessionEnd marks a session as ended and reports the gate decision.
func (s *Server) handleSessionEnd() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx).Named("build.handleSessionEnd")

		var req endRequest
		if err := decodeJSON(r.Body, &req); err != nil {
			respondJSON(w, http.StatusBadRequest, &intakeResponse{Error: err.Error()})
			return
		}
		if req.SessionID == "" || req.EndTime.IsZero() {
			respondJSON(w, http.StatusBadRequest, &intakeResponse{Error: "session_id and end_time are required"})
			return
		}

		status, err := s.orchestrator.RecordEnd(ctx, req.SessionID, req.EndTime)
		if err != nil {
			switch {
			case errors.Is(err, sessiondb.ErrSessionNotFound):
				respondJSON(w, http.StatusNotFound, &intakeResponse{
					SessionID: req.SessionID,
					Error:     "session not found",
				})
			case errors.Is(err, ErrNotWaitingForEnd), errors.Is(err, ErrEndBeforeStart):
				respondJSON(w, http.StatusBadRequest, &intakeResponse{
					SessionID: req.SessionID,
					Error:     err.Error(),
				})
			default:
				logger.Errorw("recording session end", "session_id", req.SessionID, "error", err)
				respondJSON(w, http.StatusInternalServerError, &intakeResponse{
					SessionID: req.SessionID,
					Error:     "failed to record session end",
				})
			}
			return
		}

		respondJSON(w, http.StatusOK, &intakeResponse{
			SessionID: req.SessionID,
			Status:    string(status),
		})
	})
}

func decodeJSON(r io.Reader, into interface{}) error {
	d := json.NewDecoder(io.LimitReader(r, maxIntakeBodyBytes))
	d.DisallowUnknownFields()
	return d.Decode(into)
}
