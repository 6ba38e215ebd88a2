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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/openinstrument/session-publisher/internal/database"
	"github.com/openinstrument/session-publisher/pkg/logging"
	"go.opencensus.io/stats"
)

// workerLockID guards against overlapping worker runs across processes.
const workerLockID = "build-worker"

type workResponse struct {
	Attempted []string `json:"attempted"`
	Errors    []string `json:"errors,omitempty"`
}

// handleWork triggers one worker run. Exactly one run may be active across
// all processes; a second trigger while the lock is held gets a conflict
// response and does no work.
func (s *Server) handleWork() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.config.WorkerTimeout)
		defer cancel()
		logger := logging.FromContext(ctx).Named("build.handleWork")

		unlock, err := s.env.Database().Lock(ctx, workerLockID, s.config.LockTTL)
		if err != nil {
			if errors.Is(err, database.ErrAlreadyLocked) {
				stats.Record(ctx, mLockContention.M(1))
				respondJSON(w, http.StatusConflict, &workResponse{
					Errors: []string{"worker already running"},
				})
				return
			}
			logger.Errorw("acquiring worker lock", "error", err)
			respondJSON(w, http.StatusInternalServerError, &workResponse{
				Errors: []string{"failed to acquire lock"},
			})
			return
		}
		defer func() {
			if err := unlock(); err != nil {
				logger.Errorw("failed to unlock", "error", err)
			}
		}()

		attempted, err := s.orchestrator.ProcessReady(ctx)

		resp := &workResponse{Attempted: attempted}
		status := http.StatusOK
		if err != nil {
			status = http.StatusInternalServerError
			var merr *multierror.Error
			if errors.As(err, &merr) {
				for _, e := range merr.Errors {
					resp.Errors = append(resp.Errors, e.Error())
				}
			} else {
				resp.Errors = append(resp.Errors, err.Error())
			}
		}
		respondJSON(w, status, resp)
	})
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
