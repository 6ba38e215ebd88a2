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

// Package build orchestrates the session publication pipeline: find the
// sessions whose builds are due, turn each session's files into a record,
// and deliver the record through the export engine. Sessions are processed
// strictly one at a time; each attempt ends in exactly one status write.
package build

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/openinstrument/session-publisher/internal/assembly"
	"github.com/openinstrument/session-publisher/internal/clustering"
	"github.com/openinstrument/session-publisher/internal/files"
	"github.com/openinstrument/session-publisher/internal/metadata"
	"github.com/openinstrument/session-publisher/internal/publish"
	"github.com/openinstrument/session-publisher/internal/session/model"
	"github.com/openinstrument/session-publisher/pkg/logging"
	"go.opencensus.io/stats"
)

// SessionStore is the session persistence surface the orchestrator needs.
type SessionStore interface {
	AddSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	FindSessionsReadyToBuild(ctx context.Context, now time.Time, retryWindow time.Duration) ([]*model.Session, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) error
	SetEndTime(ctx context.Context, id string, end time.Time) error
	AppendEvent(ctx context.Context, e *model.Event) error
}

// Orchestrator drives builds end to end.
type Orchestrator struct {
	store     SessionStore
	locator   files.Locator
	extractor metadata.Extractor
	assembler assembly.Assembler
	engine    *publish.Engine
	gate      Gate

	sensitivity float64
	retryWindow time.Duration
}

// NewOrchestrator wires the pipeline collaborators.
func NewOrchestrator(store SessionStore, locator files.Locator, extractor metadata.Extractor, assembler assembly.Assembler, engine *publish.Engine, gate Gate, sensitivity float64, retryWindow time.Duration) (*Orchestrator, error) {
	if store == nil {
		return nil, fmt.Errorf("missing session store")
	}
	if locator == nil {
		return nil, fmt.Errorf("missing file locator")
	}
	if extractor == nil {
		return nil, fmt.Errorf("missing metadata extractor")
	}
	if assembler == nil {
		return nil, fmt.Errorf("missing assembler")
	}
	if engine == nil {
		return nil, fmt.Errorf("missing export engine")
	}
	if gate == nil {
		gate = AllowAll{}
	}
	if sensitivity <= 0 {
		return nil, fmt.Errorf("sensitivity must be positive, got %f", sensitivity)
	}

	return &Orchestrator{
		store:       store,
		locator:     locator,
		extractor:   extractor,
		assembler:   assembler,
		engine:      engine,
		gate:        gate,
		sensitivity: sensitivity,
		retryWindow: retryWindow,
	}, nil
}

// ProcessReady pulls every session due for a build and processes them
// sequentially, oldest end time first. A failed session is recorded in its
// own status and never stops the loop. Returns the IDs of the sessions
// attempted and the rollup of loop-level errors.
func (o *Orchestrator) ProcessReady(ctx context.Context) ([]string, error) {
	logger := logging.FromContext(ctx).Named("build.ProcessReady")

	sessions, err := o.store.FindSessionsReadyToBuild(ctx, time.Now().UTC(), o.retryWindow)
	if err != nil {
		return nil, fmt.Errorf("finding ready sessions: %w", err)
	}

	var attempted []string
	var merr *multierror.Error
	for _, session := range sessions {
		attempted = append(attempted, session.ID)

		status, err := o.ProcessSession(ctx, session)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("session %s: %w", session.ID, err))
		}
		logger.Infow("processed session", "session_id", session.ID, "status", status)
	}
	return attempted, merr.ErrorOrNil()
}

// ProcessSession runs one full build attempt. The session's status is
// written exactly once, after the pipeline finishes, together with a
// RECORD_GENERATION event carrying that status. The returned status is what
// was persisted; the error reports persistence problems or the pipeline
// fault behind an ERROR status.
func (o *Orchestrator) ProcessSession(ctx context.Context, session *model.Session) (model.Status, error) {
	logger := logging.FromContext(ctx).Named("build.ProcessSession")
	stats.Record(ctx, mSessionAttempts.M(1))

	status, pipelineErr := o.buildAndExport(ctx, session)

	if err := o.finalize(ctx, session.ID, status); err != nil {
		return status, multierror.Append(pipelineErr, err).ErrorOrNil()
	}

	switch status {
	case model.StatusCompleted:
		stats.Record(ctx, mSessionCompleted.M(1))
	case model.StatusError:
		stats.Record(ctx, mSessionErrors.M(1))
	}

	if pipelineErr != nil {
		logger.Errorw("build attempt failed", "session_id", session.ID, "status", status, "error", pipelineErr)
	}
	return status, pipelineErr
}

// buildAndExport runs the pipeline stages and decides the resulting status.
// It performs no status writes itself.
func (o *Orchestrator) buildAndExport(ctx context.Context, session *model.Session) (model.Status, error) {
	logger := logging.FromContext(ctx).Named("build.buildAndExport")

	found, err := o.locator.FindFiles(ctx, session.InstrumentID, session.StartTime, session.EndTime)
	if err != nil {
		return model.StatusError, fmt.Errorf("locating files: %w", err)
	}
	if len(found) == 0 {
		return model.StatusNoFilesFound, nil
	}

	activities, err := clustering.Cluster(found, o.sensitivity)
	if err != nil {
		return model.StatusError, fmt.Errorf("clustering files: %w", err)
	}

	// Per-file extraction failures degrade the file's metadata to nil but
	// never fail the build.
	meta := make(map[string]*metadata.Metadata, len(found))
	for _, f := range found {
		m, err := o.extractor.Extract(ctx, f.Path)
		if err != nil {
			logger.Warnw("metadata extraction failed",
				"session_id", session.ID, "path", f.Path, "error", err)
			continue
		}
		meta[f.Path] = m
	}

	record, err := o.assembler.Assemble(ctx, session, activities, meta)
	if err != nil {
		return model.StatusError, fmt.Errorf("assembling record: %w", err)
	}
	payload, err := record.Payload()
	if err != nil {
		return model.StatusError, fmt.Errorf("marshaling record: %w", err)
	}

	ectx := publish.NewContext(session.ID, session.InstrumentID, session.User,
		session.StartTime, session.EndTime, record.ID, payload)

	summary, err := o.engine.Export(ctx, ectx)
	if err != nil {
		// Audit log failures are surfaced in logs but the delivery outcome
		// stands on the destination results.
		logger.Errorw("audit log writes failed", "session_id", session.ID, "error", err)
	}

	if summary.Overall {
		return model.StatusCompleted, nil
	}
	return model.StatusBuiltNotExported, nil
}

// finalize persists the attempt outcome: one status update and one
// RECORD_GENERATION event.
func (o *Orchestrator) finalize(ctx context.Context, sessionID string, status model.Status) error {
	if err := o.store.UpdateStatus(ctx, sessionID, status); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	if err := o.store.AppendEvent(ctx, &model.Event{
		SessionID:    sessionID,
		Time:         time.Now().UTC(),
		Kind:         model.EventRecordGeneration,
		StatusAtTime: status,
	}); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}
