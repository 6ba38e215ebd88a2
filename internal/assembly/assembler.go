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

// Package assembly builds the experimental record payload from a session's
// activities and extracted metadata.
package assembly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openinstrument/session-publisher/internal/clustering"
	"github.com/openinstrument/session-publisher/internal/metadata"
	"github.com/openinstrument/session-publisher/internal/session/model"

	"github.com/google/uuid"
)

// Record is the publishable experimental record for one session.
type Record struct {
	ID           string           `json:"id"`
	SessionID    string           `json:"session_id"`
	InstrumentID string           `json:"instrument_id"`
	User         string           `json:"user,omitempty"`
	StartTime    time.Time        `json:"start_time"`
	EndTime      time.Time        `json:"end_time"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Activities   []RecordActivity `json:"activities"`
}

// RecordActivity is one acquisition step of the record.
type RecordActivity struct {
	Index     int          `json:"index"`
	StartTime time.Time    `json:"start_time"`
	EndTime   time.Time    `json:"end_time"`
	Files     []RecordFile `json:"files"`
}

// RecordFile is one data file of an activity. Metadata is nil when
// extraction failed for the file; the file itself is still part of the
// record.
type RecordFile struct {
	Path     string             `json:"path"`
	ModTime  time.Time          `json:"mod_time"`
	Metadata *metadata.Metadata `json:"metadata,omitempty"`
}

// Payload marshals the record for publishing.
func (r *Record) Payload() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshaling record: %w", err)
	}
	return b, nil
}

// Assembler builds a record from a session's activities and per-file
// metadata, keyed by file path.
type Assembler interface {
	Assemble(ctx context.Context, session *model.Session, activities []clustering.Activity, meta map[string]*metadata.Metadata) (*Record, error)
}

// Compile-time check to verify implements interface.
var _ Assembler = (*JSONAssembler)(nil)

// JSONAssembler is the default record assembler.
type JSONAssembler struct{}

// NewJSONAssembler creates a JSONAssembler.
func NewJSONAssembler() *JSONAssembler {
	return &JSONAssembler{}
}

// Assemble builds the record. The record ID is freshly generated per
// attempt so that operator re-submissions remain distinguishable
// downstream.
func (a *JSONAssembler) Assemble(ctx context.Context, session *model.Session, activities []clustering.Activity, meta map[string]*metadata.Metadata) (*Record, error) {
	if session == nil {
		return nil, errors.New("session cannot be nil")
	}
	if len(activities) == 0 {
		return nil, errors.New("cannot assemble a record with no activities")
	}

	record := &Record{
		ID:           uuid.NewString(),
		SessionID:    session.ID,
		InstrumentID: session.InstrumentID,
		User:         session.User,
		StartTime:    session.StartTime,
		EndTime:      session.EndTime,
		GeneratedAt:  time.Now().UTC(),
	}

	for _, act := range activities {
		ra := RecordActivity{
			Index:     act.Index,
			StartTime: act.StartTime,
			EndTime:   act.EndTime,
			Files:     make([]RecordFile, 0, len(act.Files)),
		}
		for _, f := range act.Files {
			ra.Files = append(ra.Files, RecordFile{
				Path:     f.Path,
				ModTime:  f.ModTime,
				Metadata: meta[f.Path],
			})
		}
		record.Activities = append(record.Activities, ra)
	}

	return record, nil
}
