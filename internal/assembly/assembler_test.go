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

package assembly

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/openinstrument/session-publisher/internal/clustering"
	"github.com/openinstrument/session-publisher/internal/metadata"
	"github.com/openinstrument/session-publisher/internal/project"
	"github.com/openinstrument/session-publisher/internal/session/model"
)

func testSession() *model.Session {
	start := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	return &model.Session{
		ID:           "sess-1",
		InstrumentID: "nmr-400",
		StartTime:    start,
		EndTime:      start.Add(2 * time.Hour),
		User:         "researcher",
		Status:       model.StatusToBeBuilt,
	}
}

func TestJSONAssemblerAssemble(t *testing.T) {
	t.Parallel()

	ctx := project.TestContext(t)
	session := testSession()

	activities := []clustering.Activity{
		{
			Index:     0,
			StartTime: session.StartTime.Add(time.Minute),
			EndTime:   session.StartTime.Add(10 * time.Minute),
			Files: []clustering.File{
				{Path: "/data/nmr-400/a.dat", ModTime: session.StartTime.Add(time.Minute)},
				{Path: "/data/nmr-400/b.dat", ModTime: session.StartTime.Add(10 * time.Minute)},
			},
		},
	}
	meta := map[string]*metadata.Metadata{
		"/data/nmr-400/a.dat": {Path: "/data/nmr-400/a.dat", Size: 42},
		// b.dat extraction failed; the file is still included.
	}

	record, err := NewJSONAssembler().Assemble(ctx, session, activities, meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.ID == "" {
		t.Error("expected a generated record ID")
	}
	if record.SessionID != session.ID {
		t.Errorf("SessionID = %q, want %q", record.SessionID, session.ID)
	}
	if len(record.Activities) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(record.Activities))
	}
	files := record.Activities[0].Files
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].Metadata == nil {
		t.Error("expected metadata for a.dat")
	}
	if files[1].Metadata != nil {
		t.Error("expected nil metadata for b.dat")
	}

	payload, err := record.Payload()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
}

func TestJSONAssemblerRejectsEmpty(t *testing.T) {
	t.Parallel()

	ctx := project.TestContext(t)

	if _, err := NewJSONAssembler().Assemble(ctx, testSession(), nil, nil); err == nil {
		t.Error("expected error for zero activities")
	}
	if _, err := NewJSONAssembler().Assemble(ctx, nil, []clustering.Activity{{}}, nil); err == nil {
		t.Error("expected error for nil session")
	}
}

func TestRecordIDsUniquePerAttempt(t *testing.T) {
	t.Parallel()

	ctx := project.TestContext(t)
	activities := []clustering.Activity{{Files: []clustering.File{{Path: "x"}}}}

	r1, err := NewJSONAssembler().Assemble(ctx, testSession(), activities, nil)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := NewJSONAssembler().Assemble(ctx, testSession(), activities, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r1.ID == r2.ID {
		t.Errorf("expected distinct record IDs, both %q", r1.ID)
	}
}
