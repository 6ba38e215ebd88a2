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
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/openinstrument/session-publisher/internal/project"
	"github.com/openinstrument/session-publisher/internal/session/model"
)

func TestFindSessionsReadyToBuild(t *testing.T) {
	if testDB == nil {
		t.Skip("no test DB")
	}
	ctx := project.TestContext(t)
	db := New(testDB)

	now := time.Now().UTC().Truncate(time.Microsecond)
	window := 72 * time.Hour

	sessions := []*model.Session{
		{ID: "ready-new", InstrumentID: "nmr-400", StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour), Status: model.StatusToBeBuilt},
		{ID: "ready-old", InstrumentID: "nmr-400", StartTime: now.Add(-1001 * time.Hour), EndTime: now.Add(-1000 * time.Hour), Status: model.StatusToBeBuilt},
		{ID: "retry-inside", InstrumentID: "nmr-400", StartTime: now.Add(-25 * time.Hour), EndTime: now.Add(-24 * time.Hour), Status: model.StatusNoFilesFound},
		{ID: "retry-outside", InstrumentID: "nmr-400", StartTime: now.Add(-101 * time.Hour), EndTime: now.Add(-100 * time.Hour), Status: model.StatusNoFilesFound},
		{ID: "done", InstrumentID: "nmr-400", StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour), Status: model.StatusCompleted},
		{ID: "still-running", InstrumentID: "nmr-400", StartTime: now.Add(-time.Hour), Status: model.StatusWaitingForEnd},
	}
	for _, s := range sessions {
		if err := db.AddSession(ctx, s); err != nil {
			t.Fatalf("AddSession(%s): %v", s.ID, err)
		}
	}

	got, err := db.FindSessionsReadyToBuild(ctx, now, window)
	if err != nil {
		t.Fatalf("FindSessionsReadyToBuild: %v", err)
	}

	var ids []string
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	// Oldest end time first; retry-outside, done, and still-running
	// excluded.
	want := []string{"ready-old", "retry-inside", "ready-new"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("ready sessions mismatch (-want, +got):\n%s", diff)
	}

	// Every inserted session agrees with the shared eligibility predicate.
	returned := make(map[string]bool, len(got))
	for _, s := range got {
		returned[s.ID] = true
	}
	for _, s := range sessions {
		if want := model.ReadyToBuild(s, now, window); returned[s.ID] != want {
			t.Errorf("session %s: returned = %t, ReadyToBuild = %t", s.ID, returned[s.ID], want)
		}
	}
}

func TestAddSessionDuplicate(t *testing.T) {
	if testDB == nil {
		t.Skip("no test DB")
	}
	ctx := project.TestContext(t)
	db := New(testDB)

	now := time.Now().UTC()
	session := &model.Session{
		ID:           "dup-1",
		InstrumentID: "nmr-400",
		StartTime:    now.Add(-time.Hour),
		Status:       model.StatusWaitingForEnd,
	}
	if err := db.AddSession(ctx, session); err != nil {
		t.Fatalf("AddSession: %v", err)
	}
	if err := db.AddSession(ctx, session); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("AddSession duplicate err = %v, want ErrSessionExists", err)
	}
}
