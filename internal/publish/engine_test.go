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

package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/openinstrument/session-publisher/internal/project"
)

var errTest = errors.New("boom")

// memoryAuditLog records appended results in order.
type memoryAuditLog struct {
	entries []*Result
	err     error
}

func (m *memoryAuditLog) Append(_ context.Context, _ string, r *Result) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, r)
	return nil
}

func testExportContext() *Context {
	now := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	return NewContext("session-1", "nmr-400", "ada", now, now.Add(time.Hour), "rec-1", []byte(`{}`))
}

func newTestEngine(tb testing.TB, strategy Strategy, audit AuditLog, dests ...Destination) *Engine {
	tb.Helper()

	r, err := NewRegistry(dests...)
	if err != nil {
		tb.Fatalf("NewRegistry: %v", err)
	}
	e, err := NewEngine(r, strategy, audit)
	if err != nil {
		tb.Fatalf("NewEngine: %v", err)
	}
	return e
}

func failing(name string, priority int) *testDestination {
	return &testDestination{
		name:     name,
		priority: priority,
		enabled:  true,
		export: func(context.Context, *Context) *Result {
			return NewFailure(name, errTest)
		},
	}
}

func succeeding(name string, priority int) *testDestination {
	return &testDestination{name: name, priority: priority, enabled: true}
}

func TestExportAllInvokesEveryDestination(t *testing.T) {
	t.Parallel()
	ctx := project.TestContext(t)

	d1 := succeeding("one", 300)
	d2 := failing("two", 200)
	d3 := succeeding("three", 100)
	audit := &memoryAuditLog{}
	engine := newTestEngine(t, StrategyAll, audit, d1, d2, d3)

	summary, err := engine.Export(ctx, testExportContext())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if got, want := len(summary.Results), 3; got != want {
		t.Fatalf("got %d results, want %d", got, want)
	}
	if summary.Overall {
		t.Errorf("Overall = true, want false with a failed destination")
	}
	for _, d := range []*testDestination{d1, d2, d3} {
		if d.invoked != 1 {
			t.Errorf("destination %q invoked %d times, want 1", d.name, d.invoked)
		}
	}
	if got, want := len(audit.entries), 3; got != want {
		t.Errorf("audit log has %d entries, want %d", got, want)
	}
}

func TestExportFirstSuccessShortCircuits(t *testing.T) {
	t.Parallel()
	ctx := project.TestContext(t)

	d1 := failing("one", 100)
	d2 := succeeding("two", 90)
	d3 := succeeding("three", 80)
	audit := &memoryAuditLog{}
	engine := newTestEngine(t, StrategyFirstSuccess, audit, d1, d2, d3)

	summary, err := engine.Export(ctx, testExportContext())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if got, want := len(summary.Results), 2; got != want {
		t.Fatalf("got %d results, want %d", got, want)
	}
	if !summary.Overall {
		t.Errorf("Overall = false, want true")
	}
	if d3.invoked != 0 {
		t.Errorf("third destination invoked %d times, want 0", d3.invoked)
	}
	// The skipped destination must not be logged either.
	for _, e := range audit.entries {
		if e.Destination == "three" {
			t.Errorf("skipped destination appears in audit log")
		}
	}
	if got, want := len(audit.entries), 2; got != want {
		t.Errorf("audit log has %d entries, want %d", got, want)
	}
}

func TestExportBestEffort(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		dests       []Destination
		wantOverall bool
		wantResults int
	}{
		{
			name:        "one_success_suffices",
			dests:       []Destination{failing("a", 300), succeeding("b", 200), failing("c", 100)},
			wantOverall: true,
			wantResults: 3,
		},
		{
			name:        "all_fail",
			dests:       []Destination{failing("a", 300), failing("b", 200)},
			wantOverall: false,
			wantResults: 2,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx := project.TestContext(t)

			engine := newTestEngine(t, StrategyBestEffort, &memoryAuditLog{}, tc.dests...)
			summary, err := engine.Export(ctx, testExportContext())
			if err != nil {
				t.Fatalf("Export: %v", err)
			}
			if summary.Overall != tc.wantOverall {
				t.Errorf("Overall = %t, want %t", summary.Overall, tc.wantOverall)
			}
			if got := len(summary.Results); got != tc.wantResults {
				t.Errorf("got %d results, want %d", got, tc.wantResults)
			}
		})
	}
}

func TestExportPreviousResultsVisible(t *testing.T) {
	t.Parallel()
	ctx := project.TestContext(t)

	first := &testDestination{
		name:     "repository",
		priority: 200,
		enabled:  true,
		export: func(context.Context, *Context) *Result {
			r := NewSuccess("repository")
			r.RecordID = "repo-42"
			r.RecordURL = "https://repo.example.org/records/repo-42"
			return r
		},
	}

	var sawRepo *Result
	second := &testDestination{
		name:     "catalog",
		priority: 100,
		enabled:  true,
		export: func(_ context.Context, ectx *Context) *Result {
			if r, ok := ectx.PreviousResult("repository"); ok {
				sawRepo = r
			}
			if _, ok := ectx.PreviousResult("catalog"); ok {
				return NewFailure("catalog", errors.New("saw own result"))
			}
			return NewSuccess("catalog")
		},
	}

	engine := newTestEngine(t, StrategyAll, &memoryAuditLog{}, first, second)
	summary, err := engine.Export(ctx, testExportContext())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !summary.Overall {
		t.Fatalf("Overall = false, want true; results %+v", summary.Results)
	}

	if sawRepo == nil {
		t.Fatalf("second destination did not see the first's result")
	}
	if diff := cmp.Diff("repo-42", sawRepo.RecordID); diff != "" {
		t.Errorf("cross-referenced record ID (-want, +got):\n%s", diff)
	}
}

func TestExportRecoversPanic(t *testing.T) {
	t.Parallel()
	ctx := project.TestContext(t)

	panicking := &testDestination{
		name:     "broken",
		priority: 200,
		enabled:  true,
		export: func(context.Context, *Context) *Result {
			panic("nil map write")
		},
	}
	after := succeeding("steady", 100)
	audit := &memoryAuditLog{}
	engine := newTestEngine(t, StrategyAll, audit, panicking, after)

	summary, err := engine.Export(ctx, testExportContext())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if got, want := len(summary.Results), 2; got != want {
		t.Fatalf("got %d results, want %d", got, want)
	}
	defect := summary.Results[0]
	if defect.Success {
		t.Errorf("panicking destination reported success")
	}
	if !defect.IsPluginDefect() {
		t.Errorf("result not marked as plugin defect: %+v", defect)
	}
	if !strings.Contains(defect.Error, "nil map write") {
		t.Errorf("defect error %q does not carry the panic value", defect.Error)
	}
	if after.invoked != 1 {
		t.Errorf("destination after the panic invoked %d times, want 1", after.invoked)
	}
	if got, want := len(audit.entries), 2; got != want {
		t.Errorf("audit log has %d entries, want %d", got, want)
	}
}

func TestExportNilResultIsDefect(t *testing.T) {
	t.Parallel()
	ctx := project.TestContext(t)

	nilDest := &testDestination{
		name:     "void",
		priority: 100,
		enabled:  true,
		export: func(context.Context, *Context) *Result {
			return nil
		},
	}
	engine := newTestEngine(t, StrategyBestEffort, &memoryAuditLog{}, nilDest)

	summary, err := engine.Export(ctx, testExportContext())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if got, want := len(summary.Results), 1; got != want {
		t.Fatalf("got %d results, want %d", got, want)
	}
	if !summary.Results[0].IsPluginDefect() {
		t.Errorf("nil result not converted to plugin defect: %+v", summary.Results[0])
	}
}

func TestExportAuditFailureDoesNotAbort(t *testing.T) {
	t.Parallel()
	ctx := project.TestContext(t)

	d1 := succeeding("one", 200)
	d2 := succeeding("two", 100)
	engine := newTestEngine(t, StrategyAll, &memoryAuditLog{err: fmt.Errorf("disk full")}, d1, d2)

	summary, err := engine.Export(ctx, testExportContext())
	if err == nil {
		t.Fatalf("Export err = nil, want audit failures surfaced")
	}
	if got, want := len(summary.Results), 2; got != want {
		t.Errorf("got %d results, want %d", got, want)
	}
	if !summary.Overall {
		t.Errorf("Overall = false, want true; audit failures must not flip delivery outcome")
	}
}

func TestNewEngineRejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, err := NewEngine(r, Strategy("SOMETIMES"), &memoryAuditLog{}); err == nil {
		t.Fatalf("NewEngine accepted unknown strategy")
	}
}
