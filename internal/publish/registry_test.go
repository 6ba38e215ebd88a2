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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testDestination is a scriptable destination for engine and registry tests.
type testDestination struct {
	name      string
	priority  int
	enabled   bool
	configErr error

	// export is invoked by Export when set; when nil, Export returns a
	// successful result.
	export  func(ctx context.Context, ectx *Context) *Result
	invoked int
}

func (d *testDestination) Name() string          { return d.name }
func (d *testDestination) Priority() int         { return d.priority }
func (d *testDestination) Enabled() bool         { return d.enabled }
func (d *testDestination) ValidateConfig() error { return d.configErr }

func (d *testDestination) Export(ctx context.Context, ectx *Context) *Result {
	d.invoked++
	if d.export != nil {
		return d.export(ctx, ectx)
	}
	return NewSuccess(d.name)
}

func TestNewRegistryValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		destinations []Destination
		wantErr      string
	}{
		{
			name: "valid",
			destinations: []Destination{
				&testDestination{name: "a", priority: 100, enabled: true},
				&testDestination{name: "b", priority: 50},
			},
		},
		{
			name: "duplicate_name",
			destinations: []Destination{
				&testDestination{name: "a", priority: 100, enabled: true},
				&testDestination{name: "a", priority: 50, enabled: true},
			},
			wantErr: "duplicate destination name",
		},
		{
			name: "empty_name",
			destinations: []Destination{
				&testDestination{name: "", priority: 100},
			},
			wantErr: "empty name",
		},
		{
			name: "priority_too_high",
			destinations: []Destination{
				&testDestination{name: "a", priority: 1001, enabled: true},
			},
			wantErr: "outside",
		},
		{
			name: "priority_negative",
			destinations: []Destination{
				&testDestination{name: "a", priority: -1, enabled: true},
			},
			wantErr: "outside",
		},
		{
			name: "enabled_config_checked",
			destinations: []Destination{
				&testDestination{name: "a", priority: 100, enabled: true, configErr: errTest},
			},
			wantErr: "config",
		},
		{
			name: "disabled_config_ignored",
			destinations: []Destination{
				&testDestination{name: "a", priority: 100, enabled: false, configErr: errTest},
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewRegistry(tc.destinations...)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("NewRegistry: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("NewRegistry err = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestEnabledByPriority(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry(
		&testDestination{name: "charlie", priority: 100, enabled: true},
		&testDestination{name: "alpha", priority: 100, enabled: true},
		&testDestination{name: "bravo", priority: 500, enabled: true},
		&testDestination{name: "disabled", priority: 900, enabled: false},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	var got []string
	for _, d := range r.EnabledByPriority() {
		got = append(got, d.Name())
	}

	want := []string{"bravo", "alpha", "charlie"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want, +got):\n%s", diff)
	}
}
