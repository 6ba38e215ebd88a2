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

import "testing"

func results(successes ...bool) []*Result {
	out := make([]*Result, 0, len(successes))
	for i, s := range successes {
		r := &Result{Destination: string(rune('a' + i)), Success: s}
		out = append(out, r)
	}
	return out
}

func TestStrategyOverall(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		strategy Strategy
		results  []*Result
		want     bool
	}{
		{"all_every_success", StrategyAll, results(true, true, true), true},
		{"all_one_failure", StrategyAll, results(true, false, true), false},
		{"all_empty", StrategyAll, nil, false},
		{"first_success_hit", StrategyFirstSuccess, results(false, true), true},
		{"first_success_none", StrategyFirstSuccess, results(false, false), false},
		{"best_effort_one", StrategyBestEffort, results(false, true, false), true},
		{"best_effort_none", StrategyBestEffort, results(false), false},
		{"best_effort_empty", StrategyBestEffort, nil, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.strategy.overall(tc.results); got != tc.want {
				t.Errorf("overall = %t, want %t", got, tc.want)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"ALL", "FIRST_SUCCESS", "BEST_EFFORT"} {
		if _, err := ParseStrategy(valid); err != nil {
			t.Errorf("ParseStrategy(%q): %v", valid, err)
		}
	}
	if _, err := ParseStrategy("all"); err == nil {
		t.Errorf("ParseStrategy accepted lowercase input")
	}
	if _, err := ParseStrategy(""); err == nil {
		t.Errorf("ParseStrategy accepted empty input")
	}
}
