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

import "fmt"

// Strategy is the policy for rolling up multiple destination outcomes into
// one overall result.
type Strategy string

const (
	// StrategyAll invokes every enabled destination; overall success requires
	// every result to succeed.
	StrategyAll Strategy = "ALL"

	// StrategyFirstSuccess stops at the first successful destination; later
	// destinations are neither invoked nor logged.
	StrategyFirstSuccess Strategy = "FIRST_SUCCESS"

	// StrategyBestEffort invokes every enabled destination; overall success
	// requires at least one result to succeed.
	StrategyBestEffort Strategy = "BEST_EFFORT"
)

// ParseStrategy converts a configured string into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyAll, StrategyFirstSuccess, StrategyBestEffort:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown export strategy %q", s)
	}
}

// overall rolls up the produced results per the strategy.
func (s Strategy) overall(results []*Result) bool {
	switch s {
	case StrategyAll:
		if len(results) == 0 {
			return false
		}
		for _, r := range results {
			if !r.Success {
				return false
			}
		}
		return true
	case StrategyFirstSuccess, StrategyBestEffort:
		for _, r := range results {
			if r.Success {
				return true
			}
		}
		return false
	default:
		return false
	}
}
