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
	"github.com/openinstrument/session-publisher/internal/metrics"
	"github.com/openinstrument/session-publisher/pkg/observability"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
)

const metricPrefix = metrics.MetricRoot + "build"

var (
	mSessionAttempts = stats.Int64(metricPrefix+"/session_attempts",
		"session build attempts", stats.UnitDimensionless)
	mSessionCompleted = stats.Int64(metricPrefix+"/session_completed",
		"sessions built and fully exported", stats.UnitDimensionless)
	mSessionErrors = stats.Int64(metricPrefix+"/session_errors",
		"session builds ending in ERROR", stats.UnitDimensionless)
	mLockContention = stats.Int64(metricPrefix+"/lock_contention",
		"worker runs skipped because another worker holds the lock", stats.UnitDimensionless)
)

func init() {
	observability.CollectViews([]*view.View{
		{
			Name:        metricPrefix + "/session_attempts_count",
			Measure:     mSessionAttempts,
			Aggregation: view.Sum(),
		},
		{
			Name:        metricPrefix + "/session_completed_count",
			Measure:     mSessionCompleted,
			Aggregation: view.Sum(),
		},
		{
			Name:        metricPrefix + "/session_errors_count",
			Measure:     mSessionErrors,
			Aggregation: view.Sum(),
		},
		{
			Name:        metricPrefix + "/lock_contention_count",
			Measure:     mLockContention,
			Aggregation: view.Sum(),
		},
	}...)
}
