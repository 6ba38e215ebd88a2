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
	"github.com/openinstrument/session-publisher/internal/metrics"
	"github.com/openinstrument/session-publisher/pkg/observability"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
)

const metricPrefix = metrics.MetricRoot + "publish"

var (
	mExportSuccess = stats.Int64(metricPrefix+"/export_success",
		"successful destination exports", stats.UnitDimensionless)
	mExportFailure = stats.Int64(metricPrefix+"/export_failure",
		"failed destination exports", stats.UnitDimensionless)
	mPluginDefect = stats.Int64(metricPrefix+"/plugin_defect",
		"destination invocations that panicked or returned nil", stats.UnitDimensionless)
	mExportLatencyMS = stats.Float64(metricPrefix+"/export_latency",
		"destination export latency", stats.UnitMilliseconds)
)

func init() {
	observability.CollectViews([]*view.View{
		{
			Name:        metricPrefix + "/export_success_count",
			Measure:     mExportSuccess,
			Aggregation: view.Sum(),
		},
		{
			Name:        metricPrefix + "/export_failure_count",
			Measure:     mExportFailure,
			Aggregation: view.Sum(),
		},
		{
			Name:        metricPrefix + "/plugin_defect_count",
			Measure:     mPluginDefect,
			Aggregation: view.Sum(),
		},
		{
			Name:        metricPrefix + "/export_latency",
			Measure:     mExportLatencyMS,
			Aggregation: view.Distribution(1, 5, 10, 50, 100, 500, 1000, 5000, 10000),
		},
	}...)
}
