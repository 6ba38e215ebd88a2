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
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/openinstrument/session-publisher/pkg/logging"
	"go.opencensus.io/stats"
)

// AuditLog persists one entry per destination attempt. Implementations must
// be durable: the engine writes an entry before the attempt's result becomes
// visible to later destinations.
type AuditLog interface {
	Append(ctx context.Context, sessionID string, result *Result) error
}

// Engine runs a record through the destination registry under a strategy.
type Engine struct {
	registry *Registry
	strategy Strategy
	audit    AuditLog
}

// NewEngine creates an export engine.
func NewEngine(registry *Registry, strategy Strategy, audit AuditLog) (*Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("missing registry")
	}
	if audit == nil {
		return nil, fmt.Errorf("missing audit log")
	}
	switch strategy {
	case StrategyAll, StrategyFirstSuccess, StrategyBestEffort:
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}

	return &Engine{
		registry: registry,
		strategy: strategy,
		audit:    audit,
	}, nil
}

// Summary is the outcome of one export run.
type Summary struct {
	Strategy Strategy
	Results  []*Result
	Overall  bool
}

// Export delivers the record in ectx to the enabled destinations in priority
// order. Each destination sees the results of the destinations that ran
// before it. A destination that panics or returns a nil result is recorded
// as a failed plugin-defect attempt and does not abort the run.
//
// The returned error aggregates audit log write failures only; the Summary
// is valid either way.
func (e *Engine) Export(ctx context.Context, ectx *Context) (*Summary, error) {
	logger := logging.FromContext(ctx).Named("publish.Export")

	summary := &Summary{
		Strategy: e.strategy,
	}

	var auditErr *multierror.Error
	for _, dest := range e.registry.EnabledByPriority() {
		result := invoke(ctx, dest, ectx)

		if err := e.audit.Append(ctx, ectx.SessionID, result); err != nil {
			auditErr = multierror.Append(auditErr, fmt.Errorf("audit %q: %w", dest.Name(), err))
		}

		summary.Results = append(summary.Results, result)
		ectx.recordResult(dest.Name(), result)

		if result.Success {
			stats.Record(ctx, mExportSuccess.M(1))
		} else {
			stats.Record(ctx, mExportFailure.M(1))
			if result.IsPluginDefect() {
				stats.Record(ctx, mPluginDefect.M(1))
			}
			logger.Warnw("destination failed",
				"session_id", ectx.SessionID,
				"destination", dest.Name(),
				"error", result.Error)
		}

		if e.strategy == StrategyFirstSuccess && result.Success {
			break
		}
	}

	summary.Overall = e.strategy.overall(summary.Results)
	return summary, auditErr.ErrorOrNil()
}

// invoke runs a single destination, converting a panic or a nil result into
// a failed attempt so one defective destination cannot take down the run.
func invoke(ctx context.Context, dest Destination, ectx *Context) (result *Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = defectResult(dest, fmt.Errorf("plugin defect: panic: %v", r))
		}
		stats.Record(ctx, mExportLatencyMS.M(float64(time.Since(start).Milliseconds())))
	}()

	result = dest.Export(ctx, ectx)
	if result == nil {
		return defectResult(dest, fmt.Errorf("plugin defect: returned nil result"))
	}
	return result
}

func defectResult(dest Destination, err error) *Result {
	r := NewFailure(dest.Name(), err)
	r.Metadata = map[string]string{MetadataKeyPluginDefect: "true"}
	return r
}
