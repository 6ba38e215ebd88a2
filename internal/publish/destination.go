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

// Package publish runs a completed record through the configured
// destinations according to an export strategy.
package publish

import "context"

const (
	// MinPriority and MaxPriority bound the configurable destination
	// priorities. Higher priority destinations run first.
	MinPriority = 0
	MaxPriority = 1000
)

// Destination is a pluggable publishing target for a completed record.
//
// Export must never panic and must never return nil: any internal fault is
// to be converted into a Result with Success=false and the error message
// set. The engine additionally guards every invocation and tags escaping
// faults as plugin defects, so operators can separate destination-reported
// failures from contract violations.
type Destination interface {
	// Name uniquely identifies the destination.
	Name() string

	// Priority orders destinations within a run, higher first. Ties are
	// broken by name for determinism.
	Priority() int

	// Enabled reports whether the destination participates in exports.
	Enabled() bool

	// ValidateConfig is called once at registration.
	ValidateConfig() error

	// Export publishes the record carried by the context.
	Export(ctx context.Context, ectx *Context) *Result
}
