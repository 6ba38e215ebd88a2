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

import "time"

// MetadataKeyPluginDefect marks results the engine synthesized from a fault
// that escaped a destination's Export, in violation of its contract.
const MetadataKeyPluginDefect = "plugin_defect"

// Result is the outcome of one destination invocation. A successful result
// may still carry a non-empty Error as a warning; strategies only consult
// Success.
type Result struct {
	Destination string            `json:"destination"`
	Success     bool              `json:"success"`
	RecordID    string            `json:"record_id,omitempty"`
	RecordURL   string            `json:"record_url,omitempty"`
	Error       string            `json:"error,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NewSuccess builds a successful result for the destination.
func NewSuccess(destination string) *Result {
	return &Result{
		Destination: destination,
		Success:     true,
		Timestamp:   time.Now().UTC(),
	}
}

// NewFailure builds a failed result carrying the error message.
func NewFailure(destination string, err error) *Result {
	r := &Result{
		Destination: destination,
		Success:     false,
		Timestamp:   time.Now().UTC(),
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// IsPluginDefect reports whether the engine synthesized this result from a
// fault that escaped the destination.
func (r *Result) IsPluginDefect() bool {
	return r.Metadata[MetadataKeyPluginDefect] == "true"
}
