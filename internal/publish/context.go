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

// Context is the per-attempt state threaded through the destination chain.
// The session identity fields are immutable; previous results are appended
// by the engine after each destination completes, so a destination only ever
// sees the outcomes of higher-priority destinations that already ran in the
// same attempt.
type Context struct {
	SessionID    string
	InstrumentID string
	User         string
	SessionStart time.Time
	SessionEnd   time.Time

	// RecordID identifies the assembled record; Payload is its marshaled
	// form.
	RecordID string
	Payload  []byte

	previous map[string]*Result
}

// NewContext creates the shared context for one export attempt.
func NewContext(sessionID, instrumentID, user string, start, end time.Time, recordID string, payload []byte) *Context {
	return &Context{
		SessionID:    sessionID,
		InstrumentID: instrumentID,
		User:         user,
		SessionStart: start,
		SessionEnd:   end,
		RecordID:     recordID,
		Payload:      payload,
		previous:     make(map[string]*Result),
	}
}

// PreviousResult returns the result of a destination that already ran in
// this attempt. Destinations use this to enrich their own output with
// cross-references; absence must be degraded gracefully, never treated as a
// failure of the caller's own operation.
func (c *Context) PreviousResult(name string) (*Result, bool) {
	r, ok := c.previous[name]
	return r, ok
}

// recordResult appends one result. Only the engine calls this, strictly
// after the destination's result has been persisted.
func (c *Context) recordResult(name string, r *Result) {
	c.previous[name] = r
}
