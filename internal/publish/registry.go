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
	"fmt"
	"sort"
)

// Registry holds the enumerated set of destinations. It is constructed once
// at process start and passed by reference to the orchestrator; there is no
// runtime discovery.
type Registry struct {
	destinations []Destination
}

// NewRegistry builds a registry from the explicit destination list. Names
// must be unique and priorities must be within [MinPriority, MaxPriority].
// Each enabled destination's configuration is validated up front so a broken
// destination fails the process at startup instead of mid-export.
func NewRegistry(destinations ...Destination) (*Registry, error) {
	seen := make(map[string]struct{}, len(destinations))
	for _, d := range destinations {
		name := d.Name()
		if name == "" {
			return nil, fmt.Errorf("destination with empty name")
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("duplicate destination name %q", name)
		}
		seen[name] = struct{}{}

		if p := d.Priority(); p < MinPriority || p > MaxPriority {
			return nil, fmt.Errorf("destination %q priority %d outside [%d, %d]", name, p, MinPriority, MaxPriority)
		}

		if d.Enabled() {
			if err := d.ValidateConfig(); err != nil {
				return nil, fmt.Errorf("destination %q config: %w", name, err)
			}
		}
	}

	r := &Registry{
		destinations: make([]Destination, len(destinations)),
	}
	copy(r.destinations, destinations)
	return r, nil
}

// EnabledByPriority returns the enabled destinations sorted by priority
// descending, ties broken by name ascending. The ordering is deterministic
// across runs.
func (r *Registry) EnabledByPriority() []Destination {
	var enabled []Destination
	for _, d := range r.destinations {
		if d.Enabled() {
			enabled = append(enabled, d)
		}
	}

	sort.SliceStable(enabled, func(i, j int) bool {
		if enabled[i].Priority() != enabled[j].Priority() {
			return enabled[i].Priority() > enabled[j].Priority()
		}
		return enabled[i].Name() < enabled[j].Name()
	})
	return enabled
}
