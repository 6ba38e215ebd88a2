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

// Package clustering groups a session's raw files into temporally coherent
// acquisition activities.
package clustering

import (
	"fmt"
	"sort"
	"time"
)

// DefaultSensitivity is the clustering granularity used when no override is
// configured. Higher values produce finer-grained activities.
const DefaultSensitivity = 1.0

// File is one candidate file located inside a session window.
type File struct {
	Path    string
	ModTime time.Time
}

// Activity is a temporally coherent sub-group of a session's files, assumed
// to represent one acquisition step. Activities partition the input file set
// and are ordered, non-overlapping by start time.
type Activity struct {
	Index     int
	StartTime time.Time
	EndTime   time.Time
	Files     []File
}

// Cluster partitions files into activities by splitting the timeline at the
// valleys of a kernel density estimate fitted over the file modification
// times. The kernel bandwidth is inversely proportional to sensitivity, so
// increasing sensitivity never decreases the number of activities for the
// same input.
//
// Zero files yield zero activities. A single file, or a timeline with no
// qualifying valley, yields one activity holding everything. Files sharing an
// identical modification time are never split across activities.
func Cluster(files []File, sensitivity float64) ([]Activity, error) {
	if sensitivity <= 0 {
		return nil, fmt.Errorf("sensitivity must be positive, got %f", sensitivity)
	}

	if len(files) == 0 {
		return nil, nil
	}

	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].ModTime.Equal(sorted[j].ModTime) {
			return sorted[i].ModTime.Before(sorted[j].ModTime)
		}
		return sorted[i].Path < sorted[j].Path
	})

	if len(sorted) == 1 {
		return buildActivities(sorted, nil), nil
	}

	times := make([]float64, len(sorted))
	for i, f := range sorted {
		times[i] = float64(f.ModTime.UnixNano()) / float64(time.Second)
	}

	splits := densityValleys(times, sensitivity)
	return buildActivities(sorted, splits), nil
}

// buildActivities partitions the time-sorted files at the given split points
// (seconds on the same axis as the file times) into contiguous groups.
func buildActivities(sorted []File, splits []float64) []Activity {
	var groups [][]File
	group := []File{sorted[0]}
	next := 0

	for _, f := range sorted[1:] {
		t := float64(f.ModTime.UnixNano()) / float64(time.Second)
		prev := float64(group[len(group)-1].ModTime.UnixNano()) / float64(time.Second)
		cut := false
		for next < len(splits) && splits[next] <= t {
			// Only cut if the valley lies strictly between this file and the
			// previous one; files sharing a timestamp stay together.
			if splits[next] > prev {
				cut = true
			}
			next++
		}
		if cut {
			groups = append(groups, group)
			group = nil
		}
		group = append(group, f)
	}
	groups = append(groups, group)

	activities := make([]Activity, 0, len(groups))
	for i, g := range groups {
		activities = append(activities, Activity{
			Index:     i,
			StartTime: g[0].ModTime,
			EndTime:   g[len(g)-1].ModTime,
			Files:     g,
		})
	}
	return activities
}
