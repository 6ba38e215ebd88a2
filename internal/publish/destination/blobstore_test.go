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

package destination

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/openinstrument/session-publisher/internal/project"
	"github.com/openinstrument/session-publisher/internal/publish"
	"github.com/openinstrument/session-publisher/internal/storage"
)

func testContext() *publish.Context {
	start := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	return publish.NewContext("session-1", "nmr-400", "ada",
		start, start.Add(time.Hour), "rec-1", []byte(`{"session_id":"session-1"}`))
}

func TestBlobstoreExport(t *testing.T) {
	t.Parallel()
	ctx := project.TestContext(t)

	store, err := storage.NewMemory(ctx)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	d := NewBlobstore(&BlobstoreConfig{
		Enabled:  true,
		Priority: 500,
		Bucket:   "records",
		Prefix:   "v1",
	}, store)
	if err := d.ValidateConfig(); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}

	ectx := testContext()
	result := d.Export(ctx, ectx)
	if !result.Success {
		t.Fatalf("Export failed: %s", result.Error)
	}
	if got, want := result.RecordURL, "blob://records/v1/session-1/rec-1.json"; got != want {
		t.Errorf("RecordURL = %q, want %q", got, want)
	}

	stored, err := store.GetObject(ctx, "records", "v1/session-1/rec-1.json")
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if diff := cmp.Diff(ectx.Payload, stored); diff != "" {
		t.Errorf("stored payload mismatch (-want, +got):\n%s", diff)
	}
}

func TestBlobstoreValidateConfig(t *testing.T) {
	t.Parallel()
	ctx := project.TestContext(t)

	store, err := storage.NewMemory(ctx)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}

	d := NewBlobstore(&BlobstoreConfig{Enabled: true}, store)
	if err := d.ValidateConfig(); err == nil {
		t.Errorf("ValidateConfig accepted missing bucket")
	}

	d = NewBlobstore(&BlobstoreConfig{Enabled: true, Bucket: "records"}, nil)
	if err := d.ValidateConfig(); err == nil {
		t.Errorf("ValidateConfig accepted nil blobstore")
	}
}
