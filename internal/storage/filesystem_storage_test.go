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

package storage

import (
	"bytes"
	"errors"
	"testing"

	"github.com/openinstrument/session-publisher/internal/project"
)

func TestFilesystemStorageLifecycle(t *testing.T) {
	t.Parallel()

	ctx := project.TestContext(t)
	dir := t.TempDir()

	bs, err := NewFilesystemStorage(ctx)
	if err != nil {
		t.Fatal(err)
	}

	contents := []byte(`{"id":"rec-1"}`)
	if err := bs.CreateObject(ctx, dir, "records/rec-1.json", contents); err != nil {
		t.Fatalf("CreateObject: %v", err)
	}

	got, err := bs.GetObject(ctx, dir, "records/rec-1.json")
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if !bytes.Equal(got, contents) {
		t.Errorf("GetObject = %q, want %q", got, contents)
	}

	if err := bs.DeleteObject(ctx, dir, "records/rec-1.json"); err != nil {
		t.Fatalf("DeleteObject: %v", err)
	}
	if _, err := bs.GetObject(ctx, dir, "records/rec-1.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Deleting again is not an error.
	if err := bs.DeleteObject(ctx, dir, "records/rec-1.json"); err != nil {
		t.Errorf("DeleteObject on missing object: %v", err)
	}
}

func TestMemoryLifecycle(t *testing.T) {
	t.Parallel()

	ctx := project.TestContext(t)

	bs, err := NewMemory(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := bs.CreateObject(ctx, "bucket", "obj", []byte("v")); err != nil {
		t.Fatal(err)
	}
	got, err := bs.GetObject(ctx, "bucket", "obj")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v" {
		t.Errorf("GetObject = %q, want %q", got, "v")
	}

	if err := bs.DeleteObject(ctx, "bucket", "obj"); err != nil {
		t.Fatal(err)
	}
	if _, err := bs.GetObject(ctx, "bucket", "obj"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
