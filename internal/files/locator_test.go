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

package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openinstrument/session-publisher/internal/project"
)

func writeFileAt(t *testing.T, path string, mtime time.Time) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestFilesystemLocatorFindFiles(t *testing.T) {
	t.Parallel()

	ctx := project.TestContext(t)
	root := t.TempDir()

	base := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	writeFileAt(t, filepath.Join(root, "nmr-400", "scan1.dat"), base.Add(5*time.Minute))
	writeFileAt(t, filepath.Join(root, "nmr-400", "sub", "scan2.dat"), base.Add(10*time.Minute))
	writeFileAt(t, filepath.Join(root, "nmr-400", "old.dat"), base.Add(-2*time.Hour))
	writeFileAt(t, filepath.Join(root, "other-instrument", "noise.dat"), base.Add(5*time.Minute))

	locator, err := NewFilesystemLocator(root)
	if err != nil {
		t.Fatal(err)
	}

	found, err := locator.FindFiles(ctx, "nmr-400", base, base.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	if len(found) != 2 {
		t.Fatalf("expected 2 files, got %d: %+v", len(found), found)
	}
	if filepath.Base(found[0].Path) != "scan1.dat" {
		t.Errorf("expected scan1.dat first, got %s", found[0].Path)
	}
	if !found[0].ModTime.Before(found[1].ModTime) {
		t.Errorf("files not sorted by mtime")
	}
}

func TestFilesystemLocatorMissingInstrument(t *testing.T) {
	t.Parallel()

	ctx := project.TestContext(t)
	locator, err := NewFilesystemLocator(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	found, err := locator.FindFiles(ctx, "never-seen", time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected no files, got %d", len(found))
	}
}

func TestNewFilesystemLocatorBadRoot(t *testing.T) {
	t.Parallel()

	if _, err := NewFilesystemLocator(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}
