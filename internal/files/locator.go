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

// Package files locates candidate data files for a session window.
package files

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/openinstrument/session-publisher/internal/clustering"
)

// Locator finds candidate files written by an instrument inside a time
// window. Implementations may return an empty slice.
type Locator interface {
	FindFiles(ctx context.Context, instrumentID string, from, to time.Time) ([]clustering.File, error)
}

// Compile-time check to verify implements interface.
var _ Locator = (*FilesystemLocator)(nil)

// FilesystemLocator walks a shared data root laid out as
// <root>/<instrumentID>/..., returning the regular files whose modification
// time falls inside the window.
type FilesystemLocator struct {
	root string
}

// NewFilesystemLocator creates a locator over the given data root.
func NewFilesystemLocator(root string) (*FilesystemLocator, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat data root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data root %q is not a directory", root)
	}
	return &FilesystemLocator{root: root}, nil
}

// FindFiles walks the instrument's directory. A missing directory is not an
// error: an instrument that has written nothing simply has no files.
func (l *FilesystemLocator) FindFiles(ctx context.Context, instrumentID string, from, to time.Time) ([]clustering.File, error) {
	dir := filepath.Join(l.root, instrumentID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var found []clustering.File
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		mtime := info.ModTime()
		if mtime.Before(from) || mtime.After(to) {
			return nil
		}

		found = append(found, clustering.File{Path: path, ModTime: mtime})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].ModTime.Equal(found[j].ModTime) {
			return found[i].ModTime.Before(found[j].ModTime)
		}
		return found[i].Path < found[j].Path
	})
	return found, nil
}
