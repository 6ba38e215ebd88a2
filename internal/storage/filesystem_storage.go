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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Compile-time check to verify implements interface.
var _ Blobstore = (*FilesystemStorage)(nil)

// FilesystemStorage implements Blobstore and writes objects to the local
// filesystem, with the parent as directory and the object name as file path
// inside it.
type FilesystemStorage struct{}

// NewFilesystemStorage creates a Blobstore backed by the local filesystem.
func NewFilesystemStorage(_ context.Context) (Blobstore, error) {
	return &FilesystemStorage{}, nil
}

// CreateObject creates a new object on the filesystem or overwrites an
// existing one.
func (s *FilesystemStorage) CreateObject(_ context.Context, parent, name string, contents []byte) error {
	pth := filepath.Join(parent, name)
	if err := os.MkdirAll(filepath.Dir(pth), 0o755); err != nil {
		return fmt.Errorf("storage.CreateObject: %w", err)
	}
	if err := os.WriteFile(pth, contents, 0o644); err != nil {
		return fmt.Errorf("storage.CreateObject: %w", err)
	}
	return nil
}

// GetObject returns the contents of the object. If the object does not exist,
// it returns ErrNotFound.
func (s *FilesystemStorage) GetObject(_ context.Context, parent, name string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(parent, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage.GetObject: %w", err)
	}
	return b, nil
}

// DeleteObject deletes an object, returns nil if the object was successfully
// deleted or if the object doesn't exist.
func (s *FilesystemStorage) DeleteObject(_ context.Context, parent, name string) error {
	if err := os.Remove(filepath.Join(parent, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("storage.DeleteObject: %w", err)
	}
	return nil
}
