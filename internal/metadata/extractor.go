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

// Package metadata extracts per-file structured metadata. Format-specific
// binary parsers plug in behind the Extractor interface.
package metadata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Metadata is the structured description of one data file.
type Metadata struct {
	Path      string            `json:"path"`
	Size      int64             `json:"size"`
	ModTime   time.Time         `json:"mod_time"`
	Extension string            `json:"extension,omitempty"`
	SHA256    string            `json:"sha256,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Extractor produces metadata for a single file.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Metadata, error)
}

// Compile-time check to verify implements interface.
var _ Extractor = (*StatExtractor)(nil)

// StatExtractor is the format-agnostic default extractor: file stats plus a
// content digest.
type StatExtractor struct{}

// NewStatExtractor creates a StatExtractor.
func NewStatExtractor() *StatExtractor {
	return &StatExtractor{}
}

// Extract stats and hashes the file.
func (e *StatExtractor) Extract(ctx context.Context, path string) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	digest, err := hashFile(path)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}

	return &Metadata{
		Path:      path,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
		Extension: strings.ToLower(filepath.Ext(path)),
		SHA256:    digest,
	}, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
