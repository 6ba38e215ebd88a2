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

// Package serverenv defines the shared server environment loaded at startup.
package serverenv

import (
	"context"

	"github.com/openinstrument/session-publisher/internal/database"
	"github.com/openinstrument/session-publisher/internal/storage"
	"github.com/openinstrument/session-publisher/pkg/observability"
)

// ServerEnv represents the environment a server runs in: the shared
// connections and other dependencies constructed once in setup.
type ServerEnv struct {
	database    *database.DB
	blobstore   storage.Blobstore
	obsExporter observability.Exporter
}

// Option defines function types to modify the ServerEnv on creation.
type Option func(*ServerEnv) *ServerEnv

// New creates a new ServerEnv with the requested options.
func New(ctx context.Context, opts ...Option) *ServerEnv {
	env := &ServerEnv{}
	for _, f := range opts {
		env = f(env)
	}
	return env
}

// WithDatabase attaches a database to the environment.
func WithDatabase(db *database.DB) Option {
	return func(s *ServerEnv) *ServerEnv {
		s.database = db
		return s
	}
}

// WithBlobstore attaches a blob storage system to the environment.
func WithBlobstore(b storage.Blobstore) Option {
	return func(s *ServerEnv) *ServerEnv {
		s.blobstore = b
		return s
	}
}

// WithObservabilityExporter attaches a metrics exporter to the environment.
func WithObservabilityExporter(e observability.Exporter) Option {
	return func(s *ServerEnv) *ServerEnv {
		s.obsExporter = e
		return s
	}
}

func (s *ServerEnv) Database() *database.DB {
	return s.database
}

func (s *ServerEnv) Blobstore() storage.Blobstore {
	return s.blobstore
}

func (s *ServerEnv) ObservabilityExporter() observability.Exporter {
	return s.obsExporter
}

// Close shuts down the server env, closing the database connection and the
// observability exporter, if present.
func (s *ServerEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.database != nil {
		s.database.Close(ctx)
	}

	if s.obsExporter != nil {
		if err := s.obsExporter.Close(); err != nil {
			return err
		}
	}

	return nil
}
