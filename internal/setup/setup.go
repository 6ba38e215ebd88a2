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

// Package setup provides common logic for configuring the server
// environment from process configuration.
package setup

import (
	"context"
	"fmt"

	"github.com/openinstrument/session-publisher/internal/database"
	"github.com/openinstrument/session-publisher/internal/serverenv"
	"github.com/openinstrument/session-publisher/internal/storage"
	"github.com/openinstrument/session-publisher/pkg/logging"
	"github.com/openinstrument/session-publisher/pkg/observability"
	"github.com/sethvargo/go-envconfig"
)

// DatabaseConfigProvider ensures a type can provide a database config.
type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

// BlobstoreConfigProvider provides the blob storage configuration.
type BlobstoreConfigProvider interface {
	BlobstoreConfig() *storage.Config
}

// ObservabilityExporterConfigProvider provides the observability exporter
// configuration.
type ObservabilityExporterConfigProvider interface {
	ObservabilityExporterConfig() *observability.Config
}

// Setup processes the given configuration from the environment and builds
// the server environment from the providers the configuration implements.
func Setup(ctx context.Context, config interface{}) (*serverenv.ServerEnv, error) {
	logger := logging.FromContext(ctx).Named("setup.Setup")

	if err := envconfig.Process(ctx, config); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	var serverEnvOpts []serverenv.Option

	if provider, ok := config.(ObservabilityExporterConfigProvider); ok {
		logger.Debug("configuring observability exporter")
		oeConfig := provider.ObservabilityExporterConfig()
		oe, err := observability.NewFromEnv(oeConfig)
		if err != nil {
			return nil, fmt.Errorf("unable to create observability provider: %w", err)
		}
		if err := oe.StartExporter(); err != nil {
			return nil, fmt.Errorf("error initializing observability exporter: %w", err)
		}
		serverEnvOpts = append(serverEnvOpts, serverenv.WithObservabilityExporter(oe))
		logger.Debugw("observability exporter", "config", oeConfig)
	}

	if provider, ok := config.(DatabaseConfigProvider); ok {
		logger.Debug("configuring database")
		dbConfig := provider.DatabaseConfig()
		db, err := database.NewFromEnv(ctx, dbConfig)
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		serverEnvOpts = append(serverEnvOpts, serverenv.WithDatabase(db))
		logger.Debugw("database", "config", dbConfig)
	}

	if provider, ok := config.(BlobstoreConfigProvider); ok {
		logger.Debug("configuring blobstore")
		bsConfig := provider.BlobstoreConfig()
		blobstore, err := storage.BlobstoreFor(ctx, bsConfig)
		if err != nil {
			return nil, fmt.Errorf("unable to create storage: %w", err)
		}
		serverEnvOpts = append(serverEnvOpts, serverenv.WithBlobstore(blobstore))
		logger.Debugw("blobstore", "config", bsConfig)
	}

	return serverenv.New(ctx, serverEnvOpts...), nil
}
