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

// This package is the session build worker: it ingests session start/end
// notifications and, when triggered over HTTP by a scheduler, builds and
// publishes the records of the sessions that are due.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/openinstrument/session-publisher/internal/assembly"
	"github.com/openinstrument/session-publisher/internal/build"
	"github.com/openinstrument/session-publisher/internal/files"
	"github.com/openinstrument/session-publisher/internal/metadata"
	"github.com/openinstrument/session-publisher/internal/publish"
	uploaddb "github.com/openinstrument/session-publisher/internal/publish/database"
	"github.com/openinstrument/session-publisher/internal/publish/destination"
	sessiondb "github.com/openinstrument/session-publisher/internal/session/database"
	"github.com/openinstrument/session-publisher/internal/setup"
	"github.com/openinstrument/session-publisher/pkg/logging"
	"github.com/openinstrument/session-publisher/pkg/server"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	logger := logging.NewLoggerFromEnv().Named("build-worker")
	ctx = logging.WithLogger(ctx, logger)

	defer func() {
		done()
		if r := recover(); r != nil {
			logger.Fatalw("application panic", "panic", r)
		}
	}()

	err := realMain(ctx)
	done()

	if err != nil {
		logger.Fatal(err)
	}
	logger.Info("successful shutdown")
}

func realMain(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	var config build.Config
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer env.Close(context.Background())

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Destinations are enumerated here, explicitly. Adding a destination
	// means constructing it and appending it to this list.
	registry, err := publish.NewRegistry(
		destination.NewBlobstore(&config.Destinations.Blobstore, env.Blobstore()),
		destination.NewWebhook(&config.Destinations.Webhook),
		destination.NewCatalog(&config.Destinations.Catalog),
	)
	if err != nil {
		return fmt.Errorf("building destination registry: %w", err)
	}

	strategy, err := publish.ParseStrategy(config.ExportStrategy)
	if err != nil {
		return err
	}

	engine, err := publish.NewEngine(registry, strategy, uploaddb.New(env.Database()))
	if err != nil {
		return fmt.Errorf("building export engine: %w", err)
	}

	locator, err := files.NewFilesystemLocator(config.InstrumentDataRoot)
	if err != nil {
		return fmt.Errorf("opening instrument data root: %w", err)
	}

	orchestrator, err := build.NewOrchestrator(
		sessiondb.New(env.Database()),
		locator,
		metadata.NewStatExtractor(),
		assembly.NewJSONAssembler(),
		engine,
		build.AllowAll{},
		config.ClusteringSensitivity,
		config.FileRetryWindow,
	)
	if err != nil {
		return fmt.Errorf("building orchestrator: %w", err)
	}

	buildServer, err := build.NewServer(&config, env, orchestrator)
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	srv := server.New(config.Port, buildServer.Routes(ctx))
	logger.Infow("listening", "port", config.Port)
	return srv.ServeUntil(ctx)
}
