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

package build

import (
	"fmt"
	"time"

	"github.com/openinstrument/session-publisher/internal/database"
	"github.com/openinstrument/session-publisher/internal/publish"
	"github.com/openinstrument/session-publisher/internal/publish/destination"
	"github.com/openinstrument/session-publisher/internal/setup"
	"github.com/openinstrument/session-publisher/internal/storage"
	"github.com/openinstrument/session-publisher/pkg/observability"
)

// Compile-time check to assert this config matches requirements.
var _ setup.DatabaseConfigProvider = (*Config)(nil)
var _ setup.BlobstoreConfigProvider = (*Config)(nil)
var _ setup.ObservabilityExporterConfigProvider = (*Config)(nil)

// Config represents the configuration of the build worker server.
type Config struct {
	Database      database.Config
	Storage       storage.Config
	Observability observability.Config
	Destinations  destination.Config

	Port string `env:"PORT, default=8080"`

	// WorkerTimeout bounds one full worker run across all ready sessions.
	WorkerTimeout time.Duration `env:"WORKER_TIMEOUT, default=10m"`

	// LockTTL is the advisory lock lifetime; a crashed worker's lock
	// expires after this long.
	LockTTL time.Duration `env:"WORKER_LOCK_TTL, default=15m"`

	// ClusteringSensitivity scales the density bandwidth used to split a
	// session's files into activities. Must be positive.
	ClusteringSensitivity float64 `env:"CLUSTERING_SENSITIVITY, default=1.0"`

	// ExportStrategy selects the destination rollup policy.
	ExportStrategy string `env:"EXPORT_STRATEGY, default=ALL"`

	// FileRetryWindow is how long after its end time a session with no
	// files found is retried before the state is considered final for
	// operator attention.
	FileRetryWindow time.Duration `env:"FILE_RETRY_WINDOW, default=72h"`

	// InstrumentDataRoot is the directory scanned for instrument files,
	// one subdirectory per instrument.
	InstrumentDataRoot string `env:"INSTRUMENT_DATA_ROOT, default=/data/instruments"`
}

func (c *Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c *Config) BlobstoreConfig() *storage.Config {
	return &c.Storage
}

func (c *Config) ObservabilityExporterConfig() *observability.Config {
	return &c.Observability
}

// Validate checks derived settings after environment processing.
func (c *Config) Validate() error {
	if c.ClusteringSensitivity <= 0 {
		return fmt.Errorf("CLUSTERING_SENSITIVITY must be positive, got %f", c.ClusteringSensitivity)
	}
	if _, err := publish.ParseStrategy(c.ExportStrategy); err != nil {
		return fmt.Errorf("EXPORT_STRATEGY: %w", err)
	}
	if c.FileRetryWindow <= 0 {
		return fmt.Errorf("FILE_RETRY_WINDOW must be positive, got %s", c.FileRetryWindow)
	}
	return nil
}
