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

// Package destination provides the built-in export destinations. New
// destinations are added here and enumerated explicitly in the server's
// main; there is no runtime plugin discovery.
package destination

import "time"

// BlobstoreConfig configures the blobstore destination.
type BlobstoreConfig struct {
	Enabled  bool   `env:"DEST_BLOBSTORE_ENABLED, default=false"`
	Priority int    `env:"DEST_BLOBSTORE_PRIORITY, default=500"`
	Bucket   string `env:"DEST_BLOBSTORE_BUCKET"`
	Prefix   string `env:"DEST_BLOBSTORE_PREFIX, default=records"`
}

// WebhookConfig configures the webhook destination.
type WebhookConfig struct {
	Enabled  bool          `env:"DEST_WEBHOOK_ENABLED, default=false"`
	Priority int           `env:"DEST_WEBHOOK_PRIORITY, default=300"`
	URL      string        `env:"DEST_WEBHOOK_URL"`
	Timeout  time.Duration `env:"DEST_WEBHOOK_TIMEOUT, default=30s"`
	// MaxRetries bounds the destination's own retry loop. Retrying is the
	// destination's business; the engine never re-invokes it.
	MaxRetries uint64 `env:"DEST_WEBHOOK_MAX_RETRIES, default=3"`
}

// CatalogConfig configures the catalog destination.
type CatalogConfig struct {
	Enabled  bool          `env:"DEST_CATALOG_ENABLED, default=false"`
	Priority int           `env:"DEST_CATALOG_PRIORITY, default=100"`
	URL      string        `env:"DEST_CATALOG_URL"`
	Timeout  time.Duration `env:"DEST_CATALOG_TIMEOUT, default=30s"`
	// CrossReference names the destination whose RecordURL is embedded in
	// catalog entries when it ran earlier in the same attempt.
	CrossReference string `env:"DEST_CATALOG_CROSS_REFERENCE, default=blobstore"`
}

// Config aggregates every built-in destination's configuration.
type Config struct {
	Blobstore BlobstoreConfig
	Webhook   WebhookConfig
	Catalog   CatalogConfig
}
