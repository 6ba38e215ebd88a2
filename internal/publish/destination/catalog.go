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

package destination

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/openinstrument/session-publisher/internal/publish"
)

// Catalog registers the session in an external catalog. When the configured
// cross-reference destination already succeeded in the same attempt, its
// record URL is embedded in the catalog entry; when it is absent or failed
// the entry is posted without it. A missing cross-reference never fails the
// catalog's own export.
type Catalog struct {
	config *CatalogConfig
	client *http.Client
}

// NewCatalog creates the catalog destination.
func NewCatalog(config *CatalogConfig) *Catalog {
	return &Catalog{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

var _ publish.Destination = (*Catalog)(nil)

func (d *Catalog) Name() string  { return "catalog" }
func (d *Catalog) Priority() int { return d.config.Priority }
func (d *Catalog) Enabled() bool { return d.config.Enabled }

// ValidateConfig reports configuration errors before any export runs.
func (d *Catalog) ValidateConfig() error {
	if d.config.URL == "" {
		return fmt.Errorf("missing URL")
	}
	if _, err := url.ParseRequestURI(d.config.URL); err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	return nil
}

// catalogEntry is the body posted to the catalog endpoint.
type catalogEntry struct {
	SessionID    string    `json:"session_id"`
	InstrumentID string    `json:"instrument_id"`
	User         string    `json:"user"`
	SessionStart time.Time `json:"session_start"`
	SessionEnd   time.Time `json:"session_end"`
	RecordID     string    `json:"record_id"`
	RecordURL    string    `json:"record_url,omitempty"`
}

// Export posts a catalog entry for the session.
func (d *Catalog) Export(ctx context.Context, ectx *publish.Context) *publish.Result {
	entry := catalogEntry{
		SessionID:    ectx.SessionID,
		InstrumentID: ectx.InstrumentID,
		User:         ectx.User,
		SessionStart: ectx.SessionStart,
		SessionEnd:   ectx.SessionEnd,
		RecordID:     ectx.RecordID,
	}

	if prev, ok := ectx.PreviousResult(d.config.CrossReference); ok && prev.Success {
		entry.RecordURL = prev.RecordURL
	}

	body, err := json.Marshal(&entry)
	if err != nil {
		return publish.NewFailure(d.Name(), fmt.Errorf("marshal entry: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.URL, bytes.NewReader(body))
	if err != nil {
		return publish.NewFailure(d.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return publish.NewFailure(d.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return publish.NewFailure(d.Name(), fmt.Errorf("catalog returned %d", resp.StatusCode))
	}

	r := publish.NewSuccess(d.Name())
	r.RecordID = ectx.RecordID
	if entry.RecordURL == "" {
		r.Error = "no cross-reference available"
	}
	return r
}
