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
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/openinstrument/session-publisher/internal/publish"
	"github.com/sethvargo/go-retry"
)

// Webhook POSTs the assembled record to a configured endpoint. Transient
// failures are retried with backoff inside Export; the engine sees only the
// final outcome.
type Webhook struct {
	config *WebhookConfig
	client *http.Client
}

// NewWebhook creates the webhook destination.
func NewWebhook(config *WebhookConfig) *Webhook {
	return &Webhook{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

var _ publish.Destination = (*Webhook)(nil)

func (d *Webhook) Name() string  { return "webhook" }
func (d *Webhook) Priority() int { return d.config.Priority }
func (d *Webhook) Enabled() bool { return d.config.Enabled }

// ValidateConfig reports configuration errors before any export runs.
func (d *Webhook) ValidateConfig() error {
	if d.config.URL == "" {
		return fmt.Errorf("missing URL")
	}
	if _, err := url.ParseRequestURI(d.config.URL); err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	return nil
}

// webhookResponse is the expected acknowledgement body.
type webhookResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Export delivers the payload, retrying server-side and transport errors.
// A 4xx response is not retried, the request will not get better.
func (d *Webhook) Export(ctx context.Context, ectx *publish.Context) *publish.Result {
	var ack webhookResponse

	b := retry.WithMaxRetries(d.config.MaxRetries, retry.NewFibonacci(500*time.Millisecond))
	if err := retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.URL, bytes.NewReader(ectx.Payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return retry.RetryableError(fmt.Errorf("reading response: %w", err))
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("endpoint returned %d", resp.StatusCode))
		default:
			return fmt.Errorf("endpoint returned %d", resp.StatusCode)
		}

		if err := json.Unmarshal(body, &ack); err != nil {
			return fmt.Errorf("parsing acknowledgement: %w", err)
		}
		return nil
	}); err != nil {
		return publish.NewFailure(d.Name(), err)
	}

	r := publish.NewSuccess(d.Name())
	r.RecordID = ack.ID
	r.RecordURL = ack.URL
	return r
}
