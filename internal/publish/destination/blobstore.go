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
	"context"
	"fmt"
	"path"

	"github.com/openinstrument/session-publisher/internal/publish"
	"github.com/openinstrument/session-publisher/internal/storage"
)

// Blobstore writes the assembled record JSON to a blob storage bucket and
// reports the object path as the record URL.
type Blobstore struct {
	config *BlobstoreConfig
	store  storage.Blobstore
}

// NewBlobstore creates the blobstore destination.
func NewBlobstore(config *BlobstoreConfig, store storage.Blobstore) *Blobstore {
	return &Blobstore{config: config, store: store}
}

var _ publish.Destination = (*Blobstore)(nil)

func (d *Blobstore) Name() string  { return "blobstore" }
func (d *Blobstore) Priority() int { return d.config.Priority }
func (d *Blobstore) Enabled() bool { return d.config.Enabled }

// ValidateConfig reports configuration errors before any export runs.
func (d *Blobstore) ValidateConfig() error {
	if d.config.Bucket == "" {
		return fmt.Errorf("missing bucket")
	}
	if d.store == nil {
		return fmt.Errorf("missing blobstore")
	}
	return nil
}

// Export writes the record payload as a single object named after the
// record ID.
func (d *Blobstore) Export(ctx context.Context, ectx *publish.Context) *publish.Result {
	name := path.Join(d.config.Prefix, ectx.SessionID, ectx.RecordID+".json")

	if err := d.store.CreateObject(ctx, d.config.Bucket, name, ectx.Payload); err != nil {
		return publish.NewFailure(d.Name(), fmt.Errorf("writing record object: %w", err))
	}

	r := publish.NewSuccess(d.Name())
	r.RecordID = ectx.RecordID
	r.RecordURL = fmt.Sprintf("blob://%s/%s", d.config.Bucket, name)
	return r
}
