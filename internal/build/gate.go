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
	"context"
	"errors"

	"github.com/openinstrument/session-publisher/internal/session/model"
)

var (
	// ErrNoConsent is returned by a gate when the user has not consented
	// to publication.
	ErrNoConsent = errors.New("no user consent")

	// ErrNoReservation is returned by a gate when no reservation covers
	// the session.
	ErrNoReservation = errors.New("no matching reservation")
)

// Gate checks the publication preconditions for a session when it ends.
// Implementations consult external systems (consent registry, booking
// calendar) and return ErrNoConsent or ErrNoReservation to park the session
// in the corresponding terminal state.
type Gate interface {
	Check(ctx context.Context, session *model.Session) error
}

// AllowAll is a gate that admits every session.
type AllowAll struct{}

func (AllowAll) Check(_ context.Context, _ *model.Session) error { return nil }
