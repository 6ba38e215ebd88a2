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
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/openinstrument/session-publisher/internal/serverenv"
	"github.com/openinstrument/session-publisher/pkg/server"
)

// Server hosts the worker trigger and the session intake endpoints.
type Server struct {
	config       *Config
	env          *serverenv.ServerEnv
	orchestrator *Orchestrator
}

// NewServer makes a Server from the provided env and orchestrator.
func NewServer(config *Config, env *serverenv.ServerEnv, orchestrator *Orchestrator) (*Server, error) {
	if env.Database() == nil {
		return nil, fmt.Errorf("missing database in server environment")
	}
	if orchestrator == nil {
		return nil, fmt.Errorf("missing orchestrator")
	}

	return &Server{
		config:       config,
		env:          env,
		orchestrator: orchestrator,
	}, nil
}

// Routes defines and returns the routes for this server.
func (s *Server) Routes(ctx context.Context) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/health", server.HandleHealthz(s.env.Database())).Methods(http.MethodGet)
	r.Handle("/work", s.handleWork()).Methods(http.MethodPost)
	r.Handle("/sessions/start", s.handleSessionStart()).Methods(http.MethodPost)
	r.Handle("/sessions/end", s.handleSessionEnd()).Methods(http.MethodPost)

	return r
}
