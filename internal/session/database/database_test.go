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

package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	coredb "github.com/openinstrument/session-publisher/internal/database"
	"github.com/sethvargo/go-envconfig"
)

var testDB *coredb.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	if os.Getenv("DB_USER") != "" {
		var err error
		testDB, err = createTestDB(ctx)
		if err != nil {
			log.Fatalf("creating test DB: %v", err)
		}
	}
	os.Exit(m.Run())
}

// createTestDB connects to the Postgres server specified by the DB_XXX
// environment variables, recreates an empty test database on it, applies the
// reference schema, and returns a *coredb.DB connected to that database.
func createTestDB(ctx context.Context) (*coredb.DB, error) {
	const testDBName = "session_publisher_test"

	var config coredb.Config
	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, err
	}

	// Connect to the default database to recreate the test database.
	config.Name = "postgres"
	admin, err := coredb.NewFromEnv(ctx, &config)
	if err != nil {
		return nil, err
	}
	if _, err := admin.Pool.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", testDBName)); err != nil {
		admin.Close(ctx)
		return nil, fmt.Errorf("dropping test database: %w", err)
	}
	if _, err := admin.Pool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", testDBName)); err != nil {
		admin.Close(ctx)
		return nil, fmt.Errorf("creating test database: %w", err)
	}
	admin.Close(ctx)

	config.Name = testDBName
	db, err := coredb.NewFromEnv(ctx, &config)
	if err != nil {
		return nil, err
	}

	schema, err := os.ReadFile("../../../docs/schema.sql")
	if err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	if _, err := db.Pool.Exec(ctx, string(schema)); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return db, nil
}
