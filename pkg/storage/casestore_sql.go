// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brandforge/brandforge/pkg/pipeline"
)

const createCasesTableSQL = `
CREATE TABLE IF NOT EXISTS cases (
    id VARCHAR(255) NOT NULL PRIMARY KEY,
    stage VARCHAR(64) NOT NULL,
    status VARCHAR(32) NOT NULL,
    case_json TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status);
CREATE INDEX IF NOT EXISTS idx_cases_updated_at ON cases(updated_at);
`

// SQLCaseStore persists cases in SQLite. The whole case is one JSON
// column written by a single upsert, which makes each save atomic.
type SQLCaseStore struct {
	db *sql.DB
}

// NewSQLCaseStore opens (or creates) the case database at path.
func NewSQLCaseStore(path string) (*SQLCaseStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open case database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to case database %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, createCasesTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLCaseStore{db: db}, nil
}

func (s *SQLCaseStore) SaveCase(ctx context.Context, c *pipeline.Case) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("case with id is required")
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize case %s: %w", c.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO cases (id, stage, status, case_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    stage = excluded.stage,
    status = excluded.status,
    case_json = excluded.case_json,
    updated_at = excluded.updated_at
`, c.ID, string(c.Stage), string(c.Status), string(data), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save case %s: %w", c.ID, err)
	}

	return nil
}

func (s *SQLCaseStore) LoadCase(ctx context.Context, caseID string) (*pipeline.Case, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT case_json FROM cases WHERE id = ?`, caseID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("case %q not found", caseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", caseID, err)
	}

	var c pipeline.Case
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("failed to deserialize case %s: %w", caseID, err)
	}
	return &c, nil
}

func (s *SQLCaseStore) ListCaseIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM cases ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLCaseStore) Close() error {
	return s.db.Close()
}

var _ CaseStore = (*SQLCaseStore)(nil)
