// Copyright 2025 readrum Authors
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

// Package catalog records extraction runs in a SQLite file so a later diff
// has a durable baseline to compare against.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	_ "github.com/tursodatabase/go-libsql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"readrum/internal/common"
	"readrum/internal/extract"
	"readrum/internal/util"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	tag TEXT,
	created_at INTEGER NOT NULL,
	record_count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS path_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES runs(id),
	preset TEXT NOT NULL,
	container TEXT NOT NULL,
	note TEXT NOT NULL,
	path TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_path_records_run ON path_records(run_id);
`

// Catalog is a SQLite-backed store of extraction runs.
type Catalog struct {
	path string
	db   *sql.DB
	bun  *bun.DB
}

// execPragma runs a PRAGMA via Query because libsql returns rows for PRAGMA
// statements; the rows are drained and closed.
func execPragma(db *sql.DB, pragma string) error {
	rows, err := db.Query(pragma)
	if err != nil {
		return err
	}
	return rows.Close()
}

// Open opens (creating if needed) a catalog file. PRAGMAs must be applied
// as explicit statements after connecting; libsql ignores DSN-based
// _pragma=value parameters. Busy timeout goes first so journal_mode=WAL
// waits for locks instead of failing immediately.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if err := execPragma(db, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	// Execute schema statements individually for libsql compatibility.
	for _, stmt := range splitStatements(schema) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create catalog schema: %w", err)
		}
	}
	return &Catalog{
		path: path,
		db:   db,
		bun:  bun.NewDB(db, sqlitedialect.New()),
	}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// SaveRun records one extraction as a new run and returns its ID. The
// insert is retried on transient lock errors, the way concurrent CLI
// invocations can race on a shared catalog file.
func (c *Catalog) SaveRun(ctx context.Context, source, tag string, recs []extract.PathRecord) (int64, error) {
	return util.RetryWithResult(ctx, func() (int64, error) {
		return c.saveRun(ctx, source, tag, recs)
	}, util.CatalogRetryOptions(ctx)...)
}

func (c *Catalog) saveRun(ctx context.Context, source, tag string, recs []extract.PathRecord) (int64, error) {
	tx, err := c.bun.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	run := &RunModel{
		Source:      source,
		Tag:         tag,
		CreatedAt:   time.Now().Unix(),
		RecordCount: int64(len(recs)),
	}
	// RETURNING instead of LastInsertId; libsql does not support the latter.
	if _, err := tx.NewInsert().Model(run).Returning("id").Exec(ctx); err != nil {
		return 0, err
	}

	if len(recs) > 0 {
		models := make([]PathRecordModel, 0, len(recs))
		for _, r := range recs {
			models = append(models, PathRecordModel{
				RunID:     run.ID,
				Preset:    r.Preset,
				Container: r.Container,
				Note:      r.Note,
				Path:      r.Path,
			})
		}
		if _, err := tx.NewInsert().Model(&models).Exec(ctx); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	log.Debugf("catalog: saved run %d (%d records) from %s", run.ID, len(recs), source)
	return run.ID, nil
}

// ListRuns returns all recorded runs, newest first.
func (c *Catalog) ListRuns(ctx context.Context) ([]RunModel, error) {
	var runs []RunModel
	err := c.bun.NewSelect().
		Model(&runs).
		Order("id DESC").
		Scan(ctx)
	return runs, err
}

// FindRun resolves a run reference: a numeric ID or a tag. Tags resolve to
// the newest run carrying them.
func (c *Catalog) FindRun(ctx context.Context, ref string) (*RunModel, error) {
	var run RunModel
	q := c.bun.NewSelect().Model(&run)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("tag = ?", ref).Order("id DESC").Limit(1)
	}
	if err := q.Scan(ctx); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", common.ErrRunNotFound, ref)
		}
		return nil, err
	}
	return &run, nil
}

// LoadRun returns a run's records in insertion order.
func (c *Catalog) LoadRun(ctx context.Context, runID int64) ([]extract.PathRecord, error) {
	var models []PathRecordModel
	err := c.bun.NewSelect().
		Model(&models).
		Where("run_id = ?", runID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	recs := make([]extract.PathRecord, 0, len(models))
	for _, m := range models {
		recs = append(recs, extract.PathRecord{
			Preset:    m.Preset,
			Container: m.Container,
			Note:      m.Note,
			Path:      m.Path,
		})
	}
	return recs, nil
}

func splitStatements(s string) []string {
	var stmts []string
	for _, part := range strings.Split(s, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
