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

package catalog

import "github.com/uptrace/bun"

// RunModel represents the runs table: one row per recorded extraction.
type RunModel struct {
	bun.BaseModel `bun:"table:runs"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Source      string `bun:"source,notnull"` // path of the .RPL the run was extracted from
	Tag         string `bun:"tag"`
	CreatedAt   int64  `bun:"created_at,notnull"` // Unix timestamp
	RecordCount int64  `bun:"record_count,notnull"`
}

// PathRecordModel represents the path_records table.
type PathRecordModel struct {
	bun.BaseModel `bun:"table:path_records"`

	ID        int64  `bun:"id,pk,autoincrement"`
	RunID     int64  `bun:"run_id,notnull"`
	Preset    string `bun:"preset,notnull"`
	Container string `bun:"container,notnull"`
	Note      string `bun:"note,notnull"`
	Path      string `bun:"path,notnull"`
}
