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

// Package csvio reads and writes the two CSV shapes the tool exchanges:
// extraction rows (preset,container,note,path) and replacement rows
// (preset,container,old_path,new_path). Columns are matched by header name,
// not position.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"

	"readrum/internal/common"
	"readrum/internal/extract"
)

// Replacement is one explicit-mode CSV row. An empty Preset means "match
// any preset".
type Replacement struct {
	Preset    string
	Container string
	OldPath   string
	NewPath   string
}

// WriteRecords writes extraction rows with a header.
func WriteRecords(w io.Writer, recs []extract.PathRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"preset", "container", "note", "path"}); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write([]string{r.Preset, r.Container, r.Note, r.Path}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRecords reads extraction rows. The header row is required; column
// order is free.
func ReadRecords(r io.Reader) ([]extract.PathRecord, error) {
	rows, idx, err := readWithHeader(r, []string{"preset", "container", "note", "path"})
	if err != nil {
		return nil, err
	}
	recs := make([]extract.PathRecord, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, extract.PathRecord{
			Preset:    field(row, idx, "preset"),
			Container: field(row, idx, "container"),
			Note:      field(row, idx, "note"),
			Path:      field(row, idx, "path"),
		})
	}
	return recs, nil
}

// WriteReplacements writes explicit-mode rows with a header.
func WriteReplacements(w io.Writer, reps []Replacement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"preset", "container", "old_path", "new_path"}); err != nil {
		return err
	}
	for _, rep := range reps {
		if err := cw.Write([]string{rep.Preset, rep.Container, rep.OldPath, rep.NewPath}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadReplacements reads explicit-mode rows.
func ReadReplacements(r io.Reader) ([]Replacement, error) {
	rows, idx, err := readWithHeader(r, []string{"old_path", "new_path"})
	if err != nil {
		return nil, err
	}
	reps := make([]Replacement, 0, len(rows))
	for _, row := range rows {
		reps = append(reps, Replacement{
			Preset:    field(row, idx, "preset"),
			Container: field(row, idx, "container"),
			OldPath:   field(row, idx, "old_path"),
			NewPath:   field(row, idx, "new_path"),
		})
	}
	return reps, nil
}

// readWithHeader reads all rows and maps column names to indexes, failing
// when a required column is missing.
func readWithHeader(r io.Reader, required []string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: empty input", common.ErrBadHeader)
	}
	if err != nil {
		return nil, nil, err
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, nil, fmt.Errorf("%w: missing column %q", common.ErrBadHeader, name)
		}
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, row)
	}
	return rows, idx, nil
}

func field(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
