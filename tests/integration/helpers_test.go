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

// Package integration exercises the whole extract -> diff -> apply pipeline
// against .RPL fixture files on disk, the way the CLI drives it.
package integration

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"readrum/internal/extract"
	"readrum/internal/rpl"
)

// zone is one sampling slot in a fixture kit: a pitch label and the sample
// path stored after it in the slot's payload.
type zone struct {
	label string
	path  string
}

// kit is one preset in a fixture library.
type kit struct {
	name  string
	zones []zone
}

// buildLibrary assembles a syntactically faithful .RPL preset library: each
// kit becomes a PRESET block whose outer base64 blob wraps one inner base64
// token per zone, with the zone label and path NUL-delimited inside the
// inner payload.
func buildLibrary(kits ...kit) []byte {
	var sb strings.Builder
	sb.WriteString("<REAPER_PRESET_LIBRARY \"ReaDrum Machine\"\n")
	for _, k := range kits {
		sb.WriteString("  <PRESET `")
		sb.WriteString(k.name)
		sb.WriteString("`\n")

		var outer bytes.Buffer
		outer.WriteString("RDM1\x00")
		for _, z := range k.zones {
			inner := z.label + "\x00" + z.path + "\x00"
			outer.WriteString(rpl.Encode([]byte(inner)))
			outer.WriteString("\x00")
		}

		enc := rpl.Encode(outer.Bytes())
		for i := 0; i < len(enc); i += 76 {
			j := min(i+76, len(enc))
			sb.WriteString("    ")
			sb.WriteString(enc[i:j])
			sb.WriteString("\n")
		}
		sb.WriteString("  >\n")
	}
	sb.WriteString(">\n")
	return []byte(sb.String())
}

// writeLibrary drops a fixture library into a fresh temp dir and returns its
// path.
func writeLibrary(t *testing.T, kits ...kit) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kits.RPL")
	if err := os.WriteFile(path, buildLibrary(kits...), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

// parseFile reads and parses a library file the way the CLI does.
func parseFile(t *testing.T, path string) *rpl.Container {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	c, err := rpl.Parse(data)
	if err != nil {
		t.Fatalf("failed to parse %s: %v", path, err)
	}
	return c
}

// extractFile runs a full walk over a library file and returns the located
// records.
func extractFile(t *testing.T, path string) []extract.Located {
	t.Helper()
	return extract.Walk(parseFile(t, path), extract.Options{})
}

// pathsByPreset collapses located records to a preset -> paths map for
// order-insensitive assertions.
func pathsByPreset(located []extract.Located) map[string][]string {
	out := make(map[string][]string)
	for _, l := range located {
		out[l.Record.Preset] = append(out[l.Record.Preset], l.Record.Path)
	}
	return out
}
