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

package plan

import (
	log "github.com/sirupsen/logrus"
	ignore "github.com/sabhiram/go-gitignore"
)

// ProtectedPaths marks sample locations that must never be rewritten, e.g.
// factory content shipped with the plugin. Patterns use gitignore syntax and
// are matched against the edit's old path.
type ProtectedPaths struct {
	matcher *ignore.GitIgnore
}

// LoadProtectedPaths compiles a gitignore-style pattern file.
func LoadProtectedPaths(path string) (*ProtectedPaths, error) {
	m, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, err
	}
	return &ProtectedPaths{matcher: m}, nil
}

// NewProtectedPaths compiles patterns given directly.
func NewProtectedPaths(patterns ...string) *ProtectedPaths {
	return &ProtectedPaths{matcher: ignore.CompileIgnoreLines(patterns...)}
}

// Match reports whether a path is protected.
func (p *ProtectedPaths) Match(path string) bool {
	if p == nil || p.matcher == nil {
		return false
	}
	return p.matcher.MatchesPath(path)
}

// ApplyProtection moves edits whose old path is protected from Edits to
// Skipped. Skips show up in the final summary; nothing disappears silently.
func (pl *Plan) ApplyProtection(p *ProtectedPaths) {
	if p == nil {
		return
	}
	kept := pl.Edits[:0]
	for _, e := range pl.Edits {
		if p.Match(e.Old) {
			log.Infof("plan: skipping protected path %q in preset %q", e.Old, e.Preset.Name)
			pl.Skipped = append(pl.Skipped, e)
			continue
		}
		kept = append(kept, e)
	}
	pl.Edits = kept
}
