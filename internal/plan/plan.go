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

// Package plan turns replacement requests into targeted edits against
// specific inner tokens. Planning never touches the container text; the
// plan/apply split is what keeps a failed validation from ever reaching the
// write stage.
package plan

import (
	"bytes"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"readrum/internal/common"
	"readrum/internal/extract"
	"readrum/internal/rpl"
)

// PresetFilter restricts a request to matching presets. The wildcard case is
// an explicit variant rather than an empty-string convention so call sites
// cannot forget it.
type PresetFilter interface {
	Matches(name string) bool
	String() string
}

// AnyPreset matches every preset.
type AnyPreset struct{}

func (AnyPreset) Matches(string) bool { return true }
func (AnyPreset) String() string      { return "any preset" }

// NamedPreset matches one preset by exact name.
type NamedPreset string

func (p NamedPreset) Matches(name string) bool { return string(p) == name }
func (p NamedPreset) String() string           { return fmt.Sprintf("preset %q", string(p)) }

// FilterFor maps the CSV convention (empty preset column = wildcard) onto
// the filter variants.
func FilterFor(preset string) PresetFilter {
	if preset == "" {
		return AnyPreset{}
	}
	return NamedPreset(preset)
}

// Request is one explicit old-path → new-path replacement.
type Request struct {
	Preset    PresetFilter
	Container string
	OldPath   string
	NewPath   string
}

// Edit is one resolved substitution targeted at a specific inner token.
// Consumed exactly once by the patcher.
type Edit struct {
	Preset *rpl.Preset
	Outer  *rpl.OuterToken
	Inner  *rpl.InnerToken
	Old    string
	New    string
}

func (e Edit) String() string {
	return fmt.Sprintf("preset %q token@%d: %q -> %q", e.Preset.Name, e.Inner.Start, e.Old, e.New)
}

// Plan is the planner's output: edits to apply plus everything that could
// not be resolved, kept for the final summary instead of being dropped
// silently.
type Plan struct {
	Edits     []Edit
	Unmatched []Request
	Conflicts []string
	Warnings  []string
	Skipped   []Edit
}

// Explicit resolves explicit-pairs requests: every inner token whose decoded
// bytes contain a request's old path as a literal substring yields one edit,
// restricted to presets matching the request's filter. All occurrences
// within a token are replaced, not just the first. Requests matching nothing
// are reported, not fatal.
func Explicit(c *rpl.Container, reqs []Request, opts extract.Options) *Plan {
	p := &Plan{}
	matched := make([]bool, len(reqs))

	for _, preset := range c.Presets {
		for _, outer := range preset.Outer {
			inner, err := outer.InnerTokens(c.MinTokenLen())
			if err != nil {
				log.Warnf("plan: skipping outer token in preset %q: %v", preset.Name, err)
				continue
			}
			for _, tok := range inner {
				payload, err := tok.Decode()
				if err != nil {
					continue
				}
				for i, req := range reqs {
					if req.OldPath == "" || !req.Preset.Matches(preset.Name) {
						continue
					}
					if !bytes.Contains(payload, []byte(req.OldPath)) {
						continue
					}
					matched[i] = true
					p.Edits = append(p.Edits, Edit{
						Preset: preset,
						Outer:  outer,
						Inner:  tok,
						Old:    req.OldPath,
						New:    req.NewPath,
					})
				}
			}
		}
	}

	for i, req := range reqs {
		if !matched[i] {
			p.Unmatched = append(p.Unmatched, req)
			log.Warnf("plan: no token contains %q (%s)", req.OldPath, req.Preset)
		}
	}
	return p
}

// PathChange is one key whose path differs between a baseline and a revised
// extraction.
type PathChange struct {
	Preset    string
	Container string
	Note      string
	OldPath   string
	NewPath   string
}

// DiffRecords joins baseline and revised extractions by
// (preset, container, note) and reports every key whose path changed.
// Duplicate baseline keys conflict: targeting an edit at an ambiguous key
// could rewrite the wrong occurrence, so planning for that key is aborted
// and reported. Revised-only keys produce a warning and no change.
func DiffRecords(baseline, revised []extract.PathRecord) (changes []PathChange, warnings, conflicts []string) {
	basePath := make(map[string]string)
	dup := make(map[string]int)
	for _, rec := range baseline {
		key := rec.Key()
		if _, ok := basePath[key]; ok {
			dup[key]++
			continue
		}
		basePath[key] = rec.Path
	}
	for key, n := range dup {
		cerr := &common.ConflictError{Key: keyLabel(key), Count: n + 1}
		conflicts = append(conflicts, cerr.Error())
		log.Warnf("plan: %v", cerr)
		delete(basePath, key)
	}

	for _, rec := range revised {
		key := rec.Key()
		old, ok := basePath[key]
		if !ok {
			if _, conflicted := dup[key]; !conflicted {
				warnings = append(warnings, fmt.Sprintf("key %q not in baseline, no edit produced", keyLabel(key)))
			}
			continue
		}
		if old == rec.Path {
			continue
		}
		changes = append(changes, PathChange{
			Preset:    rec.Preset,
			Container: rec.Container,
			Note:      rec.Note,
			OldPath:   old,
			NewPath:   rec.Path,
		})
	}
	return changes, warnings, conflicts
}

// Diff plans csv-diff mode: each changed key becomes exactly one edit,
// targeted at the inner token that produced the baseline record in the
// current walk of the container. A key that matches zero or several located
// records is reported and produces no edit; ambiguity is never resolved by
// first-match.
func Diff(located []extract.Located, baseline, revised []extract.PathRecord) *Plan {
	p := &Plan{}
	changes, warnings, conflicts := DiffRecords(baseline, revised)
	p.Warnings = warnings
	p.Conflicts = conflicts

	byKey := make(map[string][]extract.Located)
	for _, l := range located {
		byKey[l.Record.Key()] = append(byKey[l.Record.Key()], l)
	}

	for _, ch := range changes {
		key := (extract.PathRecord{Preset: ch.Preset, Container: ch.Container, Note: ch.Note}).Key()
		var targets []extract.Located
		for _, l := range byKey[key] {
			if l.Record.Path == ch.OldPath {
				targets = append(targets, l)
			}
		}
		switch len(targets) {
		case 0:
			p.Unmatched = append(p.Unmatched, Request{
				Preset:  FilterFor(ch.Preset),
				OldPath: ch.OldPath,
				NewPath: ch.NewPath,
			})
			log.Warnf("plan: baseline path %q for key %q not found in container", ch.OldPath, keyLabel(key))
		case 1:
			l := targets[0]
			p.Edits = append(p.Edits, Edit{
				Preset: l.Preset,
				Outer:  l.Outer,
				Inner:  l.Inner,
				Old:    ch.OldPath,
				New:    ch.NewPath,
			})
		default:
			cerr := &common.ConflictError{Key: keyLabel(key), Count: len(targets)}
			p.Conflicts = append(p.Conflicts, cerr.Error())
			log.Warnf("plan: %v", cerr)
		}
	}
	return p
}

func keyLabel(key string) string {
	return strings.ReplaceAll(key, "\x1f", "/")
}
