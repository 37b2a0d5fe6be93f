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

// Package extract pulls sample-path records out of decoded inner-token
// payloads and attributes each one to its sampling zone.
package extract

import (
	"strings"

	"readrum/internal/rpl"
)

// DefaultExtensions is the audio-file allowlist used to tell genuine sample
// paths apart from other printable binary content.
var DefaultExtensions = []string{"wav", "aif", "aiff", "aifc", "flac", "ogg", "mp3", "sfz"}

// PathRecord is one extracted (preset, container, note, path) tuple.
type PathRecord struct {
	Preset    string
	Container string
	Note      string
	Path      string
}

// Key is the join key used when diffing two extractions.
func (r PathRecord) Key() string {
	return r.Preset + "\x1f" + r.Container + "\x1f" + r.Note
}

// Options tunes the extraction heuristics.
type Options struct {
	// Extensions is the lowercase audio-extension allowlist (no leading
	// dot). Empty means any terminator-delimited rooted run is accepted.
	Extensions []string

	// MinTokenLen overrides the base64 token threshold used by Walk.
	MinTokenLen int
}

func (o Options) extensions() []string {
	if o.Extensions == nil {
		return DefaultExtensions
	}
	return o.Extensions
}

func (o Options) minTokenLen() int {
	if o.MinTokenLen <= 0 {
		return rpl.DefaultMinTokenLen
	}
	return o.MinTokenLen
}

// Extract scans decoded inner-token bytes for filesystem paths and emits one
// record per hit. A path is a printable run starting at a path-root marker
// and ending at the first non-printable byte, cut back to the rightmost
// recognized audio extension when an allowlist is configured. The container
// label is the nearest preceding printable run that starts with a pitch
// token; when no label is found the record is still emitted with empty
// container and note.
func Extract(preset string, inner []byte, opts Options) []PathRecord {
	exts := opts.extensions()
	var records []PathRecord

	i := 0
	for i < len(inner) {
		if !isPathStart(inner, i) {
			i++
			continue
		}
		end := i
		for end < len(inner) && !isFieldTerminator(inner[end]) {
			end++
		}
		path, ok := cutAtExtension(string(inner[i:end]), exts)
		if !ok {
			i++
			continue
		}
		container, note := labelBefore(inner, i)
		records = append(records, PathRecord{
			Preset:    preset,
			Container: container,
			Note:      note,
			Path:      path,
		})
		i += len(path)
	}
	return records
}

// cutAtExtension trims a printable run back to the rightmost ".ext" match.
// With no allowlist the whole run is the path.
func cutAtExtension(run string, exts []string) (string, bool) {
	if len(run) < 2 {
		return "", false
	}
	if len(exts) == 0 {
		return run, true
	}
	lower := strings.ToLower(run)
	for dot := strings.LastIndexByte(lower, '.'); dot > 0; dot = strings.LastIndexByte(lower[:dot], '.') {
		rest := lower[dot+1:]
		for _, ext := range exts {
			if !strings.HasPrefix(rest, ext) {
				continue
			}
			cut := dot + 1 + len(ext)
			// The extension must end the word, not prefix a longer one
			// ("aif" must not cut "aiff" in half).
			if cut < len(run) && isWordChar(run[cut]) {
				continue
			}
			return run[:cut], true
		}
	}
	return "", false
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// maxLabelLen caps how much preceding text is considered a zone label.
const maxLabelLen = 128

// labelBefore walks backward from a path start looking for the nearest
// preceding printable run that opens with a pitch token ("C4: Kick"). It
// returns the full label and the pitch, or empty strings when no run
// qualifies.
func labelBefore(inner []byte, pathStart int) (container, note string) {
	end := pathStart
	for end > 0 {
		// Skip padding/non-printable bytes between fields.
		for end > 0 && isFieldTerminator(inner[end-1]) {
			end--
		}
		if end == 0 {
			break
		}
		start := end
		for start > 0 && !isFieldTerminator(inner[start-1]) && end-start < maxLabelLen {
			start--
		}
		label := strings.TrimSpace(string(inner[start:end]))
		if n := noteLabel(label); n != "" {
			return label, n
		}
		end = start
	}
	return "", ""
}

// SplitNote derives a note token from a container label of the common
// "note: sample-stem" shape. Used when attribution fell back to an outer
// Container header rather than an in-payload label.
func SplitNote(container string) string {
	if idx := strings.IndexByte(container, ':'); idx >= 0 {
		return strings.TrimSpace(container[:idx])
	}
	return ""
}
