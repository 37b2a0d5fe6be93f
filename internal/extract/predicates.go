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

package extract

import "regexp"

// The path and label heuristics are split into small predicates so each one
// can be tested and replaced on its own as more payload layouts show up.
// They are best-effort: the format does not formally distinguish path fields
// from other binary content, so extraction output needs review before it is
// trusted to drive replacements.

// noteLabelRe matches a musical pitch token at the start of a label,
// e.g. "C4:", "D#3:", "A#-1: Snare Tail".
var noteLabelRe = regexp.MustCompile(`^([A-Ga-g][#b]?-?[0-9]+)\s*:`)

func isPrintable(c byte) bool {
	return c >= 0x20 && c < 0x7f
}

// isFieldTerminator reports whether c ends a path or label run. The payload
// layout uses NULs as field padding; any non-printable byte ends the run.
func isFieldTerminator(c byte) bool {
	return !isPrintable(c)
}

// isPathStart reports whether a filesystem path plausibly begins at data[i]:
// a rooted POSIX path or a drive-style prefix like "C:\" or "C:/".
func isPathStart(data []byte, i int) bool {
	c := data[i]
	if c == '/' {
		// Require something printable after the slash; a bare '/' is noise.
		return i+1 < len(data) && isPrintable(data[i+1]) && data[i+1] != '/'
	}
	if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
		return i+2 < len(data) && data[i+1] == ':' && (data[i+2] == '\\' || data[i+2] == '/')
	}
	return false
}

// noteLabel returns the pitch token if the label starts with one, else "".
func noteLabel(label string) string {
	if m := noteLabelRe.FindStringSubmatch(label); m != nil {
		return m[1]
	}
	return ""
}
