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

package rpl

// DefaultMinTokenLen is the minimum run length treated as a base64 token.
// Shorter alphanumeric runs are too likely to be incidental text. The value
// matches the threshold the format has been observed to need in practice.
const DefaultMinTokenLen = 20

// Span is a half-open [Start, End) byte range.
type Span struct {
	Start int
	End   int
}

func isBase64Char(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '+' || c == '/' || c == '=':
		return true
	}
	return false
}

// FindTokens scans data left to right and returns the non-overlapping
// maximal runs of base64-alphabet characters at least minLen long. A run
// immediately followed by more alphabet characters is still one token: the
// format concatenates encoded payload without delimiters at this level, so
// the match is deliberately greedy. Nothing is decoded here.
func FindTokens(data []byte, minLen int) []Span {
	if minLen <= 0 {
		minLen = DefaultMinTokenLen
	}
	var spans []Span
	i := 0
	for i < len(data) {
		if !isBase64Char(data[i]) {
			i++
			continue
		}
		j := i
		for j < len(data) && isBase64Char(data[j]) {
			j++
		}
		if j-i >= minLen {
			spans = append(spans, Span{Start: i, End: j})
		}
		i = j
	}
	return spans
}
