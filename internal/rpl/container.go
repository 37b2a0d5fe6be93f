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

// Package rpl models the REAPER_PRESET_LIBRARY container format: preset
// block boundaries, the base64 tokens inside them, and the lossless codec
// used to move between token text and raw payload bytes.
//
// Ownership is arena-style: a Container owns its Presets, a Preset owns its
// OuterTokens, an OuterToken owns the InnerTokens found in its decoded
// payload. Decoded bytes are cached on the owning token; inner-token offsets
// are only valid against the exact decoded buffer they were found in.
package rpl

import (
	"bytes"
	"regexp"

	"readrum/internal/common"
)

var presetOpenRe = regexp.MustCompile("^\\s*<PRESET\\s+(?:`([^`]*)`|\"([^\"]*)\"|'([^']*)')")
var libraryOpenRe = regexp.MustCompile(`^\s*<REAPER_PRESET_LIBRARY(?:\s+(?:"([^"]*)"|'([^']*)'|([^\s>]+)))?`)

// Container is one parsed .RPL backup. Raw is the complete original file;
// every Preset span indexes into it. Concatenating the text between and
// inside all spans reproduces Raw exactly, which is what makes untouched
// regions round-trip byte-for-byte.
type Container struct {
	Raw     []byte
	Name    string
	Presets []*Preset

	minTokenLen int
}

// MinTokenLen returns the token-length threshold this container was parsed
// with. Inner-token scans reuse it so both nesting levels agree.
func (c *Container) MinTokenLen() int { return c.minTokenLen }

// Preset is one named `<PRESET ...>` block. Start is the offset of the first
// content line (after the opener), End the offset of the closing marker
// line. Only bytes inside its outer token spans are ever rewritten.
type Preset struct {
	Name  string
	Start int
	End   int
	Outer []*OuterToken
}

// OuterToken is one top-level base64 blob: a run of contiguous lines inside
// a preset block that each consist of nothing but base64 characters. Text is
// the joined line payload; Start/End span the full lines (indentation and
// newlines included) so a re-encoded token can be spliced back in place.
type OuterToken struct {
	Start int
	End   int
	Text  string

	// Reflow parameters captured from the original lines.
	Indent       string
	LineWidth    int
	FinalNewline bool

	decoded []byte
	inner   []*InnerToken
}

// Decode returns the token's payload bytes, cached after the first call.
func (t *OuterToken) Decode() ([]byte, error) {
	if t.decoded != nil {
		return t.decoded, nil
	}
	b, err := Decode(t.Text)
	if err != nil {
		return nil, &common.DecodeError{Offset: t.Start, Length: t.End - t.Start, Err: err}
	}
	t.decoded = b
	return b, nil
}

// InnerTokens scans the decoded payload for nested base64 tokens. Results
// are cached; offsets are relative to the buffer returned by Decode and
// become stale if that buffer is replaced (see Invalidate).
func (t *OuterToken) InnerTokens(minLen int) ([]*InnerToken, error) {
	if t.inner != nil {
		return t.inner, nil
	}
	payload, err := t.Decode()
	if err != nil {
		return nil, err
	}
	spans := FindTokens(payload, minLen)
	inner := make([]*InnerToken, 0, len(spans))
	for _, s := range spans {
		inner = append(inner, &InnerToken{
			Start: s.Start,
			End:   s.End,
			Text:  string(payload[s.Start:s.End]),
		})
	}
	t.inner = inner
	return inner, nil
}

// Invalidate drops the cached decode and inner-token scan. Must be called
// if the caller has replaced the token's text after an edit, since the old
// inner offsets no longer describe the new payload.
func (t *OuterToken) Invalidate() {
	t.decoded = nil
	t.inner = nil
}

// InnerToken is a base64 token inside an outer token's decoded payload.
// Start/End are offsets into that decoded buffer, not into the container.
type InnerToken struct {
	Start int
	End   int
	Text  string

	decoded []byte
}

// Decode returns the inner payload bytes, cached after the first call.
func (t *InnerToken) Decode() ([]byte, error) {
	if t.decoded != nil {
		return t.decoded, nil
	}
	b, err := Decode(t.Text)
	if err != nil {
		return nil, &common.DecodeError{Offset: t.Start, Length: t.End - t.Start, Err: err}
	}
	t.decoded = b
	return b, nil
}

// Parse parses container bytes with the default token threshold.
func Parse(data []byte) (*Container, error) {
	return ParseWithMinLen(data, DefaultMinTokenLen)
}

// ParseWithMinLen parses the container text, locating the library wrapper
// and every PRESET block. Block nesting is tracked with a depth counter over
// `<` opener lines and `>` closer lines, so bracketed chunks inside a preset
// do not terminate it early. Content other than names and spans is not
// interpreted.
func ParseWithMinLen(data []byte, minLen int) (*Container, error) {
	if minLen <= 0 {
		minLen = DefaultMinTokenLen
	}
	c := &Container{Raw: data, minTokenLen: minLen}

	depth := 0
	sawLibrary := false
	var openPreset *Preset
	openDepth := 0

	off := 0
	for off < len(data) {
		lineEnd := off + len(data[off:])
		if nl := bytes.IndexByte(data[off:], '\n'); nl >= 0 {
			lineEnd = off + nl + 1
		}
		trimmed := bytes.TrimSpace(data[off:lineEnd])

		switch {
		case len(trimmed) > 0 && trimmed[0] == '<':
			if !sawLibrary {
				m := libraryOpenRe.FindSubmatch(trimmed)
				if m == nil {
					return nil, &common.StructureError{Offset: off, Msg: "missing REAPER_PRESET_LIBRARY wrapper"}
				}
				for _, g := range m[1:] {
					if g != nil {
						c.Name = string(g)
					}
				}
				sawLibrary = true
			} else if openPreset == nil {
				if m := presetOpenRe.FindSubmatch(trimmed); m != nil {
					name := ""
					for _, g := range m[1:] {
						if g != nil {
							name = string(g)
						}
					}
					openPreset = &Preset{Name: name, Start: lineEnd}
					openDepth = depth
				}
			}
			depth++
		case len(trimmed) > 0 && trimmed[0] == '>':
			depth--
			if depth < 0 {
				return nil, &common.StructureError{Offset: off, Msg: "unbalanced closing marker"}
			}
			if openPreset != nil && depth == openDepth {
				openPreset.End = off
				openPreset.Outer = findOuterTokens(data, openPreset.Start, openPreset.End, minLen)
				c.Presets = append(c.Presets, openPreset)
				openPreset = nil
			}
		}
		off = lineEnd
	}

	if !sawLibrary {
		return nil, &common.StructureError{Offset: 0, Msg: "missing REAPER_PRESET_LIBRARY wrapper"}
	}
	if openPreset != nil {
		return nil, &common.StructureError{
			Offset: openPreset.Start,
			Msg:    "PRESET " + openPreset.Name + " has no matching closer",
		}
	}
	if depth != 0 {
		return nil, &common.StructureError{Offset: len(data), Msg: "unclosed block at end of input"}
	}
	return c, nil
}

// findOuterTokens groups contiguous base64-only lines between start and end
// into outer tokens, recording the indentation and line width of the
// original layout so an edited token can be re-flowed identically.
func findOuterTokens(data []byte, start, end, minLen int) []*OuterToken {
	var toks []*OuterToken
	var cur *OuterToken

	off := start
	for off < end {
		lineEnd := end
		if nl := bytes.IndexByte(data[off:end], '\n'); nl >= 0 {
			lineEnd = off + nl + 1
		}
		line := data[off:lineEnd]
		payload := bytes.TrimSpace(line)

		if len(payload) >= minLen && isBase64Run(payload) {
			if cur == nil {
				indentLen := bytes.IndexByte(line, payload[0])
				cur = &OuterToken{
					Start:     off,
					Indent:    string(line[:indentLen]),
					LineWidth: len(payload),
				}
			}
			cur.Text += string(payload)
			cur.End = lineEnd
			cur.FinalNewline = lineEnd > off && data[lineEnd-1] == '\n'
		} else if cur != nil {
			toks = append(toks, cur)
			cur = nil
		}
		off = lineEnd
	}
	if cur != nil {
		toks = append(toks, cur)
	}
	return toks
}

func isBase64Run(b []byte) bool {
	for _, c := range b {
		if !isBase64Char(c) {
			return false
		}
	}
	return len(b) > 0
}
