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

// Package patch applies planned edits back into container text: decode
// outer, patch inner payloads, re-encode both layers and splice the result
// over the original spans. Everything outside an edited token is preserved
// byte for byte.
package patch

import (
	"bytes"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"readrum/internal/plan"
	"readrum/internal/rpl"
)

// AppliedEdit describes one completed substitution for the summary.
type AppliedEdit struct {
	Preset      string
	InnerOffset int
	Old         string
	New         string
	Count       int
}

func (a AppliedEdit) String() string {
	return fmt.Sprintf("preset %q token@%d: %q -> %q (%d occurrence(s))", a.Preset, a.InnerOffset, a.Old, a.New, a.Count)
}

// Result reports what Apply did. Output holds the full patched container
// bytes; in dry-run mode it is computed but callers must not write it.
type Result struct {
	Output  []byte
	Changed bool
	DryRun  bool
	Applied []AppliedEdit
	Failed  []string
}

// Apply computes the patched container text for a set of planned edits.
// Edits are grouped by outer token so each expensive outer decode happens
// once; within an outer buffer inner tokens are patched in offset order with
// subsequent offsets shifted by the accumulated length delta. An error on
// any edit inside an outer token abandons that whole token's re-encode
// (never splice a partially corrupted buffer) but leaves other outer tokens
// unaffected. The container itself is never mutated; the patched text is a
// fresh buffer.
func Apply(c *rpl.Container, edits []plan.Edit, dryRun bool) (*Result, error) {
	res := &Result{DryRun: dryRun}
	if len(edits) == 0 {
		res.Output = c.Raw
		return res, nil
	}

	groups := make(map[*rpl.OuterToken]*outerGroup)
	var order []*outerGroup
	for _, e := range edits {
		g, ok := groups[e.Outer]
		if !ok {
			g = &outerGroup{preset: e.Preset, outer: e.Outer}
			groups[e.Outer] = g
			order = append(order, g)
		}
		g.edits = append(g.edits, e)
	}

	type splice struct {
		start, end int
		text       []byte
	}
	var splices []splice

	for _, g := range order {
		applied, newText, err := patchOuter(g)
		if err != nil {
			msg := fmt.Sprintf("preset %q outer token at %d: %v", g.preset.Name, g.outer.Start, err)
			res.Failed = append(res.Failed, msg)
			log.Errorf("patch: %s", msg)
			continue
		}
		if len(applied) == 0 {
			continue
		}
		res.Applied = append(res.Applied, applied...)
		splices = append(splices, splice{start: g.outer.Start, end: g.outer.End, text: newText})
	}

	if len(splices) == 0 {
		res.Output = c.Raw
		return res, nil
	}

	// Splice back to front so earlier offsets stay valid.
	sort.Slice(splices, func(i, j int) bool { return splices[i].start > splices[j].start })
	out := append([]byte(nil), c.Raw...)
	for _, s := range splices {
		out = append(out[:s.start], append(s.text, out[s.end:]...)...)
	}
	res.Output = out
	res.Changed = true
	return res, nil
}

type outerGroup struct {
	preset *rpl.Preset
	outer  *rpl.OuterToken
	edits  []plan.Edit
}

// patchOuter rewrites one outer token's payload. All inner decodes happen
// before any splice so a decode failure aborts the token untouched.
func patchOuter(g *outerGroup) ([]AppliedEdit, []byte, error) {
	outerBytes, err := g.outer.Decode()
	if err != nil {
		return nil, nil, err
	}

	// Group this token's edits by inner token, keeping inner offset order.
	byInner := make(map[*rpl.InnerToken][]plan.Edit)
	var inners []*rpl.InnerToken
	for _, e := range g.edits {
		if _, ok := byInner[e.Inner]; !ok {
			inners = append(inners, e.Inner)
		}
		byInner[e.Inner] = append(byInner[e.Inner], e)
	}
	sort.Slice(inners, func(i, j int) bool { return inners[i].Start < inners[j].Start })

	type innerPatch struct {
		tok     *rpl.InnerToken
		payload []byte
	}
	patches := make([]innerPatch, 0, len(inners))
	for _, tok := range inners {
		payload, err := tok.Decode()
		if err != nil {
			return nil, nil, err
		}
		patches = append(patches, innerPatch{tok: tok, payload: append([]byte(nil), payload...)})
	}

	var applied []AppliedEdit
	buf := append([]byte(nil), outerBytes...)
	shift := 0
	for _, p := range patches {
		edits := byInner[p.tok]
		// Longest old substring first so an overlapping shorter match can
		// never corrupt a longer one partway.
		sort.SliceStable(edits, func(i, j int) bool { return len(edits[i].Old) > len(edits[j].Old) })

		payload := p.payload
		for _, e := range edits {
			n := bytes.Count(payload, []byte(e.Old))
			if n == 0 {
				continue
			}
			payload = bytes.ReplaceAll(payload, []byte(e.Old), []byte(e.New))
			applied = append(applied, AppliedEdit{
				Preset:      g.preset.Name,
				InnerOffset: p.tok.Start,
				Old:         e.Old,
				New:         e.New,
				Count:       n,
			})
		}
		if bytes.Equal(payload, p.payload) {
			continue
		}

		newTok := []byte(rpl.Encode(payload))
		start, end := p.tok.Start+shift, p.tok.End+shift
		buf = append(buf[:start], append(newTok, buf[end:]...)...)
		shift += len(newTok) - (p.tok.End - p.tok.Start)
	}

	if len(applied) == 0 {
		return nil, nil, nil
	}
	return applied, reflow(rpl.Encode(buf), g.outer), nil
}

// reflow lays a re-encoded outer token out as lines matching the original
// layout: same indentation, same line width, same final-newline state.
func reflow(enc string, tok *rpl.OuterToken) []byte {
	width := tok.LineWidth
	if width <= 0 {
		width = 76
	}
	var b bytes.Buffer
	for i := 0; i < len(enc); i += width {
		j := min(i+width, len(enc))
		b.WriteString(tok.Indent)
		b.WriteString(enc[i:j])
		if j < len(enc) || tok.FinalNewline {
			b.WriteByte('\n')
		}
	}
	return b.Bytes()
}
