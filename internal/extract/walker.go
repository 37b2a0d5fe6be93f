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

import (
	"regexp"

	log "github.com/sirupsen/logrus"

	"readrum/internal/rpl"
)

// containerHeaderRe matches the zone header REAPER writes into the decoded
// outer payload, e.g. `Container "C4: Kick"`.
var containerHeaderRe = regexp.MustCompile(`Container "([^"]*)"`)

// Located is a PathRecord together with the tokens it came from, so a
// planner can target the exact inner token that produced a record.
type Located struct {
	Record PathRecord
	Preset *rpl.Preset
	Outer  *rpl.OuterToken
	Inner  *rpl.InnerToken
}

// Walk traverses every preset's outer tokens, decodes the inner tokens and
// extracts located path records. Decode failures are per-token: an
// undecodable outer token is reported and skipped, an inner-looking run that
// does not decode is normal payload noise and only logged at debug level.
func Walk(c *rpl.Container, opts Options) []Located {
	var located []Located
	for _, preset := range c.Presets {
		for _, outer := range preset.Outer {
			outerBytes, err := outer.Decode()
			if err != nil {
				log.Warnf("extract: skipping outer token in preset %q: %v", preset.Name, err)
				continue
			}
			inner, err := outer.InnerTokens(opts.minTokenLen())
			if err != nil {
				log.Warnf("extract: skipping outer token in preset %q: %v", preset.Name, err)
				continue
			}
			for _, tok := range inner {
				payload, err := tok.Decode()
				if err != nil {
					log.Debugf("extract: inner run at %d in preset %q is not base64: %v", tok.Start, preset.Name, err)
					continue
				}
				for _, rec := range Extract(preset.Name, payload, opts) {
					if rec.Container == "" {
						rec.Container = enclosingContainerLabel(outerBytes, tok.Start)
						rec.Note = SplitNote(rec.Container)
					}
					located = append(located, Located{
						Record: rec,
						Preset: preset,
						Outer:  outer,
						Inner:  tok,
					})
				}
			}
		}
	}
	return located
}

// Records flattens a walk result to bare path records.
func Records(located []Located) []PathRecord {
	recs := make([]PathRecord, 0, len(located))
	for _, l := range located {
		recs = append(recs, l.Record)
	}
	return recs
}

// enclosingContainerLabel attributes an inner token to the nearest Container
// header that precedes it in the decoded outer payload. This is the fallback
// when the inner payload itself carries no pitch label.
func enclosingContainerLabel(outerBytes []byte, innerStart int) string {
	if innerStart > len(outerBytes) {
		innerStart = len(outerBytes)
	}
	ms := containerHeaderRe.FindAllSubmatch(outerBytes[:innerStart], -1)
	if len(ms) == 0 {
		return ""
	}
	return string(ms[len(ms)-1][1])
}
