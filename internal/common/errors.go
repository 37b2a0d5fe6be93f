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

package common

import (
	"errors"
	"fmt"
)

var (
	ErrNoPresets   = errors.New("no preset blocks found")
	ErrRunNotFound = errors.New("extraction run not found")
	ErrBadHeader   = errors.New("unexpected CSV header")
)

// DecodeError reports a malformed base64 token. Offset and Length identify
// the offending span within the buffer that was being scanned, so the caller
// can point at the exact token in its report.
type DecodeError struct {
	Offset int
	Length int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed base64 token at offset %d (%d bytes): %v", e.Offset, e.Length, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StructureError reports unbalanced or missing container markers. There is
// no safe partial parse of a malformed library, so these are always fatal.
type StructureError struct {
	Offset int
	Msg    string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("container structure error at offset %d: %s", e.Offset, e.Msg)
}

// ConflictError reports an ambiguous planning key: more than one baseline
// row shares the same (preset, container, note) key, so an edit cannot be
// targeted at a specific token without risking the wrong occurrence.
type ConflictError struct {
	Key   string
	Count int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("ambiguous key %q: matches %d baseline rows", e.Key, e.Count)
}
