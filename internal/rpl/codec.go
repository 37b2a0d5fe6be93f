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

import "encoding/base64"

// Decode decodes one base64 token to raw bytes. The mapping is strict
// standard base64: no character-set translation, no truncation, so embedded
// NULs and high-bit bytes survive untouched. A malformed token (bad padding,
// characters outside the alphabet) returns the encoding error unchanged;
// callers that know the token's position wrap it in a common.DecodeError.
func Decode(token string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(token)
}

// Encode encodes raw bytes to a padded base64 token. Encode(Decode(t)) == t
// for every padding-normalized token, and Decode(Encode(b)) == b for every
// byte sequence.
func Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
