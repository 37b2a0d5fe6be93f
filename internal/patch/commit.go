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

package patch

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"readrum/internal/util"
)

// DefaultBackupSuffix is appended to the original path for the pre-edit copy.
const DefaultBackupSuffix = ".bak"

// Commit writes patched container bytes over the original file. The
// original's bytes are first copied to a sibling backup and the copy is
// verified readable and identical; only then is the original replaced, via a
// uniquely named temp file renamed into place. If the backup step fails the
// original is left untouched and an error is returned. Backup and rewrite
// are sequential, not atomic as a pair: an interruption between the two
// leaves the backup in place and the original unmodified or fully written,
// never half-written.
func Commit(ctx context.Context, path string, patched []byte, backupSuffix string) (backupPath string, err error) {
	if backupSuffix == "" {
		backupSuffix = DefaultBackupSuffix
	}
	backupPath = path + backupSuffix

	original, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read original: %w", err)
	}

	mode := os.FileMode(0644)
	if fi, statErr := os.Stat(path); statErr == nil {
		mode = fi.Mode().Perm()
	}

	if err := os.WriteFile(backupPath, original, mode); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	err = util.Retry(ctx, func() error {
		got, readErr := os.ReadFile(backupPath)
		if readErr != nil {
			return readErr
		}
		if !bytes.Equal(got, original) {
			return fmt.Errorf("backup %s does not match original", backupPath)
		}
		return nil
	}, util.FileRetryOptions(ctx)...)
	if err != nil {
		return "", fmt.Errorf("backup verification failed, original untouched: %w", err)
	}
	log.Debugf("patch: backup written to %s (%d bytes)", backupPath, len(original))

	tmp := path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, patched, mode); err != nil {
		return backupPath, fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return backupPath, fmt.Errorf("failed to replace original: %w", err)
	}
	log.Debugf("patch: wrote %d bytes to %s", len(patched), path)
	return backupPath, nil
}
