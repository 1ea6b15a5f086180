// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWriteFile replaces path with data. Readers see either the previous
// file or the complete new one, never a partial write.
//
// Used for config saves, conversation exports and downloaded summary PDFs.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	tmp, err := writeTemp(filepath.Dir(target), filepath.Base(target), data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// writeTemp stores data in a synced, closed sibling file of the target and
// returns its name. The temp file lives in dir so the rename stays on one
// filesystem; it is removed again on any failure.
func writeTemp(dir, base string, data []byte, perm os.FileMode) (name string, err error) {
	f, err := os.CreateTemp(dir, "."+base+".tmp-")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name = f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(name)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Sync(); err != nil {
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err = f.Chmod(perm); err != nil {
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	// Closed before rename; Windows refuses to rename an open file.
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return name, nil
}
