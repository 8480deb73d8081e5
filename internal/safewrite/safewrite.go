// Package safewrite implements the write discipline shared by everything
// that mutates a tracked file: verify the target, snapshot it to a
// timestamped backup, then replace it atomically via a temp file in the
// same directory.
package safewrite

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Sentinel errors returned by the writer. Callers classify with errors.Is.
var (
	// ErrTargetMissing indicates the target file does not exist. The
	// writer never creates files; a missing target means the caller is
	// pointed at the wrong path.
	ErrTargetMissing = errors.New("target file does not exist")

	// ErrTargetNotWritable indicates the target exists but cannot be
	// opened for writing.
	ErrTargetNotWritable = errors.New("target file is not writable")

	// ErrBackupFailed indicates the pre-write backup could not be
	// created. The target is left untouched.
	ErrBackupFailed = errors.New("backup failed")
)

// backupTimeFormat matches the suffix on backup files:
// README.md.20250115_142233.bak
const backupTimeFormat = "20060102_150405"

// Options configures a Write.
type Options struct {
	Backup bool // Snapshot the target before replacing it
}

// Result reports what a Write did.
type Result struct {
	BackupPath string // Path of the backup created, empty if none
}

// Check verifies that path names an existing, writable regular file.
func Check(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrTargetMissing, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrTargetNotWritable, path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrTargetNotWritable, path)
	}
	_ = f.Close()
	return nil
}

// Backup copies path to a sibling file named
// <path>.<YYYYMMDD_HHMMSS>.bak, timestamped in UTC, and returns the
// backup path. The copy keeps the original's permission bits.
func Backup(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}

	backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().UTC().Format(backupTimeFormat))
	if err := os.WriteFile(backupPath, data, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}
	return backupPath, nil
}

// Write replaces the contents of path with data. The target must
// already exist and be writable. The replacement goes through a temp
// file in the same directory followed by a rename, so a crash mid-write
// leaves either the old contents or the new, never a partial file.
func Write(path string, data []byte, opts Options) (*Result, error) {
	if err := Check(path); err != nil {
		return nil, err
	}

	result := &Result{}

	if opts.Backup {
		backupPath, err := Backup(path)
		if err != nil {
			return nil, err
		}
		result.BackupPath = backupPath
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to rename temp file: %w", err)
	}

	return result, nil
}
