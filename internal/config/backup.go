package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultBackupKeep is the number of backups kept per config file when
// backup.keep is not set.
const DefaultBackupKeep = 3

// Backups sit next to the file they copy as "<name>.bak.<stamp>". The stamp
// sorts lexically in time order.
const (
	backupInfix  = ".bak."
	backupLayout = "20060102-150405.000"
)

// BackupConfig controls the copies kept by 'config init --force' and
// 'config restore'.
type BackupConfig struct {
	// Keep is how many backups of each config file survive rotation.
	Keep int `yaml:"keep" json:"keep"`
}

// Backup copies path to a timestamped sibling and rotates the backups of
// path down to keep. A missing path is not an error and yields "".
func Backup(path string, keep int) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s for backup: %w", path, err)
	}

	backupPath, err := writeBackup(path, data)
	if err != nil {
		return "", err
	}

	if err := rotateBackups(path, keep); err != nil {
		return backupPath, fmt.Errorf("backup written but rotation failed: %w", err)
	}
	return backupPath, nil
}

// writeBackup creates a new backup file, never overwriting an older one
// taken within the same millisecond.
func writeBackup(path string, data []byte) (string, error) {
	base := path + backupInfix + time.Now().Format(backupLayout)
	candidate := base
	for n := 1; ; n++ {
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			candidate = fmt.Sprintf("%s-%d", base, n)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create backup: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("failed to write backup: %w", err)
		}
		return candidate, f.Close()
	}
}

// ListBackups returns the backups of path, newest first.
func ListBackups(path string) ([]string, error) {
	dir := filepath.Dir(path)
	prefix := filepath.Base(path) + backupInfix

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	return backups, nil
}

// rotateBackups removes all but the newest keep backups of path.
func rotateBackups(path string, keep int) error {
	if keep < 1 {
		keep = 1
	}
	backups, err := ListBackups(path)
	if err != nil {
		return err
	}
	if len(backups) <= keep {
		return nil
	}

	var errs []error
	for _, old := range backups[keep:] {
		if err := os.Remove(old); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Restore replaces path with the contents of backupPath. The file being
// replaced is itself backed up first, so a restore can be undone.
func Restore(path, backupPath string, keep int) error {
	// Read first: rotation below may remove backupPath.
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("backup file not found: %w", err)
	}

	if _, err := Backup(path, keep); err != nil {
		return fmt.Errorf("failed to back up %s before restore: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write restored config: %w", err)
	}
	return nil
}
