package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.prophex-match/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".prophex-match", "logs")
	}
	return filepath.Join(home, ".prophex-match", "logs")
}

// DefaultDebugLogPath returns the default --debug log path.
func DefaultDebugLogPath() string {
	return filepath.Join(DefaultLogDir(), "debug.log")
}
