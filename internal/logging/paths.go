package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.sbirkb/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".sbirkb", "logs")
	}
	return filepath.Join(home, ".sbirkb", "logs")
}

// DefaultLogPath returns the default server log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "server.log")
}

// EnsureLogDir creates the directory for the given log path.
func EnsureLogDir(logPath string) error {
	return os.MkdirAll(filepath.Dir(logPath), 0o755)
}
