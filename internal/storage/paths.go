// Package storage persists preferences, move selections and statistics in
// a badger database under the user's data directory.
package storage

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "chessbot"

// DataDir returns override if set, else the XDG data directory for chessbot
// (~/.local/share/chessbot on Linux, ~/Library/Application Support/chessbot
// on macOS, %LOCALAPPDATA%\chessbot on Windows). The directory is created.
func DataDir(override string) (string, error) {
	dir := override
	if dir == "" {
		dir = filepath.Join(xdg.DataHome, appName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// DatabaseDir returns the badger directory inside DataDir(override).
func DatabaseDir(override string) (string, error) {
	dataDir, err := DataDir(override)
	if err != nil {
		return "", err
	}
	dbDir := filepath.Join(dataDir, "db")
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return "", err
	}
	return dbDir, nil
}
