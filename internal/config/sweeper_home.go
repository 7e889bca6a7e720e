package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the directory holding the default history database.
const HomeEnv = "SWEEPER_HOME"

// GetSweeperHome returns the sweeper home directory
// Priority order:
//  1. SWEEPER_HOME environment variable (if set)
//  2. .sweeper in the current working directory
//
// Unlike a sweep run, lookups never create the directory.
func GetSweeperHome() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return filepath.Join(cwd, ".sweeper"), nil
}

// GetHistoryDBPath returns the history database used when no sweep config
// names one: $SWEEPER_HOME/history.db
func GetHistoryDBPath() (string, error) {
	home, err := GetSweeperHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history.db"), nil
}
