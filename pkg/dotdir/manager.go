// Package dotdir manages the .angler/ and ~/.angler directories.
//
// The dotdir holds persistent configuration (config.toml), tokenizer vocab
// files, and saved run configs. Resolution prefers an explicit override, then
// a project-local .angler/ directory, then ~/.angler.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the angler directory.
	dirName = ".angler"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .angler/ directory.
// Order of precedence is as follows:
//  1. Provided override (created if missing)
//  2. Local ./.angler/ dir
//  3. Home ~/.angler/ dir
//  4. If none found, empty string
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	case m.homeDirExists():
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)

	default:
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating angler directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// localDirExists checks whether a .angler/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}

// homeDirExists checks whether a ~/.angler directory exists.
func (m *Manager) homeDirExists() bool {
	home, err := os.UserHomeDir()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(home, dirName))
	return err == nil && info.IsDir()
}
