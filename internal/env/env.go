package env

import (
	"os"
	"path/filepath"
)

var Daemon bool = false
var ListenPort int = 0

// (default: %USERPROFILE%/.deploy-keeper on Windows, $HOME/.deploy-keeper on Linux)
var KeeperDir string = GetKeeperDir()

/**
 * Get deploy-keeper directory path
 * @returns {string} Returns keeper directory path
 */
func GetKeeperDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".deploy-keeper")
}
