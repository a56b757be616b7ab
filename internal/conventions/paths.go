package conventions

import (
	"path/filepath"

	"k8s.io/client-go/util/homedir"
)

const (
	// DefaultDataDir is the default todochat data directory name (relative to home).
	DefaultDataDir = ".todochat"
	// DBFile is the SQLite database filename inside the data directory.
	DBFile = "todochat.db"
	// AgentConfigFile is the optional agent configuration filename inside the data directory.
	AgentConfigFile = "agent.yaml"

	// OwnerHeader is the HTTP header carrying the owner identity.
	OwnerHeader = "X-Owner-ID"
	// RequestIDHeader is the HTTP header echoing the request ID.
	RequestIDHeader = "X-Request-ID"
)

// DataDir returns the data directory under the user home.
func DataDir() string {
	return filepath.Join(homedir.HomeDir(), DefaultDataDir)
}

// DefaultDBPath returns the default SQLite database path.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), DBFile)
}
