package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Credentials owns the persisted bearer token. The token survives
// process restarts; the resolved user never does.
type Credentials struct {
	mu    sync.Mutex
	path  string
	token string
}

// LoadCredentials reads the token file at path if it exists. A missing
// file is not an error, it just means no prior session.
func LoadCredentials(path string) (*Credentials, error) {
	c := &Credentials{path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}
	c.token = strings.TrimSpace(string(raw))
	return c, nil
}

// DefaultTokenPath is where the token lives unless configured otherwise.
func DefaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "shopfront", "token")
}

// Path returns the token file location.
func (c *Credentials) Path() string {
	return c.path
}

// Token returns the current token, empty when anonymous. Implements
// api.TokenSource.
func (c *Credentials) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Set stores and persists a new token. The file is user-readable only.
func (c *Credentials) Set(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(c.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Clear drops the token in memory and on disk.
func (c *Credentials) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
