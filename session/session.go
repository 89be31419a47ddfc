// Package session persists login tokens between CLI invocations, keyed by
// server URL so switching servers never reuses the wrong token.
package session

import (
	"strings"
	"time"
)

// Record is one stored login session.
type Record struct {
	Token    string    `json:"token"`
	Username string    `json:"username"`
	SavedAt  time.Time `json:"saved_at"`
}

// Store persists sessions keyed by server URL.
type Store interface {
	// Load returns the session for a server, or nil when none is stored.
	Load(serverURL string) (*Record, error)

	// Save stores or replaces the session for a server.
	Save(serverURL string, rec Record) error

	// Delete removes the session for a server.
	Delete(serverURL string) error

	Close() error
}

// NewStore opens the session store at path. An empty path disables
// persistence and yields a store that remembers nothing.
func NewStore(path string) (Store, error) {
	if strings.TrimSpace(path) == "" {
		return noopStore{}, nil
	}
	return openBolt(path)
}

type noopStore struct{}

func (noopStore) Load(string) (*Record, error) { return nil, nil }
func (noopStore) Save(string, Record) error    { return nil }
func (noopStore) Delete(string) error          { return nil }
func (noopStore) Close() error                 { return nil }
