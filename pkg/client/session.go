package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// sessionFileName is the fixed file the bearer token lives in, under the
// user config dir. One session per machine user; a new login overwrites it.
const sessionFileName = "session.json"

// Session is the persisted login state.
type Session struct {
	Token  string `json:"token"`
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// SessionStore persists the bearer token between runs. An absent file means
// logged out; there is no error state for it.
type SessionStore struct {
	path string
}

// NewSessionStore places the session file under the user config dir
// (e.g. ~/.config/lingualearner/session.json).
func NewSessionStore(appName string) (*SessionStore, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	dir := filepath.Join(configDir, appName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	return &SessionStore{path: filepath.Join(dir, sessionFileName)}, nil
}

// NewSessionStoreAt uses an explicit file path, for tests.
func NewSessionStoreAt(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Load reads the saved session. Returns (nil, nil) when no session exists.
func (s *SessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	if session.Token == "" {
		return nil, nil
	}
	return &session, nil
}

// Save writes the session, replacing any previous one. The file is owner
// read/write only since it holds a live credential.
func (s *SessionStore) Save(session *Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Clear removes the session file. Clearing an absent session is a no-op.
func (s *SessionStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
