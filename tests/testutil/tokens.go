package testutil

import "errors"

// MemoryTokenStore keeps a session token in memory.
type MemoryTokenStore struct {
	Token   string
	LoadErr error
}

// Load returns the stored token, or an error when none is stored.
func (m *MemoryTokenStore) Load() (string, error) {
	if m.LoadErr != nil {
		return "", m.LoadErr
	}
	if m.Token == "" {
		return "", errors.New("no token stored")
	}
	return m.Token, nil
}

// Save stores token.
func (m *MemoryTokenStore) Save(token string) error {
	m.Token = token
	return nil
}

// Clear forgets the stored token.
func (m *MemoryTokenStore) Clear() error {
	m.Token = ""
	return nil
}
