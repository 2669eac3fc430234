package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"designmate/internal/client"
)

// loadSession reads the session file; a missing file is an empty session.
func loadSession(path string) (*client.Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &client.Session{}, nil
	}
	if err != nil {
		return nil, err
	}
	var s client.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session file %s: %w", path, err)
	}
	return &s, nil
}

func saveSession(path string, s *client.Session) error {
	if !s.Valid() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
