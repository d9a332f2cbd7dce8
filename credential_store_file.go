package authclient

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// FileCredentialStore persists the credential as a single file so sessions
// survive process restarts. The file holds the raw token string and nothing
// else. Tokens are bearer secrets, so the file is written 0600.
type FileCredentialStore struct {
	mu   sync.Mutex
	path string
}

func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

// Load reads the stored credential, mapping a missing or empty file to
// ErrNoCredential.
func (s *FileCredentialStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoCredential
		}
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read credential file")
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", ErrNoCredential
	}
	return raw, nil
}

// Store writes the credential, creating parent directories as needed.
func (s *FileCredentialStore) Store(ctx context.Context, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to create credential directory")
		}
	}

	if err := os.WriteFile(s.path, []byte(raw), 0o600); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to write credential file")
	}
	return nil
}

// Clear removes the credential file. A missing file is not an error.
func (s *FileCredentialStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to remove credential file")
	}
	return nil
}
