package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no media exists for a token
	ErrNotFound = errors.New("media not found")
	// ErrInvalidToken is returned for malformed tokens
	ErrInvalidToken = errors.New("invalid media token")
)

// Store persists submission media behind opaque tokens
type Store interface {
	Put(data []byte, suggestedName string) (string, error)
	Get(token string) ([]byte, error)
	Delete(token string) error
}

// LocalStore keeps media files on the local filesystem
type LocalStore struct {
	dir string
}

// NewLocalStore creates a local media store rooted at dir
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}

	return &LocalStore{dir: dir}, nil
}

// Put stores the data and returns an opaque token for it. The token
// carries the original extension so moderators get a usable file.
func (s *LocalStore) Put(data []byte, suggestedName string) (string, error) {
	ext := filepath.Ext(suggestedName)
	if len(ext) > 10 {
		ext = ""
	}

	token := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, token), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media: %w", err)
	}

	return token, nil
}

// Get retrieves the data for a token
func (s *LocalStore) Get(token string) ([]byte, error) {
	path, err := s.tokenPath(token)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return data, nil
}

// Delete removes the data for a token
func (s *LocalStore) Delete(token string) error {
	path, err := s.tokenPath(token)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}

	return nil
}

// tokenPath validates the token and resolves it inside the store dir
func (s *LocalStore) tokenPath(token string) (string, error) {
	if token == "" || strings.ContainsAny(token, `/\`) || strings.Contains(token, "..") {
		return "", ErrInvalidToken
	}

	return filepath.Join(s.dir, token), nil
}
