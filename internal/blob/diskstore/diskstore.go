// Package diskstore implements blob.Store on a local directory that is served
// over HTTP by the application.
package diskstore

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"inventorycam/internal/blob"
	"inventorycam/internal/logger"
)

// Store writes objects below a root directory.
type Store struct {
	root    string
	baseURL string
	logger  *logger.Logger
}

// New creates the root directory if needed. baseURL is the public prefix the
// directory is served under.
func New(root, baseURL string, logger *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("diskstore: create root: %w", err)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("diskstore: invalid base URL: %w", err)
	}
	return &Store{root: root, baseURL: baseURL, logger: logger}, nil
}

// Root returns the directory objects are stored in.
func (s *Store) Root() string {
	return s.root
}

// Put writes the decoded payload under key. Existing objects are overwritten.
func (s *Store) Put(ctx context.Context, key string, data []byte, encoding blob.Encoding) (blob.Handle, error) {
	if err := ctx.Err(); err != nil {
		return blob.Handle{}, err
	}

	fullPath, err := s.Path(key)
	if err != nil {
		return blob.Handle{}, err
	}

	payload, _, err := blob.Decode(data, encoding)
	if err != nil {
		return blob.Handle{}, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return blob.Handle{}, fmt.Errorf("diskstore: create directory: %w", err)
	}

	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, payload, 0644); err != nil {
		return blob.Handle{}, fmt.Errorf("diskstore: write %s: %w", key, err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		os.Remove(tmp)
		return blob.Handle{}, fmt.Errorf("diskstore: commit %s: %w", key, err)
	}

	s.logger.Debug("Stored %s (%d bytes)", key, len(payload))
	return blob.Handle{Key: key, Location: fullPath}, nil
}

// ResolveURL returns the public URL of a stored object.
func (s *Store) ResolveURL(ctx context.Context, h blob.Handle) (string, error) {
	fullPath, err := s.Path(h.Key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: object %s not found", blob.ErrRejected, h.Key)
		}
		return "", fmt.Errorf("diskstore: stat %s: %w", h.Key, err)
	}

	return url.JoinPath(s.baseURL, h.Key)
}

// Delete removes a stored object. Missing objects are ignored.
func (s *Store) Delete(ctx context.Context, key string) error {
	fullPath, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("diskstore: delete %s: %w", key, err)
	}
	return nil
}

// Path maps a key to its file below the root.
func (s *Store) Path(key string) (string, error) {
	if err := blob.ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}
