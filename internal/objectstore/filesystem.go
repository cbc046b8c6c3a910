package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"intake/pkg/platform/sentinel"
)

// FilesystemStore writes objects under a local directory served at /files/.
type FilesystemStore struct {
	root    string
	baseURL string
}

func NewFilesystem(root, baseURL string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create files dir: %w", err)
	}
	return &FilesystemStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root is the directory the HTTP file server should expose.
func (s *FilesystemStore) Root() string {
	return s.root
}

func (s *FilesystemStore) Put(_ context.Context, path, _ string, data []byte) (string, error) {
	if !filepath.IsLocal(path) {
		return "", fmt.Errorf("write object: path %q escapes the files dir", path)
	}
	full := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("write object: %w", sentinel.Conflict(path))
		}
		return "", fmt.Errorf("write object: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return s.baseURL + "/files/" + path, nil
}
