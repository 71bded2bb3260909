// Package fs stores blobs on the local filesystem under a root directory.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelibr/assetdav/pkg/blob"
)

// FSBlobStore reads and writes blobs at root/ab/cd/<hash>.
type FSBlobStore struct {
	root string
}

var _ blob.WritableStore = (*FSBlobStore)(nil)

// NewFSBlobStore creates the root directory if needed.
func NewFSBlobStore(ctx context.Context, root string) (*FSBlobStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if root == "" {
		return nil, fmt.Errorf("blob root path is required")
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}

	return &FSBlobStore{root: root}, nil
}

// Root returns the configured root directory.
func (s *FSBlobStore) Root() string {
	return s.root
}

func (s *FSBlobStore) filePath(hash string) (string, error) {
	rel, err := blob.Path(hash)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), nil
}

func (s *FSBlobStore) Open(ctx context.Context, hash string) (blob.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := s.filePath(hash)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s: %w", hash, blob.ErrBlobNotFound)
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

func (s *FSBlobStore) Size(ctx context.Context, hash string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p, err := s.filePath(hash)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("blob %s: %w", hash, blob.ErrBlobNotFound)
		}
		return 0, fmt.Errorf("failed to stat blob: %w", err)
	}
	return info.Size(), nil
}

func (s *FSBlobStore) Exists(ctx context.Context, hash string) (bool, error) {
	_, err := s.Size(ctx, hash)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

// Put writes data to a temporary file in the target bucket and renames it
// into place, so readers never observe a partial blob.
func (s *FSBlobStore) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	hash := blob.Hash(data)
	p, err := s.filePath(hash)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(p); err == nil {
		return hash, nil
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create blob bucket: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp blob: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close blob: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to commit blob: %w", err)
	}
	return hash, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, blob.ErrBlobNotFound)
}
