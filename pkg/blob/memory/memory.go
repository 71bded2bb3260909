// Package memory provides an in-memory blob store for tests and demos.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/modelibr/assetdav/pkg/blob"
)

// MemoryBlobStore keeps blobs in a map. Safe for concurrent use.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

var _ blob.WritableStore = (*MemoryBlobStore)(nil)

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

type reader struct {
	*bytes.Reader
}

func (reader) Close() error { return nil }

func (s *MemoryBlobStore) Open(ctx context.Context, hash string) (blob.Reader, error) {
	data, err := s.get(ctx, hash)
	if err != nil {
		return nil, err
	}
	return reader{bytes.NewReader(data)}, nil
}

func (s *MemoryBlobStore) Size(ctx context.Context, hash string) (int64, error) {
	data, err := s.get(ctx, hash)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func (s *MemoryBlobStore) Exists(ctx context.Context, hash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	h, err := blob.Normalize(hash)
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[h]
	return ok, nil
}

func (s *MemoryBlobStore) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	h := blob.Hash(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[h]; !ok {
		s.blobs[h] = bytes.Clone(data)
	}
	return h, nil
}

// PutRaw stores data under an arbitrary hash, bypassing hashing. Tests use it
// to model a catalog row whose hash does not match its content.
func (s *MemoryBlobStore) PutRaw(hash string, data []byte) error {
	h, err := blob.Normalize(hash)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[h] = bytes.Clone(data)
	return nil
}

func (s *MemoryBlobStore) get(ctx context.Context, hash string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := blob.Normalize(hash)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[h]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", h, blob.ErrBlobNotFound)
	}
	return data, nil
}
