// Package blob provides content-addressable storage for uploaded files.
//
// Blobs are keyed by the lower-case hex SHA-256 of their content and laid out
// in two levels of buckets: the first two hex characters, then the next two,
// then the full hash (ab/cd/abcd...). Backends differ only in where that path
// lives: local disk, memory or an S3 bucket.
package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	ErrBlobNotFound = errors.New("blob not found")

	ErrInvalidHash = errors.New("invalid blob hash")
)

// Reader is a seekable blob stream. Callers must Close it.
type Reader interface {
	io.ReadSeekCloser
}

// Store reads blobs by hash.
type Store interface {
	// Open returns a seekable stream over the blob. A missing blob is
	// reported as ErrBlobNotFound.
	Open(ctx context.Context, hash string) (Reader, error)

	// Size returns the blob length in bytes.
	Size(ctx context.Context, hash string) (int64, error)

	// Exists reports whether the blob is present.
	Exists(ctx context.Context, hash string) (bool, error)
}

// WritableStore also accepts new blobs.
type WritableStore interface {
	Store

	// Put stores data under its SHA-256 hash and returns the hash. Storing
	// identical content twice is a no-op.
	Put(ctx context.Context, data []byte) (string, error)
}

// Hash returns the lower-case hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Normalize lower-cases hash and checks that it is usable as a blob key:
// at least four hexadecimal characters.
func Normalize(hash string) (string, error) {
	h := strings.ToLower(strings.TrimSpace(hash))
	if len(h) < 4 {
		return "", fmt.Errorf("%w: %q too short", ErrInvalidHash, hash)
	}
	if _, err := hex.DecodeString(padEven(h)); err != nil {
		return "", fmt.Errorf("%w: %q is not hexadecimal", ErrInvalidHash, hash)
	}
	return h, nil
}

func padEven(h string) string {
	if len(h)%2 == 1 {
		return h + "0"
	}
	return h
}

// Path returns the slash-separated relative location of a blob:
// hash[0:2]/hash[2:4]/hash, using the lower-cased hash.
func Path(hash string) (string, error) {
	h, err := Normalize(hash)
	if err != nil {
		return "", err
	}
	return path.Join(h[0:2], h[2:4], h), nil
}
