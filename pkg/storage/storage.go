package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrNotFound     = errors.New("object not found")
	ErrInvalidKey   = errors.New("invalid object key")
	ErrInvalidToken = errors.New("invalid or expired signed url")
)

// Store keeps uploaded files (pet and profile photos) and issues
// time-limited links to them.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
	SignedURL(key string, ttl time.Duration) (string, error)
	// VerifyToken returns the object key a signed URL token grants.
	VerifyToken(token string) (string, error)
}
