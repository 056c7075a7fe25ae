// Package photo stores profile and pet pictures in the file store.
package photo

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cuidapet/clinic-api/pkg/errors"
	"github.com/cuidapet/clinic-api/pkg/storage"
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type Photos struct {
	store storage.Store
	ttl   time.Duration
}

func New(store storage.Store, ttl time.Duration) *Photos {
	return &Photos{store: store, ttl: ttl}
}

// Replace stores a new picture under folder/owner and removes previous.
// It returns the key of the stored object.
func (p *Photos) Replace(ctx context.Context, folder string, owner uuid.UUID, filename string, r io.Reader, previous string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	if !allowedExt[ext] {
		return "", errors.BadRequest(fmt.Sprintf("unsupported image type %q", ext), nil)
	}

	key := path.Join(folder, owner.String(), uuid.New().String()+ext)
	if err := p.store.Put(ctx, key, r); err != nil {
		return "", fmt.Errorf("failed to store photo: %w", err)
	}

	if previous != "" && previous != key {
		if err := p.store.Remove(ctx, previous); err != nil && err != storage.ErrNotFound {
			log.Warn().Err(err).Str("key", previous).Msg("failed to remove previous photo")
		}
	}
	return key, nil
}

// Remove deletes a stored picture; a missing object is not an error.
func (p *Photos) Remove(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := p.store.Remove(ctx, key); err != nil && err != storage.ErrNotFound {
		log.Warn().Err(err).Str("key", key).Msg("failed to remove photo")
	}
}

// URL returns a signed link to key, or "" when there is no picture.
func (p *Photos) URL(key string) string {
	if key == "" {
		return ""
	}
	u, err := p.store.SignedURL(key, p.ttl)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to sign photo url")
		return ""
	}
	return u
}
