package photo

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuidapet/clinic-api/pkg/errors"
	"github.com/cuidapet/clinic-api/pkg/storage"
)

func newPhotos(t *testing.T) (*Photos, *storage.LocalStore) {
	t.Helper()
	store, err := storage.NewLocalStore(storage.Config{
		Root:    t.TempDir(),
		BaseURL: "http://localhost/api/v1/files",
		Secret:  "secret",
	})
	require.NoError(t, err)
	return New(store, time.Hour), store
}

func TestReplaceRemovesPrevious(t *testing.T) {
	ctx := context.Background()
	p, store := newPhotos(t)
	owner := uuid.New()

	first, err := p.Replace(ctx, "users", owner, "me.PNG", strings.NewReader("one"), "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first, "users/"+owner.String()+"/"))
	assert.True(t, strings.HasSuffix(first, ".png"))

	second, err := p.Replace(ctx, "users", owner, "me.jpg", strings.NewReader("two"), first)
	require.NoError(t, err)

	_, err = store.Open(ctx, first)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	rc, err := store.Open(ctx, second)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "two", string(body))
}

func TestReplaceRejectsUnknownType(t *testing.T) {
	p, _ := newPhotos(t)

	_, err := p.Replace(context.Background(), "pets", uuid.New(), "notes.txt", strings.NewReader("x"), "")
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestURL(t *testing.T) {
	p, store := newPhotos(t)

	assert.Empty(t, p.URL(""))

	u := p.URL("pets/a/b.png")
	require.NotEmpty(t, u)
	token := u[strings.Index(u, "token=")+len("token="):]
	// tokens are URL-safe base64, QueryEscape leaves them intact
	key, err := store.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "pets/a/b.png", key)
}
