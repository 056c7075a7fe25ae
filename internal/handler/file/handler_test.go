package file

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuidapet/clinic-api/pkg/storage"
)

func setup(t *testing.T) (*gin.Engine, *storage.LocalStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewLocalStore(storage.Config{
		Root:    t.TempDir(),
		BaseURL: "http://localhost/api/v1/files",
		Secret:  "files-secret",
	})
	require.NoError(t, err)

	r := gin.New()
	NewHandler(store).RegisterRoutes(r.Group("/api/v1"))
	return r, store
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func signedPath(t *testing.T, store *storage.LocalStore, key string) string {
	t.Helper()
	signed, err := store.SignedURL(key, time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(signed)
	require.NoError(t, err)
	return u.RequestURI()
}

func TestServeFile(t *testing.T) {
	r, store := setup(t)
	require.NoError(t, store.Put(context.Background(), "pets/a/photo.png", strings.NewReader("png-bytes")))

	w := get(r, signedPath(t, store, "pets/a/photo.png"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestServeFileRejectsTokenForOtherKey(t *testing.T) {
	r, store := setup(t)
	require.NoError(t, store.Put(context.Background(), "pets/a/photo.png", strings.NewReader("a")))
	require.NoError(t, store.Put(context.Background(), "pets/b/photo.png", strings.NewReader("b")))

	path := signedPath(t, store, "pets/a/photo.png")
	path = strings.Replace(path, "pets/a/", "pets/b/", 1)

	assert.Equal(t, http.StatusForbidden, get(r, path).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/api/v1/files/pets/a/photo.png").Code)
}

func TestServeFileMissingObject(t *testing.T) {
	r, store := setup(t)

	w := get(r, signedPath(t, store, "pets/gone.png"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
