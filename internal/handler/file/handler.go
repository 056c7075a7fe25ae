package file

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cuidapet/clinic-api/pkg/errors"
	"github.com/cuidapet/clinic-api/pkg/httputil"
	"github.com/cuidapet/clinic-api/pkg/storage"
)

// Handler serves stored objects behind signed URLs.
type Handler struct {
	store storage.Store
}

func NewHandler(store storage.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/files/*key", h.ServeFile)
}

func (h *Handler) ServeFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	granted, err := h.store.VerifyToken(c.Query("token"))
	if err != nil || granted != key {
		httputil.RespondWithError(c, errors.Forbidden("invalid or expired link"))
		return
	}

	rc, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		if err == storage.ErrNotFound || err == storage.ErrInvalidKey {
			httputil.RespondWithError(c, errors.NotFound("file", err))
			return
		}
		httputil.RespondWithError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, max-age=300")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		_ = c.Error(err)
	}
}
