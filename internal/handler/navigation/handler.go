package navigation

import (
	"github.com/gin-gonic/gin"

	"github.com/cuidapet/clinic-api/internal/middleware"
	"github.com/cuidapet/clinic-api/internal/service/navigation"
	"github.com/cuidapet/clinic-api/pkg/httputil"
)

type Handler struct {
	authMw *middleware.AuthMiddleware
}

func NewHandler(authMw *middleware.AuthMiddleware) *Handler {
	return &Handler{authMw: authMw}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/navigation", h.authMw.OptionalAuth(), h.GetNavigation)
}

func (h *Handler) GetNavigation(c *gin.Context) {
	httputil.RespondWithSuccess(c, navigation.For(middleware.ActorFrom(c).Role))
}
