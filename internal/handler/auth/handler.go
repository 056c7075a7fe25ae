package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/cuidapet/clinic-api/internal/handler"
	"github.com/cuidapet/clinic-api/internal/middleware"
	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/internal/service/auth"
	"github.com/cuidapet/clinic-api/pkg/httputil"
)

type Handler struct {
	svc     *auth.Service
	authMw  *middleware.AuthMiddleware
	limiter gin.HandlerFunc
}

// NewHandler takes the limiter applied to the credential endpoints; nil
// disables it.
func NewHandler(svc *auth.Service, authMw *middleware.AuthMiddleware, limiter gin.HandlerFunc) *Handler {
	if limiter == nil {
		limiter = func(c *gin.Context) { c.Next() }
	}
	return &Handler{svc: svc, authMw: authMw, limiter: limiter}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.limiter, h.SignUp)
		auth.POST("/signin", h.limiter, h.SignIn)
		auth.POST("/signout", h.authMw.Authenticate(), h.SignOut)
		auth.GET("/session", h.authMw.Authenticate(), h.Session)
	}
}

func (h *Handler) SignUp(c *gin.Context) {
	var req model.SignUpRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	user, err := h.svc.SignUp(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, user)
}

func (h *Handler) SignIn(c *gin.Context) {
	var req model.SignInRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	tokens, err := h.svc.SignIn(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tokens)
}

func (h *Handler) SignOut(c *gin.Context) {
	if err := h.svc.SignOut(c.Request.Context(), c.GetString(middleware.ContextToken)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"signed_out": true})
}

func (h *Handler) Session(c *gin.Context) {
	session, err := h.svc.Session(c.Request.Context(), c.GetString(middleware.ContextToken))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, session)
}
