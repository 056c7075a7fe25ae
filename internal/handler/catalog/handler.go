package catalog

import (
	"github.com/gin-gonic/gin"

	"github.com/cuidapet/clinic-api/internal/handler"
	"github.com/cuidapet/clinic-api/internal/middleware"
	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/internal/service/catalog"
	"github.com/cuidapet/clinic-api/pkg/httputil"
)

type Handler struct {
	svc    *catalog.Service
	authMw *middleware.AuthMiddleware
}

func NewHandler(svc *catalog.Service, authMw *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, authMw: authMw}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	services := r.Group("/services", h.authMw.Authenticate())
	{
		services.GET("", h.ListServices)
		services.GET("/:id", h.GetService)

		admin := services.Group("", h.authMw.RequireRole(model.RoleAdmin))
		admin.POST("", h.CreateService)
		admin.PUT("/:id", h.UpdateService)
		admin.DELETE("/:id", h.DeleteService)
	}
}

func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.svc.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, services)
}

func (h *Handler) GetService(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	service, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, service)
}

func (h *Handler) CreateService(c *gin.Context) {
	var req model.CreateServiceRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	service, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, service)
}

func (h *Handler) UpdateService(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateServiceRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	service, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, service)
}

func (h *Handler) DeleteService(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "deleted": true})
}
