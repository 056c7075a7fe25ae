package user

import (
	"github.com/gin-gonic/gin"

	"github.com/cuidapet/clinic-api/internal/handler"
	"github.com/cuidapet/clinic-api/internal/middleware"
	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/internal/service/user"
	"github.com/cuidapet/clinic-api/pkg/errors"
	"github.com/cuidapet/clinic-api/pkg/httputil"
)

const photoField = "photo"

type Handler struct {
	svc       *user.Service
	authMw    *middleware.AuthMiddleware
	maxUpload int64
}

func NewHandler(svc *user.Service, authMw *middleware.AuthMiddleware, maxUpload int64) *Handler {
	return &Handler{svc: svc, authMw: authMw, maxUpload: maxUpload}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	profile := r.Group("/profile", h.authMw.Authenticate())
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
		profile.POST("/photo", middleware.BodyLimit(h.maxUpload), h.UploadPhoto)
	}

	users := r.Group("/users", h.authMw.Authenticate(), h.authMw.RequireRole(model.RoleAdmin))
	{
		users.GET("", h.ListUsers)
		users.PUT("/:id/role", h.ChangeRole)
		users.POST("/delete", h.DeleteUsers)
	}
}

func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.svc.GetProfile(c.Request.Context(), middleware.ActorFrom(c).UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req model.UpdateProfileRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	profile, err := h.svc.UpdateProfile(c.Request.Context(), middleware.ActorFrom(c).UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}

func (h *Handler) UploadPhoto(c *gin.Context) {
	file, err := c.FormFile(photoField)
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("multipart field \"photo\" is required", err))
		return
	}
	f, err := file.Open()
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("unreadable upload", err))
		return
	}
	defer f.Close()

	profile, err := h.svc.UploadPhoto(c.Request.Context(), middleware.ActorFrom(c).UserID, file.Filename, f)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}

func (h *Handler) ListUsers(c *gin.Context) {
	var filters model.UserFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid filters", err))
		return
	}
	if filters.Role != "" {
		filters.Role = model.ParseRole(string(filters.Role))
	}

	users, err := h.svc.List(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, users)
}

func (h *Handler) ChangeRole(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.ChangeRoleRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	updated, err := h.svc.ChangeRole(c.Request.Context(), middleware.ActorFrom(c), id, model.ParseRole(req.Role))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

// DeleteUsers always answers 200 with per-user outcomes; partial failure
// is reported in the body.
func (h *Handler) DeleteUsers(c *gin.Context) {
	var req model.BulkDeleteUsersRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result := h.svc.DeleteMany(c.Request.Context(), middleware.ActorFrom(c), req.UserIDs)
	httputil.RespondWithSuccess(c, result)
}
