package pet

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cuidapet/clinic-api/internal/handler"
	"github.com/cuidapet/clinic-api/internal/middleware"
	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/internal/service/pet"
	"github.com/cuidapet/clinic-api/pkg/errors"
	"github.com/cuidapet/clinic-api/pkg/httputil"
)

type Handler struct {
	svc       *pet.Service
	authMw    *middleware.AuthMiddleware
	maxUpload int64
}

func NewHandler(svc *pet.Service, authMw *middleware.AuthMiddleware, maxUpload int64) *Handler {
	return &Handler{svc: svc, authMw: authMw, maxUpload: maxUpload}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	pets := r.Group("/pets", h.authMw.Authenticate())
	{
		pets.GET("", h.ListPets)
		pets.POST("", h.CreatePet)
		pets.GET("/:id", h.GetPet)
		pets.PUT("/:id", h.UpdatePet)
		pets.DELETE("/:id", h.DeletePet)
		pets.POST("/:id/photo", middleware.BodyLimit(h.maxUpload), h.UploadPhoto)
	}
}

func (h *Handler) CreatePet(c *gin.Context) {
	var req model.CreatePetRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	created, err := h.svc.Create(c.Request.Context(), middleware.ActorFrom(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

func (h *Handler) GetPet(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	found, err := h.svc.Get(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, found)
}

func (h *Handler) ListPets(c *gin.Context) {
	ownerID, ok := handler.QueryID(c, "owner_id")
	if !ok {
		return
	}
	filters := &model.PetFilters{
		OwnerID: ownerID,
		Species: strings.TrimSpace(c.Query("species")),
	}

	pets, err := h.svc.List(c.Request.Context(), middleware.ActorFrom(c), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pets)
}

func (h *Handler) UpdatePet(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.UpdatePetRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), middleware.ActorFrom(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) DeletePet(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "deleted": true})
}

func (h *Handler) UploadPhoto(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	file, err := c.FormFile("photo")
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

	updated, err := h.svc.UploadPhoto(c.Request.Context(), middleware.ActorFrom(c), id, file.Filename, f)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}
