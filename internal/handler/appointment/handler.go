package appointment

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cuidapet/clinic-api/internal/handler"
	"github.com/cuidapet/clinic-api/internal/middleware"
	"github.com/cuidapet/clinic-api/internal/model"
	"github.com/cuidapet/clinic-api/internal/service/appointment"
	"github.com/cuidapet/clinic-api/pkg/errors"
	"github.com/cuidapet/clinic-api/pkg/httputil"
)

type Handler struct {
	svc    *appointment.Service
	authMw *middleware.AuthMiddleware
}

func NewHandler(svc *appointment.Service, authMw *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, authMw: authMw}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments", h.authMw.Authenticate())
	{
		appointments.GET("", h.ListAppointments)
		appointments.POST("", h.CreateAppointment)
		appointments.GET("/availability", h.Availability)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.DELETE("/:id", h.DeleteAppointment)
		appointments.POST("/:id/cancel", h.CancelAppointment)
		appointments.POST("/:id/cycle",
			h.authMw.RequireRole(model.RoleEmployee, model.RoleAdmin), h.CycleStatus)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
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

func (h *Handler) GetAppointment(c *gin.Context) {
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

func (h *Handler) ListAppointments(c *gin.Context) {
	filters := &model.AppointmentFilters{}

	var ok bool
	if filters.PetID, ok = handler.QueryID(c, "pet_id"); !ok {
		return
	}
	if filters.OwnerID, ok = handler.QueryID(c, "owner_id"); !ok {
		return
	}
	if date := c.Query("date"); date != "" {
		if !model.ValidDate(date) {
			httputil.RespondWithError(c, errors.BadRequest("date must be YYYY-MM-DD", nil))
			return
		}
		filters.Date = date
	}
	if raw := c.Query("status"); raw != "" {
		status, err := model.ParseAppointmentStatus(raw)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest(err.Error(), err))
			return
		}
		filters.Status = status
	}

	appointments, err := h.svc.List(c.Request.Context(), middleware.ActorFrom(c), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateAppointmentRequest
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

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	cancelled, err := h.svc.Cancel(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cancelled)
}

func (h *Handler) CycleStatus(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	updated, err := h.svc.CycleStatus(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
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

func (h *Handler) Availability(c *gin.Context) {
	serviceID, ok := handler.QueryID(c, "service_id")
	if !ok {
		return
	}
	if serviceID == uuid.Nil {
		httputil.RespondWithError(c, errors.BadRequest("service_id is required", nil))
		return
	}

	slots, err := h.svc.Availability(c.Request.Context(), c.Query("date"), serviceID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}
