package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medivet/vetcare-api/internal/handler"
	"github.com/medivet/vetcare-api/internal/middleware"
	"github.com/medivet/vetcare-api/internal/model"
	"github.com/medivet/vetcare-api/internal/service/patient"
	apperrors "github.com/medivet/vetcare-api/pkg/errors"
)

type Handler struct {
	svc  *patient.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *patient.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

// RegisterRoutes wires the patient CRUD. Creation and updates are staff
// actions; deletion is admin only. Assistants keep read access and notes,
// scoped to their assigned patients.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	staff := h.auth.RequireRole(model.RoleAdmin, model.RoleVet)

	patients := r.Group("/patients")
	{
		patients.POST("", staff, h.CreatePatient)
		patients.GET("", h.ListPatients)
		patients.GET("/:id", h.GetPatient)
		patients.PUT("/:id", staff, h.UpdatePatient)
		patients.DELETE("/:id", h.auth.RequireRole(model.RoleAdmin), h.DeletePatient)

		patients.POST("/:id/notes", h.AddNote)
		patients.GET("/:id/notes", h.ListNotes)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user context"))
		return
	}

	created, err := h.svc.CreatePatient(c.Request.Context(), &req, userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	p, err := h.svc.GetPatient(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	// Assistants may only read patients assigned to them.
	if c.GetString(middleware.ContextUserRole) == model.RoleAssistant {
		userID, ok := middleware.UserID(c)
		if !ok || p.CaretakerID != userID {
			handler.RespondError(c, apperrors.Forbidden("patient is not assigned to you"))
			return
		}
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.svc.UpdatePatient(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) DeletePatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	if err := h.svc.DeletePatient(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListPatients(c *gin.Context) {
	var filters model.PatientFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	// Assistants only see their own patients.
	if c.GetString(middleware.ContextUserRole) == model.RoleAssistant {
		if userID, ok := middleware.UserID(c); ok {
			filters.CaretakerID = &userID
		}
	}

	patients, err := h.svc.ListPatients(c.Request.Context(), &filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

func (h *Handler) AddNote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	var req model.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user context"))
		return
	}

	note, err := h.svc.AddNote(c.Request.Context(), id, &req, userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(note))
}

func (h *Handler) ListNotes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	notes, err := h.svc.ListNotes(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(notes))
}
