package treatment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medivet/vetcare-api/internal/handler"
	"github.com/medivet/vetcare-api/internal/middleware"
	"github.com/medivet/vetcare-api/internal/model"
	"github.com/medivet/vetcare-api/internal/service/treatment"
)

type Handler struct {
	svc  *treatment.Service
	auth *middleware.AuthMiddleware
}

func NewHandler(svc *treatment.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{svc: svc, auth: auth}
}

// RegisterRoutes wires treatments and doses. Prescribing, updating and
// cancelling are staff actions; deletion and the reset hook are admin only.
// Administering stays open to every role since assistants record the doses
// they give.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	staff := h.auth.RequireRole(model.RoleAdmin, model.RoleVet)
	admin := h.auth.RequireRole(model.RoleAdmin)

	r.POST("/patients/:id/treatments", staff, h.CreateTreatment)
	r.GET("/patients/:id/treatments", h.ListTreatments)

	treatments := r.Group("/treatments")
	{
		treatments.GET("/:id", h.GetTreatment)
		treatments.PUT("/:id", staff, h.UpdateTreatment)
		treatments.DELETE("/:id", admin, h.DeleteTreatment)
		treatments.POST("/:id/cancel", staff, h.CancelTreatment)
	}

	doses := r.Group("/doses")
	{
		doses.POST("/:id/administer", h.AdministerDose)
		doses.POST("/:id/reset", admin, h.ResetDose)
	}
}

func (h *Handler) CreateTreatment(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	var req model.CreateTreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user context"))
		return
	}

	created, err := h.svc.CreateTreatment(c.Request.Context(), patientID, &req, userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) ListTreatments(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	treatments, err := h.svc.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(treatments))
}

func (h *Handler) GetTreatment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid treatment ID"))
		return
	}

	t, err := h.svc.GetTreatment(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(t))
}

func (h *Handler) UpdateTreatment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid treatment ID"))
		return
	}

	var req model.UpdateTreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.svc.UpdateTreatment(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) DeleteTreatment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid treatment ID"))
		return
	}

	if err := h.svc.DeleteTreatment(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) CancelTreatment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid treatment ID"))
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user context"))
		return
	}

	if err := h.svc.CancelTreatment(c.Request.Context(), id, userID); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) AdministerDose(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid dose ID"))
		return
	}

	// notes are optional, an empty body is fine
	var req model.AdministerDoseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user context"))
		return
	}

	dose, err := h.svc.AdministerDose(c.Request.Context(), id, userID, req.Notes)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(dose))
}

// ResetDose rewinds a dose to pending with its schedule pulled into the past,
// so the next poll tick picks it up. Operational tool for verifying the
// notification pipeline end to end.
func (h *Handler) ResetDose(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid dose ID"))
		return
	}

	dose, err := h.svc.ResetDose(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(dose))
}
