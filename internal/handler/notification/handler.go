package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medivet/vetcare-api/internal/handler"
	"github.com/medivet/vetcare-api/internal/middleware"
	"github.com/medivet/vetcare-api/internal/model"
	"github.com/medivet/vetcare-api/internal/service/notification"
	"github.com/medivet/vetcare-api/pkg/scheduler"
)

type Handler struct {
	sched   *scheduler.Scheduler
	history *notification.History
	auth    *middleware.AuthMiddleware
}

func NewHandler(sched *scheduler.Scheduler, history *notification.History, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{sched: sched, history: history, auth: auth}
}

// RegisterRoutes wires the check trigger and status. Firing a check is a
// staff action; status stays readable for every authenticated role.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.POST("/check", h.auth.RequireRole(model.RoleAdmin, model.RoleVet), h.TriggerCheck)
		notifications.GET("/status", h.Status)
	}
}

// TriggerCheck fires a poll immediately. It goes through the same
// single-flight gate as the timer, so a tick already in progress wins and
// the request reports 409.
func (h *Handler) TriggerCheck(c *gin.Context) {
	if !h.sched.Trigger(c.Request.Context()) {
		c.JSON(http.StatusConflict, handler.NewErrorResponse("a check is already running"))
		return
	}

	record, _ := h.history.LastCheck()
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"checked_at":    record.Timestamp,
		"pending_count": record.PendingCount,
	}))
}

func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"running":  h.sched.Running(),
		"next_run": h.sched.NextRun(),
		"last_run": h.sched.LastRun(),
		"checks":   h.history.Records(),
	}))
}
