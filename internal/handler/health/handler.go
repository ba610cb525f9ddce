package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/medivet/vetcare-api/internal/service/notification"
	"github.com/medivet/vetcare-api/pkg/scheduler"
)

type Handler struct {
	db      *sqlx.DB
	sched   *scheduler.Scheduler
	history *notification.History
}

func NewHandler(db *sqlx.DB, sched *scheduler.Scheduler, history *notification.History) *Handler {
	return &Handler{
		db:      db,
		sched:   sched,
		history: history,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("", h.HealthCheck)
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

// HealthCheck reports overall status, including whether the notification
// scheduler is running and when it last looked for due doses.
func (h *Handler) HealthCheck(c *gin.Context) {
	payload := gin.H{
		"status":            "UP",
		"time":              time.Now().UTC(),
		"scheduler_running": h.sched.Running(),
	}

	if next := h.sched.NextRun(); !next.IsZero() {
		payload["next_check"] = next
	}
	if record, ok := h.history.LastCheck(); ok {
		payload["last_check"] = record.Timestamp
		payload["pending_doses"] = record.PendingCount
	}

	if err := h.db.Ping(); err != nil {
		payload["status"] = "DOWN"
		payload["reason"] = "database connection failed"
		c.JSON(http.StatusServiceUnavailable, payload)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"reason": "database connection failed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
