package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medivet/vetcare-api/internal/middleware"
	"github.com/medivet/vetcare-api/internal/model"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware

	authH         Handler
	userH         Handler
	patientH      Handler
	treatmentH    Handler
	notificationH Handler
	healthH       Handler
}

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	CORSConfig     middleware.CORSConfig
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH Handler,
	userH Handler,
	patientH Handler,
	treatmentH Handler,
	notificationH Handler,
	healthH Handler,
	cfg Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:        engine,
		auth:          auth,
		authH:         authH,
		userH:         userH,
		patientH:      patientH,
		treatmentH:    treatmentH,
		notificationH: notificationH,
		healthH:       healthH,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
	)
	engine.Use(middleware.CORS(cfg.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	r.healthH.RegisterRoutes(api)
	r.authH.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.patientH.RegisterRoutes(protected)
	r.treatmentH.RegisterRoutes(protected)
	r.notificationH.RegisterRoutes(protected)

	// User management is admin territory.
	admin := protected.Group("")
	admin.Use(r.auth.RequireRole(model.RoleAdmin))
	r.userH.RegisterRoutes(admin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
