package router

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	apiHandler "github.com/fastygo/taskpulse/api/handler"
)

type Handlers struct {
	Auth      *apiHandler.AuthHandler
	Task      *apiHandler.TaskHandler
	Analytics *apiHandler.AnalyticsHandler
	Scheduler *apiHandler.SchedulerHandler
	Health    *apiHandler.HealthHandler
}

// New mounts the reference task service API under /api.
func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/health", handlers.Health.Check)
	api.POST("/auth/login", handlers.Auth.Login)

	api.GET("/tasks", authMiddleware(handlers.Task.GetTasks))
	api.POST("/tasks", authMiddleware(handlers.Task.CreateTask))
	api.GET("/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	api.PUT("/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	api.DELETE("/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	api.POST("/tasks/{id}/complete", authMiddleware(handlers.Task.CompleteTask))

	api.GET("/analytics/dashboard", authMiddleware(handlers.Analytics.Dashboard))
	api.GET("/analytics/insights", authMiddleware(handlers.Analytics.Insights))
	api.GET("/analytics/heatmap", authMiddleware(handlers.Analytics.Heatmap))
	api.GET("/analytics/productivity", authMiddleware(handlers.Analytics.Productivity))
	api.POST("/analytics/events", authMiddleware(handlers.Analytics.TrackEvent))

	api.POST("/scheduler/generate", authMiddleware(handlers.Scheduler.Generate))
	api.POST("/scheduler/reschedule", authMiddleware(handlers.Scheduler.Reschedule))

	return r
}
