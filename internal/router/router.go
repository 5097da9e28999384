package router

import (
	"employee-management/internal/config"
	"employee-management/internal/handlers"
	"employee-management/internal/metrics"
	"employee-management/internal/middleware"
	"employee-management/internal/store"
	"employee-management/internal/upload"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Deps struct {
	Config  config.AppConfig
	Store   store.Store
	Uploads *upload.Disk
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

// New builds the engine with middleware and all routes.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(d.Log), d.Metrics.Middleware())

	if d.Config.CORSOrigin != "" {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = []string{d.Config.CORSOrigin}
		corsCfg.AddAllowHeaders("Authorization")
		r.Use(cors.New(corsCfg))
	}

	Setup(r, d)
	return r
}

func Setup(r *gin.Engine, d Deps) {
	ah := handlers.NewAuthHandler(d.Store, d.Config.JWTSecret, d.Log)
	eh := handlers.NewEmployeeHandler(d.Store, d.Uploads, d.Log, d.Metrics)

	r.GET("/health", handlers.Health(d.Store))
	r.GET("/metrics", d.Metrics.Handler())
	r.Static(upload.URLPrefix, d.Uploads.Dir())

	api := r.Group("/api")
	api.POST("/login", ah.Login)

	employees := api.Group("/employees")
	if d.Config.RequireAuth {
		employees.Use(middleware.NewAuthMiddleware(d.Store, d.Config.JWTSecret).Authenticate())
	}
	employees.POST("", eh.CreateEmployee)
	employees.GET("", eh.ListEmployees)
	employees.GET("/:id", eh.GetEmployeeByID)
	employees.PUT("/:id", eh.UpdateEmployee)
	employees.DELETE("/:id", eh.DeleteEmployee)
	employees.POST("/:id/delete-courses", eh.DeleteCourses)
}
