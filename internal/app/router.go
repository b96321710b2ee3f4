package app

import (
	"vetlms_backend/docs"
	"vetlms_backend/internal/config"
	"vetlms_backend/internal/middleware"
	"vetlms_backend/internal/model"
	"vetlms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	if cfg.Server.Mode != "release" {
		docs.SwaggerInfo.Host = ""
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))
	}

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. public
	a.registerPublicRoutes(router, c)

	// 2. any signed-in user
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerEmployeeRoutes(authGroup, c)
		a.registerSupervisorRoutes(authGroup, c)
		a.registerAdminRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerEmployeeRoutes(r *gin.RouterGroup, c *controllers) {
	r.GET("/profile", c.auth.Profile)
	r.GET("/courses/:id", c.course.Get)

	assignments := r.Group("/assignments")
	{
		assignments.GET("", c.assignment.ListMine)
		assignments.POST("/:id/start", c.assignment.Start)
		assignments.POST("/:id/viewing/start", c.assignment.StartViewing)
		assignments.POST("/:id/viewing/confirm", c.assignment.ConfirmViewing)
	}

	records := r.Group("/training-records")
	{
		records.POST("", c.trainingRecord.Submit)
		records.GET("", c.trainingRecord.MyRecords)
	}
}

func (a *App) registerSupervisorRoutes(r *gin.RouterGroup, c *controllers) {
	supervisor := r.Group("/supervisor")
	supervisor.Use(middleware.RequireRole(model.UserRole.CanApprove))
	{
		supervisor.GET("/training-records/pending", c.trainingRecord.ListPending)
		supervisor.POST("/training-records/:id/approve", c.trainingRecord.Approve)
		supervisor.POST("/training-records/:id/deny", c.trainingRecord.Deny)
	}
}

func (a *App) registerAdminRoutes(r *gin.RouterGroup, c *controllers) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireRole(model.UserRole.CanManageCourses))
	{
		admin.GET("/courses", c.course.List)
		admin.POST("/courses", c.course.Create)
		admin.PUT("/courses/:id", c.course.Update)
		admin.DELETE("/courses/:id", c.course.Delete)
		admin.POST("/courses/:id/probe-duration", c.course.ProbeDuration)
		admin.POST("/courses/:id/assign", c.course.Assign)
	}
}
