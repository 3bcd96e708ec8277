package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "docflow/docs"
	"docflow/internal/auth"
	"docflow/internal/config"
	"docflow/internal/handler"
	"docflow/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	logger *zap.Logger,
	authSvc auth.Service,
	authH *handler.AuthHandler,
	workflowH *handler.WorkflowHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	if !cfg.Server.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	protected.POST("/auth/logout", authH.Logout)

	wf := protected.Group("/workflow")
	wf.GET("", workflowH.Get)
	wf.POST("/file", workflowH.SelectFile)
	wf.GET("/file", workflowH.File)
	wf.POST("/next", workflowH.Next)
	wf.POST("/back", workflowH.Back)
	wf.POST("/confirm", workflowH.Confirm)
	wf.PATCH("/document/fields", workflowH.EditField)
	wf.GET("/document/export", workflowH.Export)

	return r
}
