package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studiorit/internal/handlers"
	"studiorit/internal/middleware"
	"studiorit/internal/models"
)

// Handlers groups everything SetupRoutes mounts. Integrations may be nil.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Users        *handlers.UserHandler
	Projects     *handlers.ProjectHandler
	Tasks        *handlers.TaskHandler
	Integrations *handlers.IntegrationsHandler
}

func SetupRoutes(r *gin.Engine, h Handlers, authMiddleware gin.HandlerFunc) *gin.Engine {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")

	// ---- public
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	if h.Integrations != nil {
		api.POST("/integrations/telegram/webhook", h.Integrations.Webhook)
	}

	// ---- protected
	protected := api.Group("", authMiddleware)

	auth := protected.Group("/auth")
	{
		auth.GET("/profile", h.Auth.Profile)
		auth.PUT("/update-role", middleware.RequireRank(models.RoleAdmin), h.Auth.UpdateRole)
	}

	users := protected.Group("/users")
	{
		users.GET("/admin", middleware.RequireRank(models.RoleAdmin), h.Users.Admin)
		users.GET("/coordinator", h.Users.Coordinator)
		users.GET("/user", h.Users.User)
	}

	projects := protected.Group("/projects")
	{
		projects.GET("", h.Projects.List)
		projects.POST("", middleware.RequireRank(models.RoleCoordinator), h.Projects.Create)
		projects.GET("/:id", h.Projects.Get)
		projects.PUT("/:id", h.Projects.Update)
		projects.DELETE("/:id", h.Projects.Delete)
		projects.POST("/:id/team", h.Projects.AddTeamMember)
		projects.DELETE("/:id/team", h.Projects.RemoveTeamMember)
		projects.POST("/:id/notes", h.Projects.AddNote)
		projects.POST("/:id/references", h.Projects.AddReference)
	}

	tasks := protected.Group("/tasks")
	{
		tasks.POST("", h.Tasks.Create)
		tasks.GET("", h.Tasks.List)
		tasks.GET("/:id", h.Tasks.Get)
		tasks.PUT("/:id", h.Tasks.Update)
		tasks.DELETE("/:id", h.Tasks.Delete)
		tasks.POST("/:id/comments", h.Tasks.AddComment)
		tasks.POST("/:id/submit", h.Tasks.Submit)
		tasks.POST("/:id/approval", h.Tasks.Approval)
		tasks.POST("/:id/revisions", h.Tasks.AddRevision)
		tasks.GET("/:id/report", h.Tasks.Report)
	}

	if h.Integrations != nil {
		protected.POST("/integrations/telegram/request-link", h.Integrations.RequestTelegramLink)
	}
	return r
}
