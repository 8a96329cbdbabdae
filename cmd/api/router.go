package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/auth"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/middleware"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/tasks"
)

// API holds the handlers' dependencies
type API struct {
	auth   *auth.Service
	tasks  *tasks.Service
	checks map[string]func(context.Context) error
	logger *logging.Logger
}

func setupRouter(api *API, p *middleware.Pipeline, trustedProxies []string) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.HandleMethodNotAllowed = true
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": middleware.DetailNotFound})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": fmt.Sprintf("Method %q not allowed.", c.Request.Method)})
	})

	// Health check
	router.GET("/health", api.healthCheck)

	public := router.Group("", p.Public()...)
	{
		public.POST("/auth/users/", api.register)
		public.POST("/auth/jwt/create/", api.createToken)
		public.POST("/auth/jwt/refresh/", api.refreshToken)
		public.POST("/auth/jwt/verify/", api.verifyToken)
	}

	protected := router.Group("", p.Protected()...)
	{
		// Identities
		protected.GET("/auth/users/", api.listUsers)
		protected.GET("/auth/users/me/", api.getMe)
		protected.PATCH("/auth/users/me/", api.updateMe)
		protected.GET("/auth/users/:id/", api.getUser)
		protected.PATCH("/auth/users/:id/", api.updateUser)

		// Tasks
		protected.GET("/api/tasks/", api.listTasks)
		protected.POST("/api/tasks/", api.createTask)
		protected.GET("/api/tasks/:id/", api.getTask)
		protected.PUT("/api/tasks/:id/", api.updateTask)
		protected.PATCH("/api/tasks/:id/", api.partialUpdateTask)
		protected.DELETE("/api/tasks/:id/", api.deleteTask)
	}

	return router, nil
}

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(api.checks))
	for name, check := range api.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}
