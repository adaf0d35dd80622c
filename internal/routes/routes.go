package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"athleteapi/internal/handlers"
	"athleteapi/internal/middleware"
)

type Handlers struct {
	Auth  *handlers.AuthHandler
	Admin *handlers.AdminHandler
	User  *handlers.UserHandler
	Info  *handlers.InfoHandler
}

// SetupRoutes installs the access gate in front of every route, including
// unmatched ones; which paths skip authentication is decided by the gate's
// exemption list alone.
func SetupRoutes(r *gin.Engine, gate *middleware.AccessGate, h Handlers, metrics http.Handler) *gin.Engine {
	r.Use(gate.Middleware())

	r.GET("/", h.Info.Info)
	r.GET("/healthz", h.Info.Health)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/v1")
	{
		v1.GET("/", h.Info.Info)

		auth := v1.Group("/auth")
		{
			auth.POST("/checkphone", h.Auth.CheckPhone)
			auth.POST("/checkcode", h.Auth.CheckCode)
			auth.POST("/guest", h.Auth.Guest)
		}

		users := v1.Group("/users")
		{
			users.GET("/me", h.User.Me)
		}
	}

	dev := r.Group("/dev")
	{
		dev.POST("/tokens/ban", h.Admin.BanToken)
	}

	return r
}
