package routes

import (
	"github.com/gin-gonic/gin"

	"rideshare/internal/controllers"
)

func AuthRoutes(r *gin.Engine, auth *controllers.AuthController) {
	group := r.Group("/auth")
	{
		group.POST("/signup", auth.Signup)
		group.POST("/login", auth.Login)
	}
}
