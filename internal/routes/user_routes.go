package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_dispatch/internal/controllers"
)

func UserRoutes(r *gin.Engine, auth gin.HandlerFunc, uc *controllers.UserController) {
	users := r.Group("/users")
	users.Use(auth)
	{
		users.GET("", uc.List)
		users.POST("", uc.Create)
		users.GET("/:id", uc.Get)
		users.PUT("/:id", uc.Update)
	}
}
