package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_dispatch/internal/controllers"
)

func DriverRoutes(r *gin.Engine, auth gin.HandlerFunc, dc *controllers.DriverController) {
	driver := r.Group("/drivers")
	driver.Use(auth)
	{
		driver.GET("", dc.List)
		driver.POST("", dc.Create)
		driver.GET("/:id", dc.Get)
		driver.PUT("/:id", dc.Update)
		driver.POST("/:id/location", dc.UpdateLocation)
		driver.GET("/:id/track", dc.Track)
	}
}
