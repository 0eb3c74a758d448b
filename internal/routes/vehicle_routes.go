package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_dispatch/internal/controllers"
)

func VehicleRoutes(r *gin.Engine, auth gin.HandlerFunc, vc *controllers.VehicleController) {
	vehicle := r.Group("/vehicles")
	vehicle.Use(auth)
	{
		vehicle.GET("", vc.List)
		vehicle.POST("", vc.Create)
		vehicle.GET("/:id", vc.Get)
		vehicle.PUT("/:id", vc.Update)
		vehicle.DELETE("/:id", vc.Delete)
		vehicle.GET("/:id/maintenance", vc.ListMaintenance)
		vehicle.POST("/:id/maintenance", vc.AddMaintenance)
		vehicle.GET("/:id/fuel", vc.ListFuel)
		vehicle.POST("/:id/fuel", vc.AddFuel)
	}
}
