package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_dispatch/internal/controllers"
)

// WebSocketRoutes mounts the live location socket. Browsers cannot set
// headers on the upgrade request, so the token travels as ?token=.
func WebSocketRoutes(r *gin.Engine, auth gin.HandlerFunc, wc *controllers.LocationSocketController) {
	wsRoutes := r.Group("/ws")
	wsRoutes.Use(auth)
	{
		wsRoutes.GET("/locations", wc.Handle)
	}
}
