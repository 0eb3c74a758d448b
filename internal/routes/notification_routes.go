package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_dispatch/internal/controllers"
)

func NotificationRoutes(r *gin.Engine, auth gin.HandlerFunc, nc *controllers.NotificationController) {
	notifications := r.Group("/notifications")
	notifications.Use(auth)
	{
		notifications.GET("", nc.List)
		notifications.PUT("/:id/read", nc.MarkRead)
	}
}

func DashboardRoutes(r *gin.Engine, auth gin.HandlerFunc, dc *controllers.DashboardController) {
	r.GET("/dashboard/stats", auth, dc.Stats)
}
