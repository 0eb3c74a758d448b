package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_dispatch/internal/controllers"
)

func JobRoutes(r *gin.Engine, auth gin.HandlerFunc, jc *controllers.JobController) {
	jobs := r.Group("/jobs")
	jobs.Use(auth)
	{
		jobs.GET("", jc.List)
		jobs.POST("", jc.Create)
		jobs.GET("/:id", jc.Get)
		jobs.PUT("/:id", jc.Update)
	}
}
