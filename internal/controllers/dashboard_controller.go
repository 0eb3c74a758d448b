package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/middleware"
	"fleet_dispatch/internal/service"
)

type DashboardController struct {
	svc service.DashboardService
	log logrus.FieldLogger
}

func NewDashboardController(svc service.DashboardService, log logrus.FieldLogger) *DashboardController {
	return &DashboardController{svc: svc, log: log}
}

func (dc *DashboardController) Stats(c *gin.Context) {
	stats, err := dc.svc.Stats(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	respond(c, http.StatusOK, stats)
}
