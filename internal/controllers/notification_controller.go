package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/middleware"
	"fleet_dispatch/internal/service"
)

type NotificationController struct {
	svc service.NotificationService
	log logrus.FieldLogger
}

func NewNotificationController(svc service.NotificationService, log logrus.FieldLogger) *NotificationController {
	return &NotificationController{svc: svc, log: log}
}

func (nc *NotificationController) List(c *gin.Context) {
	items, err := nc.svc.List(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, nc.log, err)
		return
	}
	respond(c, http.StatusOK, items)
}

func (nc *NotificationController) MarkRead(c *gin.Context) {
	item, err := nc.svc.MarkRead(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, nc.log, err)
		return
	}
	respond(c, http.StatusOK, item)
}
