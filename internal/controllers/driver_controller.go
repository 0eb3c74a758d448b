package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/middleware"
	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/service"
)

// provisionedDriver carries the one-time password of the driver's new account.
type provisionedDriver struct {
	*models.Driver
	TemporaryPassword string `json:"temporary_password,omitempty"`
}

type DriverController struct {
	svc service.DriverService
	log logrus.FieldLogger
}

func NewDriverController(svc service.DriverService, log logrus.FieldLogger) *DriverController {
	return &DriverController{svc: svc, log: log}
}

func (dc *DriverController) List(c *gin.Context) {
	drivers, err := dc.svc.List(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	respond(c, http.StatusOK, drivers)
}

func (dc *DriverController) Get(c *gin.Context) {
	driver, err := dc.svc.Get(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	respond(c, http.StatusOK, driver)
}

func (dc *DriverController) Create(c *gin.Context) {
	var body service.CreateDriverInput
	if !bindJSON(c, &body) {
		return
	}
	driver, password, err := dc.svc.Create(c.Request.Context(), middleware.ActorFrom(c), body)
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	respond(c, http.StatusCreated, provisionedDriver{Driver: driver, TemporaryPassword: password})
}

func (dc *DriverController) Update(c *gin.Context) {
	var body service.UpdateDriverInput
	if !bindJSON(c, &body) {
		return
	}
	driver, err := dc.svc.Update(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), body)
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	respond(c, http.StatusOK, driver)
}

func (dc *DriverController) UpdateLocation(c *gin.Context) {
	var body service.LocationInput
	if !bindJSON(c, &body) {
		return
	}
	update, err := dc.svc.UpdateLocation(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), body)
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	respond(c, http.StatusOK, update)
}

// Track returns the driver's recent trail with a GeoJSON geometry.
func (dc *DriverController) Track(c *gin.Context) {
	trail, err := dc.svc.Track(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, dc.log, err)
		return
	}
	respond(c, http.StatusOK, trail)
}
