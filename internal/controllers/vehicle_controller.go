package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/middleware"
	"fleet_dispatch/internal/service"
)

type VehicleController struct {
	svc service.VehicleService
	log logrus.FieldLogger
}

func NewVehicleController(svc service.VehicleService, log logrus.FieldLogger) *VehicleController {
	return &VehicleController{svc: svc, log: log}
}

func (vc *VehicleController) List(c *gin.Context) {
	vehicles, err := vc.svc.List(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	respond(c, http.StatusOK, vehicles)
}

func (vc *VehicleController) Get(c *gin.Context) {
	vehicle, err := vc.svc.Get(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	respond(c, http.StatusOK, vehicle)
}

func (vc *VehicleController) Create(c *gin.Context) {
	var body service.CreateVehicleInput
	if !bindJSON(c, &body) {
		return
	}
	vehicle, err := vc.svc.Create(c.Request.Context(), middleware.ActorFrom(c), body)
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	respond(c, http.StatusCreated, vehicle)
}

func (vc *VehicleController) Update(c *gin.Context) {
	var body service.UpdateVehicleInput
	if !bindJSON(c, &body) {
		return
	}
	vehicle, err := vc.svc.Update(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), body)
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	respond(c, http.StatusOK, vehicle)
}

func (vc *VehicleController) Delete(c *gin.Context) {
	if err := vc.svc.Delete(c.Request.Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		respondError(c, vc.log, err)
		return
	}
	respondMessage(c, http.StatusOK, "Vehicle deleted")
}

func (vc *VehicleController) ListMaintenance(c *gin.Context) {
	records, err := vc.svc.ListMaintenance(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	respond(c, http.StatusOK, records)
}

func (vc *VehicleController) AddMaintenance(c *gin.Context) {
	var body service.MaintenanceInput
	if !bindJSON(c, &body) {
		return
	}
	record, err := vc.svc.AddMaintenance(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), body)
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	respond(c, http.StatusCreated, record)
}

func (vc *VehicleController) ListFuel(c *gin.Context) {
	records, err := vc.svc.ListFuel(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	respond(c, http.StatusOK, records)
}

func (vc *VehicleController) AddFuel(c *gin.Context) {
	var body service.FuelInput
	if !bindJSON(c, &body) {
		return
	}
	record, err := vc.svc.AddFuel(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), body)
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	respond(c, http.StatusCreated, record)
}
