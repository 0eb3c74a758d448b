package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/middleware"
	"fleet_dispatch/internal/service"
)

type JobController struct {
	svc service.JobService
	log logrus.FieldLogger
}

func NewJobController(svc service.JobService, log logrus.FieldLogger) *JobController {
	return &JobController{svc: svc, log: log}
}

// List accepts optional status and driver_id query filters. Drivers only
// ever see their own jobs.
func (jc *JobController) List(c *gin.Context) {
	filter := service.JobFilter{
		Status:   c.Query("status"),
		DriverID: c.Query("driver_id"),
	}
	jobs, err := jc.svc.List(c.Request.Context(), middleware.ActorFrom(c), filter)
	if err != nil {
		respondError(c, jc.log, err)
		return
	}
	respond(c, http.StatusOK, jobs)
}

func (jc *JobController) Get(c *gin.Context) {
	job, err := jc.svc.Get(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, jc.log, err)
		return
	}
	respond(c, http.StatusOK, job)
}

func (jc *JobController) Create(c *gin.Context) {
	var body service.CreateJobInput
	if !bindJSON(c, &body) {
		return
	}
	job, err := jc.svc.Create(c.Request.Context(), middleware.ActorFrom(c), body)
	if err != nil {
		respondError(c, jc.log, err)
		return
	}
	respond(c, http.StatusCreated, job)
}

func (jc *JobController) Update(c *gin.Context) {
	var body service.UpdateJobInput
	if !bindJSON(c, &body) {
		return
	}
	job, err := jc.svc.Update(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), body)
	if err != nil {
		respondError(c, jc.log, err)
		return
	}
	respond(c, http.StatusOK, job)
}
