package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/middleware"
	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/service"
)

// provisioned carries the one-time password generated for a new account.
type provisioned struct {
	*models.User
	TemporaryPassword string `json:"temporary_password,omitempty"`
}

type UserController struct {
	svc service.UserService
	log logrus.FieldLogger
}

func NewUserController(svc service.UserService, log logrus.FieldLogger) *UserController {
	return &UserController{svc: svc, log: log}
}

func (uc *UserController) List(c *gin.Context) {
	users, err := uc.svc.List(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, uc.log, err)
		return
	}
	respond(c, http.StatusOK, users)
}

func (uc *UserController) Get(c *gin.Context) {
	user, err := uc.svc.Get(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, uc.log, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (uc *UserController) Create(c *gin.Context) {
	var body service.CreateUserInput
	if !bindJSON(c, &body) {
		return
	}
	user, password, err := uc.svc.Create(c.Request.Context(), middleware.ActorFrom(c), body)
	if err != nil {
		respondError(c, uc.log, err)
		return
	}
	respond(c, http.StatusCreated, provisioned{User: user, TemporaryPassword: password})
}

func (uc *UserController) Update(c *gin.Context) {
	var body service.UpdateUserInput
	if !bindJSON(c, &body) {
		return
	}
	user, err := uc.svc.Update(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), body)
	if err != nil {
		respondError(c, uc.log, err)
		return
	}
	respond(c, http.StatusOK, user)
}
