package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/service"
)

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthController struct {
	svc service.AuthService
	log logrus.FieldLogger
}

func NewAuthController(svc service.AuthService, log logrus.FieldLogger) *AuthController {
	return &AuthController{svc: svc, log: log}
}

func (ac *AuthController) Login(c *gin.Context) {
	var body loginInput
	if !bindJSON(c, &body) {
		return
	}
	session, err := ac.svc.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	respond(c, http.StatusOK, session)
}

// Register creates a driver account; other roles are provisioned by an admin.
func (ac *AuthController) Register(c *gin.Context) {
	var body service.RegisterInput
	if !bindJSON(c, &body) {
		return
	}
	session, err := ac.svc.Register(c.Request.Context(), body)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	respond(c, http.StatusCreated, session)
}
