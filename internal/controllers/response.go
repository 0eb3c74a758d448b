package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/apperr"
)

// envelope is the body shape of every JSON response.
type envelope struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Data: data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Message: message})
}

// respondError maps err onto the error taxonomy. Unclassified causes are
// logged and never leak to the client.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	if apperr.KindOf(err) == apperr.Unclassified {
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Request failed")
	}
	c.JSON(apperr.HTTPStatus(err), envelope{Error: apperr.Message(err)})
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Error: "Invalid request body: " + err.Error()})
		return false
	}
	return true
}
