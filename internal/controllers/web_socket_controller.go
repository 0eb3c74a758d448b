package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/apperr"
	"fleet_dispatch/internal/middleware"
	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/policy"
	"fleet_dispatch/internal/service"
	"fleet_dispatch/internal/socket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the token is checked before the upgrade
	},
}

// LocationSocketController serves /ws/locations. Admins and dispatchers
// subscribe to the live feed; drivers stream their own location frames.
type LocationSocketController struct {
	hub     *socket.Hub
	drivers service.DriverService
	log     logrus.FieldLogger
}

func NewLocationSocketController(hub *socket.Hub, drivers service.DriverService, log logrus.FieldLogger) *LocationSocketController {
	return &LocationSocketController{hub: hub, drivers: drivers, log: log}
}

func (wc *LocationSocketController) Handle(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var driver *models.Driver
	if !policy.IsDispatch(actor) {
		d, err := wc.drivers.Own(c.Request.Context(), actor)
		if err != nil {
			respondError(c, wc.log, err)
			return
		}
		driver = d
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wc.log.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	if driver != nil {
		wc.streamDriver(c, conn, actor, driver.ID)
		return
	}
	wc.subscribe(conn, actor)
}

// subscribe registers the connection with the hub and blocks until the
// client goes away. Subscribers are not expected to send anything.
func (wc *LocationSocketController) subscribe(conn *websocket.Conn, actor policy.Actor) {
	entry := wc.log.WithFields(logrus.Fields{
		"user_id":  actor.ID,
		"conn_ptr": fmt.Sprintf("%p", conn),
	})
	entry.Info("Location subscriber connected")

	wc.hub.Register(conn)
	defer wc.hub.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			logClose(entry, err)
			return
		}
		entry.Warn("Subscriber sent unexpected message, ignoring")
	}
}

func (wc *LocationSocketController) streamDriver(c *gin.Context, conn *websocket.Conn, actor policy.Actor, driverID string) {
	entry := wc.log.WithFields(logrus.Fields{
		"driver_id": driverID,
		"conn_ptr":  fmt.Sprintf("%p", conn),
	})
	entry.Info("Driver location stream connected")

	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			logClose(entry, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var in service.LocationInput
		if err := json.Unmarshal(p, &in); err != nil {
			entry.WithError(err).Warn("Invalid location frame")
			_ = conn.WriteJSON(envelope{Error: "Invalid location data format"})
			continue
		}
		update, err := wc.drivers.UpdateLocation(c.Request.Context(), actor, driverID, in)
		if err != nil {
			if apperr.KindOf(err) == apperr.Unclassified {
				entry.WithError(err).Error("Location update failed")
			}
			_ = conn.WriteJSON(envelope{Error: apperr.Message(err)})
			continue
		}
		_ = conn.WriteJSON(envelope{Data: update})
	}
}

func logClose(entry *logrus.Entry, err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
		entry.Info("WebSocket closed")
		return
	}
	entry.WithError(err).Warn("WebSocket read failed")
}
