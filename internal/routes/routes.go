package routes

import (
	"io"
	"net/http"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/controllers"
	"fleet_dispatch/internal/middleware"
	"fleet_dispatch/internal/service"
	"fleet_dispatch/internal/socket"
)

type Deps struct {
	Services    service.IServiceManager
	JWT         *middleware.JWT
	Hub         *socket.Hub
	CORSOrigins []string
	// AccessLog receives one line per request; nil disables the access log.
	AccessLog io.Writer
	Log       logrus.FieldLogger
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.AccessLog != nil {
		r.Use(ginlog.SetLogger(
			ginlog.WithWriter(d.AccessLog),
			ginlog.WithUTC(true),
			ginlog.WithSkipPath([]string{"/healthz"}),
		))
	}
	r.Use(middleware.CORS(d.CORSOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.RequireAuth(d.JWT, d.Services.Auth())

	AuthRoutes(r, controllers.NewAuthController(d.Services.Auth(), d.Log))
	UserRoutes(r, auth, controllers.NewUserController(d.Services.User(), d.Log))
	DriverRoutes(r, auth, controllers.NewDriverController(d.Services.Driver(), d.Log))
	VehicleRoutes(r, auth, controllers.NewVehicleController(d.Services.Vehicle(), d.Log))
	JobRoutes(r, auth, controllers.NewJobController(d.Services.Job(), d.Log))
	NotificationRoutes(r, auth, controllers.NewNotificationController(d.Services.Notification(), d.Log))
	DashboardRoutes(r, auth, controllers.NewDashboardController(d.Services.Dashboard(), d.Log))
	WebSocketRoutes(r, auth, controllers.NewLocationSocketController(d.Hub, d.Services.Driver(), d.Log))

	return r
}
