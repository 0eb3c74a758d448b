package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/storage"
)

type IServiceManager interface {
	Auth() AuthService
	User() UserService
	Driver() DriverService
	Vehicle() VehicleService
	Job() JobService
	Notification() NotificationService
	Dashboard() DashboardService
}

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string, role models.Role) (string, error)
}

// Broadcaster fans live events out to subscribed clients. Delivery is best
// effort.
type Broadcaster interface {
	Broadcast(v interface{})
}

type Options struct {
	Tokens      TokenIssuer
	Broadcaster Broadcaster
	// MaintenanceDueWindow is how far ahead next_maintenance counts as due.
	MaintenanceDueWindow time.Duration
	TrackLimit           int
	Now                  func() time.Time
}

type service struct {
	authService         AuthService
	userService         UserService
	driverService       DriverService
	vehicleService      VehicleService
	jobService          JobService
	notificationService NotificationService
	dashboardService    DashboardService
}

func New(stg storage.IStorage, opts Options, log logrus.FieldLogger) IServiceManager {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.Broadcaster == nil {
		opts.Broadcaster = discard{}
	}
	if opts.MaintenanceDueWindow == 0 {
		opts.MaintenanceDueWindow = 7 * 24 * time.Hour
	}
	if opts.TrackLimit <= 0 {
		opts.TrackLimit = 500
	}

	n := &notifier{stg: stg.Notification(), log: log}
	return &service{
		authService:         NewAuthService(stg, opts.Tokens, log),
		userService:         NewUserService(stg, log),
		driverService:       NewDriverService(stg, opts, log),
		vehicleService:      NewVehicleService(stg, opts, log),
		jobService:          NewJobService(stg, n, opts, log),
		notificationService: NewNotificationService(stg, log),
		dashboardService:    NewDashboardService(stg, opts, log),
	}
}

func (s *service) Auth() AuthService                 { return s.authService }
func (s *service) User() UserService                 { return s.userService }
func (s *service) Driver() DriverService             { return s.driverService }
func (s *service) Vehicle() VehicleService           { return s.vehicleService }
func (s *service) Job() JobService                   { return s.jobService }
func (s *service) Notification() NotificationService { return s.notificationService }
func (s *service) Dashboard() DashboardService       { return s.dashboardService }

type discard struct{}

func (discard) Broadcast(interface{}) {}
