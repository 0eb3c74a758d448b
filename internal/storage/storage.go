package storage

import (
	"context"
	"errors"
	"time"

	"fleet_dispatch/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable is returned when an assignment finds its driver or
	// vehicle already taken. Nothing is written.
	ErrUnavailable = errors.New("driver or vehicle not available")
	// ErrStaleStatus is returned when a conditional status change finds the
	// row no longer in the expected status.
	ErrStaleStatus = errors.New("status changed concurrently")
)

// DuplicateError reports a unique constraint violation on Field.
type DuplicateError struct {
	Field string
	Err   error
}

func (e *DuplicateError) Error() string { return "duplicate " + e.Field }
func (e *DuplicateError) Unwrap() error { return e.Err }

type IStorage interface {
	User() IUserStorage
	Driver() IDriverStorage
	Vehicle() IVehicleStorage
	Job() IJobStorage
	Tracking() ITrackingStorage
	Maintenance() IMaintenanceStorage
	Fuel() IFuelStorage
	Notification() INotificationStorage
	Dashboard() IDashboardStorage
	Close() error
}

// Fields is a column -> value patch applied with last-writer-wins semantics.
type Fields map[string]interface{}

type IUserStorage interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id string, fields Fields) (*models.User, error)
}

type IDriverStorage interface {
	GetByID(ctx context.Context, id string) (*models.Driver, error)
	GetByUserID(ctx context.Context, userID string) (*models.Driver, error)
	GetAll(ctx context.Context) ([]models.Driver, error)
	// CreateWithUser inserts the user and the driver profile in one transaction.
	CreateWithUser(ctx context.Context, user *models.User, driver *models.Driver) error
	Update(ctx context.Context, id string, fields Fields) (*models.Driver, error)
}

type IVehicleStorage interface {
	GetByID(ctx context.Context, id string) (*models.Vehicle, error)
	GetByDriverUserID(ctx context.Context, userID string) (*models.Vehicle, error)
	GetAll(ctx context.Context) ([]models.Vehicle, error)
	Create(ctx context.Context, vehicle *models.Vehicle) error
	Update(ctx context.Context, id string, fields Fields) (*models.Vehicle, error)
	Delete(ctx context.Context, id string) error
}

type JobFilter struct {
	Status   models.JobStatus
	DriverID string
	// DriverUserID narrows to jobs whose driver belongs to this user.
	DriverUserID string
}

// Assignment attaches a driver and optionally a vehicle to a job.
type Assignment struct {
	DriverID  string
	VehicleID *string
}

// StatusChange is a conditional transition from From to To.
type StatusChange struct {
	From           models.JobStatus
	To             models.JobStatus
	ActualPickup   *time.Time
	ActualDelivery *time.Time
	Release        bool
}

type IJobStorage interface {
	GetByID(ctx context.Context, id string) (*models.Job, error)
	GetAll(ctx context.Context, filter JobFilter) ([]models.Job, error)
	// ActiveForVehicle returns the assigned or in-progress job holding the
	// vehicle, or ErrNotFound.
	ActiveForVehicle(ctx context.Context, vehicleID string) (*models.Job, error)
	// Create inserts the job and, when assign is set, assigns it in the same
	// transaction.
	Create(ctx context.Context, job *models.Job, assign *Assignment) error
	// Update applies fields and, when assign is set, reassigns the job in the
	// same transaction.
	Update(ctx context.Context, id string, fields Fields, assign *Assignment) (*models.Job, error)
	Transition(ctx context.Context, id string, change StatusChange) (*models.Job, error)
}

type ITrackingStorage interface {
	// Record moves the driver's current location and, when point is
	// non-nil, appends it to the trail. Both happen in one transaction.
	Record(ctx context.Context, driverID string, lat, lon float64, at time.Time, point *models.TrackingData) error
	Last(ctx context.Context, driverID string) (*models.TrackingData, error)
	List(ctx context.Context, driverID string, limit int) ([]models.TrackingData, error)
}

type IMaintenanceStorage interface {
	Create(ctx context.Context, rec *models.MaintenanceRecord) error
	ListByVehicle(ctx context.Context, vehicleID string) ([]models.MaintenanceRecord, error)
}

type IFuelStorage interface {
	Create(ctx context.Context, rec *models.FuelRecord) error
	ListByVehicle(ctx context.Context, vehicleID string) ([]models.FuelRecord, error)
}

type INotificationStorage interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) (*models.Notification, error)
}

type IDashboardStorage interface {
	Stats(ctx context.Context, maintenanceDueBefore time.Time) (*models.DashboardStats, error)
}
