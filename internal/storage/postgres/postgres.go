package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"fleet_dispatch/internal/storage"
)

type Store struct {
	db *gorm.DB
}

// New wraps an open GORM handle. The handle may point at PostgreSQL in
// production or SQLite in tests; queries stay within the dialect both share.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) User() storage.IUserStorage                 { return &userRepo{db: s.db} }
func (s *Store) Driver() storage.IDriverStorage             { return &driverRepo{db: s.db} }
func (s *Store) Vehicle() storage.IVehicleStorage           { return &vehicleRepo{db: s.db} }
func (s *Store) Job() storage.IJobStorage                   { return &jobRepo{db: s.db} }
func (s *Store) Tracking() storage.ITrackingStorage         { return &trackingRepo{db: s.db} }
func (s *Store) Maintenance() storage.IMaintenanceStorage   { return &maintenanceRepo{db: s.db} }
func (s *Store) Fuel() storage.IFuelStorage                 { return &fuelRepo{db: s.db} }
func (s *Store) Notification() storage.INotificationStorage { return &notificationRepo{db: s.db} }
func (s *Store) Dashboard() storage.IDashboardStorage       { return &dashboardRepo{db: s.db} }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

const pgUniqueViolation = "23505"

// uniqueFields lists the unique columns in the order they are matched
// against constraint names and messages.
var uniqueFields = []string{"license_number", "license_plate", "email", "user_id"}

// translate maps driver level failures onto the storage error vocabulary.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	if field, ok := uniqueViolation(err); ok {
		return &storage.DuplicateError{Field: field, Err: err}
	}
	return err
}

func uniqueViolation(err error) (string, bool) {
	var text string
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		if pgErr.Code != pgUniqueViolation {
			return "", false
		}
		text = pgErr.ConstraintName + " " + pgErr.Detail
	case errors.Is(err, gorm.ErrDuplicatedKey):
		text = err.Error()
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		// sqlite: "UNIQUE constraint failed: vehicles.license_plate"
		text = err.Error()
	default:
		return "", false
	}
	for _, f := range uniqueFields {
		if strings.Contains(text, f) {
			return f, true
		}
	}
	return "unknown", true
}

// exists distinguishes a missing row from a conditional update that matched nothing.
func exists(tx *gorm.DB, model interface{}, id string) (bool, error) {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
