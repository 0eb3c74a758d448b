package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/apperr"
	"fleet_dispatch/internal/lifecycle"
	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/policy"
	"fleet_dispatch/internal/storage"
)

type CreateDriverInput struct {
	Email         string               `json:"email" binding:"required"`
	FullName      string               `json:"full_name" binding:"required"`
	Phone         *string              `json:"phone"`
	Password      *string              `json:"password"`
	LicenseNumber string               `json:"license_number" binding:"required"`
	LicenseExpiry string               `json:"license_expiry" binding:"required"`
	Status        *models.DriverStatus `json:"status"`
}

type UpdateDriverInput struct {
	Status        *models.DriverStatus `json:"status"`
	LicenseNumber *string              `json:"license_number"`
	LicenseExpiry *string              `json:"license_expiry"`
	VehicleID     *string              `json:"vehicle_id"`
}

func (in UpdateDriverInput) onlyStatus() bool {
	return in.LicenseNumber == nil && in.LicenseExpiry == nil && in.VehicleID == nil
}

type DriverService interface {
	List(ctx context.Context, actor policy.Actor) ([]models.Driver, error)
	Get(ctx context.Context, actor policy.Actor, id string) (*models.Driver, error)
	// Own returns the driver profile of the actor.
	Own(ctx context.Context, actor policy.Actor) (*models.Driver, error)
	// Create provisions the driver's user account and profile together and
	// returns the generated password when the input carried none.
	Create(ctx context.Context, actor policy.Actor, in CreateDriverInput) (*models.Driver, string, error)
	Update(ctx context.Context, actor policy.Actor, id string, in UpdateDriverInput) (*models.Driver, error)
	UpdateLocation(ctx context.Context, actor policy.Actor, id string, in LocationInput) (*LocationUpdate, error)
	Track(ctx context.Context, actor policy.Actor, id string) (*Trail, error)
}

type driverService struct {
	drivers  storage.IDriverStorage
	vehicles storage.IVehicleStorage
	jobs     storage.IJobStorage
	tracking storage.ITrackingStorage
	opts     Options
	log      logrus.FieldLogger
}

func NewDriverService(stg storage.IStorage, opts Options, log logrus.FieldLogger) DriverService {
	return &driverService{
		drivers:  stg.Driver(),
		vehicles: stg.Vehicle(),
		jobs:     stg.Job(),
		tracking: stg.Tracking(),
		opts:     opts,
		log:      log,
	}
}

func (s *driverService) List(ctx context.Context, actor policy.Actor) ([]models.Driver, error) {
	switch policy.Decide(actor, policy.Target{Kind: policy.KindDriver, Op: policy.OpList}) {
	case policy.Deny:
		return nil, apperr.NewForbidden("Insufficient permissions")
	case policy.AllowOwn:
		d, err := s.drivers.GetByUserID(ctx, actor.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return []models.Driver{}, nil
		}
		if err != nil {
			return nil, apperr.Internal(err)
		}
		return []models.Driver{*d}, nil
	}
	drivers, err := s.drivers.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return drivers, nil
}

func (s *driverService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Driver, error) {
	d, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, "Driver not found")
	}
	if err := policy.Check(actor, policy.Target{Kind: policy.KindDriver, Op: policy.OpRead, OwnerID: d.UserID}); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *driverService) Own(ctx context.Context, actor policy.Actor) (*models.Driver, error) {
	if actor.Role != models.RoleDriver {
		return nil, apperr.NewForbidden("Insufficient permissions")
	}
	d, err := s.drivers.GetByUserID(ctx, actor.ID)
	if err != nil {
		return nil, classify(err, "Driver not found")
	}
	return d, nil
}

func (s *driverService) Create(ctx context.Context, actor policy.Actor, in CreateDriverInput) (*models.Driver, string, error) {
	if err := policy.Check(actor, policy.Target{Kind: policy.KindDriver, Op: policy.OpCreate}); err != nil {
		return nil, "", err
	}
	p, err := newUser(in.Email, in.FullName, models.RoleDriver, in.Phone, in.Password)
	if err != nil {
		return nil, "", err
	}
	d, err := newDriver(in.LicenseNumber, in.LicenseExpiry, in.Status)
	if err != nil {
		return nil, "", err
	}
	if err := s.drivers.CreateWithUser(ctx, p.User, d); err != nil {
		return nil, "", classify(err, "Driver not found")
	}
	s.log.WithFields(logrus.Fields{"driver_id": d.ID, "user_id": p.ID, "by": actor.ID}).Info("Driver created")
	return d, p.TempPassword, nil
}

func (s *driverService) Update(ctx context.Context, actor policy.Actor, id string, in UpdateDriverInput) (*models.Driver, error) {
	d, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, "Driver not found")
	}
	if err := policy.Check(actor, policy.Target{Kind: policy.KindDriver, Op: policy.OpUpdate, OwnerID: d.UserID}); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleDriver && !in.onlyStatus() {
		return nil, apperr.NewForbidden("Drivers can only update their status")
	}

	fields := storage.Fields{}
	if in.Status != nil {
		if err := lifecycle.ValidateDriverStatus(*in.Status); err != nil {
			return nil, err
		}
		fields["status"] = *in.Status
	}
	if in.LicenseNumber != nil {
		license := strings.TrimSpace(*in.LicenseNumber)
		if license == "" {
			return nil, apperr.NewValidation("License number is required")
		}
		fields["license_number"] = license
	}
	if in.LicenseExpiry != nil {
		expiry, err := parseDate(*in.LicenseExpiry)
		if err != nil {
			return nil, apperr.NewValidation("license_expiry must be a date (YYYY-MM-DD)")
		}
		fields["license_expiry"] = expiry
	}
	if in.VehicleID != nil {
		if *in.VehicleID == "" {
			fields["vehicle_id"] = nil
		} else {
			if _, err := s.vehicles.GetByID(ctx, *in.VehicleID); err != nil {
				return nil, classify(err, "Vehicle not found")
			}
			held, err := s.jobs.ActiveForVehicle(ctx, *in.VehicleID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return nil, apperr.Internal(err)
			}
			if held != nil && (held.DriverID == nil || *held.DriverID != d.ID) {
				return nil, apperr.NewConflict("Vehicle is in use on another driver's active job")
			}
			fields["vehicle_id"] = *in.VehicleID
		}
	}
	if len(fields) == 0 {
		return nil, apperr.NewValidation("No fields to update")
	}

	updated, err := s.drivers.Update(ctx, id, fields)
	if err != nil {
		return nil, classify(err, "Driver not found")
	}
	return updated, nil
}

func newDriver(license, expiry string, status *models.DriverStatus) (*models.Driver, error) {
	license = strings.TrimSpace(license)
	if license == "" {
		return nil, apperr.NewValidation("License number is required")
	}
	exp, err := parseDate(expiry)
	if err != nil {
		return nil, apperr.NewValidation("license_expiry must be a date (YYYY-MM-DD)")
	}
	d := &models.Driver{LicenseNumber: license, LicenseExpiry: exp, Status: models.DriverAvailable}
	if status != nil {
		if err := lifecycle.ValidateDriverStatus(*status); err != nil {
			return nil, err
		}
		d.Status = *status
	}
	return d, nil
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
