package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/apperr"
	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/policy"
	"fleet_dispatch/internal/storage"
)

type CreateVehicleInput struct {
	LicensePlate    string                `json:"license_plate" binding:"required"`
	Make            string                `json:"make" binding:"required"`
	Model           string                `json:"model" binding:"required"`
	Year            int                   `json:"year" binding:"required"`
	Status          *models.VehicleStatus `json:"status"`
	FuelCapacity    float64               `json:"fuel_capacity"`
	CurrentFuel     *float64              `json:"current_fuel"`
	Mileage         float64               `json:"mileage"`
	LastMaintenance *time.Time            `json:"last_maintenance"`
	NextMaintenance *time.Time            `json:"next_maintenance"`
}

type UpdateVehicleInput struct {
	LicensePlate    *string               `json:"license_plate"`
	Make            *string               `json:"make"`
	Model           *string               `json:"model"`
	Year            *int                  `json:"year"`
	Status          *models.VehicleStatus `json:"status"`
	FuelCapacity    *float64              `json:"fuel_capacity"`
	CurrentFuel     *float64              `json:"current_fuel"`
	Mileage         *float64              `json:"mileage"`
	LastMaintenance *time.Time            `json:"last_maintenance"`
	NextMaintenance *time.Time            `json:"next_maintenance"`
}

type MaintenanceInput struct {
	Type        models.MaintenanceType `json:"type" binding:"required"`
	Description string                 `json:"description" binding:"required"`
	Cost        *float64               `json:"cost"`
	Mileage     float64                `json:"mileage"`
	PerformedBy *string                `json:"performed_by"`
	PerformedAt *time.Time             `json:"performed_at"`
	NextDue     *time.Time             `json:"next_due"`
	Notes       *string                `json:"notes"`
}

type FuelInput struct {
	Amount    float64    `json:"amount" binding:"required"`
	Cost      float64    `json:"cost"`
	Mileage   float64    `json:"mileage"`
	Location  *string    `json:"location"`
	DriverID  *string    `json:"driver_id"`
	Timestamp *time.Time `json:"timestamp"`
}

type VehicleService interface {
	List(ctx context.Context, actor policy.Actor) ([]models.Vehicle, error)
	Get(ctx context.Context, actor policy.Actor, id string) (*models.Vehicle, error)
	Create(ctx context.Context, actor policy.Actor, in CreateVehicleInput) (*models.Vehicle, error)
	Update(ctx context.Context, actor policy.Actor, id string, in UpdateVehicleInput) (*models.Vehicle, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error

	AddMaintenance(ctx context.Context, actor policy.Actor, vehicleID string, in MaintenanceInput) (*models.MaintenanceRecord, error)
	ListMaintenance(ctx context.Context, actor policy.Actor, vehicleID string) ([]models.MaintenanceRecord, error)
	AddFuel(ctx context.Context, actor policy.Actor, vehicleID string, in FuelInput) (*models.FuelRecord, error)
	ListFuel(ctx context.Context, actor policy.Actor, vehicleID string) ([]models.FuelRecord, error)
}

type vehicleService struct {
	vehicles    storage.IVehicleStorage
	drivers     storage.IDriverStorage
	jobs        storage.IJobStorage
	maintenance storage.IMaintenanceStorage
	fuel        storage.IFuelStorage
	opts        Options
	log         logrus.FieldLogger
}

func NewVehicleService(stg storage.IStorage, opts Options, log logrus.FieldLogger) VehicleService {
	return &vehicleService{
		vehicles:    stg.Vehicle(),
		drivers:     stg.Driver(),
		jobs:        stg.Job(),
		maintenance: stg.Maintenance(),
		fuel:        stg.Fuel(),
		opts:        opts,
		log:         log,
	}
}

// ownerOf returns actor.ID when the vehicle is the one attached to the
// actor's driver profile, and "" otherwise.
func (s *vehicleService) ownerOf(ctx context.Context, actor policy.Actor, vehicleID string) (string, error) {
	if actor.Role != models.RoleDriver {
		return "", nil
	}
	v, err := s.vehicles.GetByDriverUserID(ctx, actor.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", apperr.Internal(err)
	}
	if v.ID == vehicleID {
		return actor.ID, nil
	}
	return "", nil
}

func (s *vehicleService) check(ctx context.Context, actor policy.Actor, kind policy.Kind, op policy.Op, vehicleID string) error {
	owner, err := s.ownerOf(ctx, actor, vehicleID)
	if err != nil {
		return err
	}
	return policy.Check(actor, policy.Target{Kind: kind, Op: op, OwnerID: owner})
}

func (s *vehicleService) List(ctx context.Context, actor policy.Actor) ([]models.Vehicle, error) {
	if err := policy.Check(actor, policy.Target{Kind: policy.KindVehicle, Op: policy.OpList}); err != nil {
		return nil, err
	}
	vehicles, err := s.vehicles.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return vehicles, nil
}

func (s *vehicleService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Vehicle, error) {
	if err := s.check(ctx, actor, policy.KindVehicle, policy.OpRead, id); err != nil {
		return nil, err
	}
	v, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, "Vehicle not found")
	}
	return v, nil
}

func (s *vehicleService) Create(ctx context.Context, actor policy.Actor, in CreateVehicleInput) (*models.Vehicle, error) {
	if err := policy.Check(actor, policy.Target{Kind: policy.KindVehicle, Op: policy.OpCreate}); err != nil {
		return nil, err
	}
	v := &models.Vehicle{
		LicensePlate:    strings.TrimSpace(in.LicensePlate),
		Make:            strings.TrimSpace(in.Make),
		Model:           strings.TrimSpace(in.Model),
		Year:            in.Year,
		Status:          models.VehicleAvailable,
		FuelCapacity:    in.FuelCapacity,
		CurrentFuel:     in.CurrentFuel,
		Mileage:         in.Mileage,
		LastMaintenance: in.LastMaintenance,
		NextMaintenance: in.NextMaintenance,
	}
	if in.Status != nil {
		if *in.Status == models.VehicleInUse {
			return nil, apperr.NewValidation("A vehicle becomes in_use only by assigning it to a job")
		}
		v.Status = *in.Status
	}
	if err := s.validate(v); err != nil {
		return nil, err
	}
	if err := s.vehicles.Create(ctx, v); err != nil {
		return nil, classify(err, "Vehicle not found")
	}
	s.log.WithFields(logrus.Fields{"vehicle_id": v.ID, "plate": v.LicensePlate, "by": actor.ID}).Info("Vehicle created")
	return v, nil
}

func (s *vehicleService) validate(v *models.Vehicle) error {
	switch {
	case v.LicensePlate == "":
		return apperr.NewValidation("License plate is required")
	case v.Make == "" || v.Model == "":
		return apperr.NewValidation("Make and model are required")
	case v.Year < 1900 || v.Year > s.opts.Now().Year()+1:
		return apperr.NewValidation("Year is out of range")
	case !v.Status.Valid():
		return apperr.NewValidation("Invalid status. Must be one of: available, in_use, maintenance, out_of_service")
	case v.FuelCapacity < 0 || v.Mileage < 0:
		return apperr.NewValidation("Fuel capacity and mileage must not be negative")
	case v.CurrentFuel != nil && *v.CurrentFuel < 0:
		return apperr.NewValidation("Current fuel must not be negative")
	}
	return nil
}

func (s *vehicleService) Update(ctx context.Context, actor policy.Actor, id string, in UpdateVehicleInput) (*models.Vehicle, error) {
	if err := policy.Check(actor, policy.Target{Kind: policy.KindVehicle, Op: policy.OpUpdate}); err != nil {
		return nil, err
	}
	current, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, "Vehicle not found")
	}

	// validate the merged record, then write only what changed
	merged := *current
	fields := storage.Fields{}
	if in.LicensePlate != nil {
		merged.LicensePlate = strings.TrimSpace(*in.LicensePlate)
		fields["license_plate"] = merged.LicensePlate
	}
	if in.Make != nil {
		merged.Make = strings.TrimSpace(*in.Make)
		fields["make"] = merged.Make
	}
	if in.Model != nil {
		merged.Model = strings.TrimSpace(*in.Model)
		fields["model"] = merged.Model
	}
	if in.Year != nil {
		merged.Year = *in.Year
		fields["year"] = merged.Year
	}
	if in.Status != nil {
		if *in.Status != current.Status {
			if err := s.checkStatusChange(ctx, id, *in.Status); err != nil {
				return nil, err
			}
		}
		merged.Status = *in.Status
		fields["status"] = merged.Status
	}
	if in.FuelCapacity != nil {
		merged.FuelCapacity = *in.FuelCapacity
		fields["fuel_capacity"] = merged.FuelCapacity
	}
	if in.CurrentFuel != nil {
		merged.CurrentFuel = in.CurrentFuel
		fields["current_fuel"] = *in.CurrentFuel
	}
	if in.Mileage != nil {
		merged.Mileage = *in.Mileage
		fields["mileage"] = merged.Mileage
	}
	if in.LastMaintenance != nil {
		fields["last_maintenance"] = *in.LastMaintenance
	}
	if in.NextMaintenance != nil {
		fields["next_maintenance"] = *in.NextMaintenance
	}
	if len(fields) == 0 {
		return nil, apperr.NewValidation("No fields to update")
	}
	if err := s.validate(&merged); err != nil {
		return nil, err
	}

	v, err := s.vehicles.Update(ctx, id, fields)
	if err != nil {
		return nil, classify(err, "Vehicle not found")
	}
	return v, nil
}

// checkStatusChange keeps in_use owned by job assignment: a vehicle on an
// active job stays in_use, and nothing else may be marked in_use by hand.
func (s *vehicleService) checkStatusChange(ctx context.Context, id string, to models.VehicleStatus) error {
	_, err := s.jobs.ActiveForVehicle(ctx, id)
	switch {
	case err == nil:
		return apperr.NewConflict("Vehicle is assigned to an active job; its status changes with the job")
	case !errors.Is(err, storage.ErrNotFound):
		return apperr.Internal(err)
	case to == models.VehicleInUse:
		return apperr.NewConflict("A vehicle becomes in_use only by assigning it to a job")
	}
	return nil
}

func (s *vehicleService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.Check(actor, policy.Target{Kind: policy.KindVehicle, Op: policy.OpDelete}); err != nil {
		return err
	}
	v, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return classify(err, "Vehicle not found")
	}
	if v.Status == models.VehicleInUse {
		return apperr.NewConflict("Vehicle is in use and cannot be deleted")
	}
	if err := s.vehicles.Delete(ctx, id); err != nil {
		return classify(err, "Vehicle not found")
	}
	s.log.WithFields(logrus.Fields{"vehicle_id": id, "by": actor.ID}).Info("Vehicle deleted")
	return nil
}

func (s *vehicleService) AddMaintenance(ctx context.Context, actor policy.Actor, vehicleID string, in MaintenanceInput) (*models.MaintenanceRecord, error) {
	if err := policy.Check(actor, policy.Target{Kind: policy.KindVehicle, Op: policy.OpUpdate}); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, apperr.NewValidation("Invalid maintenance type. Must be one of: routine, repair, inspection, fuel")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperr.NewValidation("Description is required")
	}
	if in.Mileage < 0 || (in.Cost != nil && *in.Cost < 0) {
		return nil, apperr.NewValidation("Mileage and cost must not be negative")
	}
	rec := &models.MaintenanceRecord{
		VehicleID:   vehicleID,
		Type:        in.Type,
		Description: strings.TrimSpace(in.Description),
		Cost:        in.Cost,
		Mileage:     in.Mileage,
		PerformedBy: in.PerformedBy,
		PerformedAt: s.opts.Now(),
		NextDue:     in.NextDue,
		Notes:       in.Notes,
	}
	if in.PerformedAt != nil {
		rec.PerformedAt = in.PerformedAt.UTC()
	}
	if rec.NextDue != nil && rec.NextDue.Before(rec.PerformedAt) {
		return nil, apperr.NewValidation("next_due must be after performed_at")
	}
	if err := s.maintenance.Create(ctx, rec); err != nil {
		return nil, classify(err, "Vehicle not found")
	}
	return rec, nil
}

func (s *vehicleService) ListMaintenance(ctx context.Context, actor policy.Actor, vehicleID string) ([]models.MaintenanceRecord, error) {
	if err := s.check(ctx, actor, policy.KindVehicle, policy.OpRead, vehicleID); err != nil {
		return nil, err
	}
	if _, err := s.vehicles.GetByID(ctx, vehicleID); err != nil {
		return nil, classify(err, "Vehicle not found")
	}
	recs, err := s.maintenance.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return recs, nil
}

func (s *vehicleService) AddFuel(ctx context.Context, actor policy.Actor, vehicleID string, in FuelInput) (*models.FuelRecord, error) {
	if err := s.check(ctx, actor, policy.KindFuel, policy.OpCreate, vehicleID); err != nil {
		return nil, err
	}
	if in.Amount <= 0 || in.Cost < 0 || in.Mileage < 0 {
		return nil, apperr.NewValidation("Amount must be positive; cost and mileage must not be negative")
	}

	var driverID string
	if actor.Role == models.RoleDriver {
		d, err := s.drivers.GetByUserID(ctx, actor.ID)
		if err != nil {
			return nil, classify(err, "Driver not found")
		}
		driverID = d.ID
	} else {
		if in.DriverID == nil || *in.DriverID == "" {
			return nil, apperr.NewValidation("driver_id is required")
		}
		if _, err := s.drivers.GetByID(ctx, *in.DriverID); err != nil {
			return nil, classify(err, "Driver not found")
		}
		driverID = *in.DriverID
	}

	rec := &models.FuelRecord{
		VehicleID: vehicleID,
		DriverID:  driverID,
		Amount:    in.Amount,
		Cost:      in.Cost,
		Mileage:   in.Mileage,
		Location:  in.Location,
		Timestamp: s.opts.Now(),
	}
	if in.Timestamp != nil {
		rec.Timestamp = in.Timestamp.UTC()
	}
	if err := s.fuel.Create(ctx, rec); err != nil {
		return nil, classify(err, "Vehicle not found")
	}
	return rec, nil
}

func (s *vehicleService) ListFuel(ctx context.Context, actor policy.Actor, vehicleID string) ([]models.FuelRecord, error) {
	if err := s.check(ctx, actor, policy.KindFuel, policy.OpRead, vehicleID); err != nil {
		return nil, err
	}
	if _, err := s.vehicles.GetByID(ctx, vehicleID); err != nil {
		return nil, classify(err, "Vehicle not found")
	}
	recs, err := s.fuel.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return recs, nil
}
