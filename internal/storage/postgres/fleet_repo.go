package postgres

import (
	"context"

	"gorm.io/gorm"

	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/storage"
)

type maintenanceRepo struct {
	db *gorm.DB
}

// Create logs the record and moves the vehicle's maintenance dates and
// odometer forward.
func (r *maintenanceRepo) Create(ctx context.Context, rec *models.MaintenanceRecord) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v models.Vehicle
		if err := tx.First(&v, "id = ?", rec.VehicleID).Error; err != nil {
			return err
		}
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		fields := map[string]interface{}{"last_maintenance": rec.PerformedAt}
		if rec.NextDue != nil {
			fields["next_maintenance"] = *rec.NextDue
		}
		if rec.Mileage > v.Mileage {
			fields["mileage"] = rec.Mileage
		}
		return tx.Model(&models.Vehicle{}).Where("id = ?", v.ID).Updates(fields).Error
	})
	return translate(err)
}

func (r *maintenanceRepo) ListByVehicle(ctx context.Context, vehicleID string) ([]models.MaintenanceRecord, error) {
	var recs []models.MaintenanceRecord
	if err := r.db.WithContext(ctx).Where("vehicle_id = ?", vehicleID).Order("performed_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

type fuelRepo struct {
	db *gorm.DB
}

// Create logs a refuel and tops up the vehicle's current fuel, capped at its
// tank capacity when one is known.
func (r *fuelRepo) Create(ctx context.Context, rec *models.FuelRecord) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v models.Vehicle
		if err := tx.First(&v, "id = ?", rec.VehicleID).Error; err != nil {
			return err
		}
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		fuel := rec.Amount
		if v.CurrentFuel != nil {
			fuel += *v.CurrentFuel
		}
		if v.FuelCapacity > 0 && fuel > v.FuelCapacity {
			fuel = v.FuelCapacity
		}
		fields := map[string]interface{}{"current_fuel": fuel}
		if rec.Mileage > v.Mileage {
			fields["mileage"] = rec.Mileage
		}
		return tx.Model(&models.Vehicle{}).Where("id = ?", v.ID).Updates(fields).Error
	})
	return translate(err)
}

func (r *fuelRepo) ListByVehicle(ctx context.Context, vehicleID string) ([]models.FuelRecord, error) {
	var recs []models.FuelRecord
	if err := r.db.WithContext(ctx).Where("vehicle_id = ?", vehicleID).Order("timestamp DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

type notificationRepo struct {
	db *gorm.DB
}

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	return translate(r.db.WithContext(ctx).Create(n).Error)
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	var ns []models.Notification
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&ns).Error; err != nil {
		return nil, err
	}
	return ns, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, storage.ErrNotFound
	}
	var n models.Notification
	if err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &n, nil
}
