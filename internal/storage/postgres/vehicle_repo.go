package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/storage"
)

type vehicleRepo struct {
	db *gorm.DB
}

func (r *vehicleRepo) GetByID(ctx context.Context, id string) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// GetByDriverUserID returns the vehicle currently attached to the driver
// profile of userID.
func (r *vehicleRepo) GetByDriverUserID(ctx context.Context, userID string) (*models.Vehicle, error) {
	var v models.Vehicle
	err := r.db.WithContext(ctx).
		Select("vehicles.*").
		Joins("JOIN drivers ON drivers.vehicle_id = vehicles.id").
		Where("drivers.user_id = ?", userID).
		Take(&v).Error
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *vehicleRepo) GetAll(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *vehicleRepo) Create(ctx context.Context, vehicle *models.Vehicle) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(vehicle).Error)
}

func (r *vehicleRepo) Update(ctx context.Context, id string, fields storage.Fields) (*models.Vehicle, error) {
	if len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Vehicle{}).Where("id = ?", id).Updates(map[string]interface{}(fields))
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, storage.ErrNotFound
		}
	}
	return r.GetByID(ctx, id)
}

func (r *vehicleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Detach from drivers and jobs before the row goes away.
		if err := tx.Model(&models.Driver{}).Where("vehicle_id = ?", id).Update("vehicle_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Job{}).Where("vehicle_id = ?", id).Update("vehicle_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Vehicle{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}
