package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/storage"
)

type trackingRepo struct {
	db *gorm.DB
}

func (r *trackingRepo) Record(ctx context.Context, driverID string, lat, lon float64, at time.Time, point *models.TrackingData) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Driver{}).Where("id = ?", driverID).Updates(map[string]interface{}{
			"current_latitude":    lat,
			"current_longitude":   lon,
			"location_updated_at": at,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		if point == nil {
			return nil
		}
		return tx.Create(point).Error
	})
	return translate(err)
}

func (r *trackingRepo) Last(ctx context.Context, driverID string) (*models.TrackingData, error) {
	var td models.TrackingData
	err := r.db.WithContext(ctx).Where("driver_id = ?", driverID).Order("timestamp DESC").Take(&td).Error
	if err != nil {
		return nil, translate(err)
	}
	return &td, nil
}

// List returns up to limit of the most recent points, newest first.
func (r *trackingRepo) List(ctx context.Context, driverID string, limit int) ([]models.TrackingData, error) {
	var points []models.TrackingData
	err := r.db.WithContext(ctx).Where("driver_id = ?", driverID).Order("timestamp DESC").Limit(limit).Find(&points).Error
	if err != nil {
		return nil, err
	}
	return points, nil
}
