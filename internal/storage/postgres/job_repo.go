package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/storage"
)

type jobRepo struct {
	db *gorm.DB
}

var (
	activeJobStatuses     = []models.JobStatus{models.JobAssigned, models.JobInProgress}
	assignableJobStatuses = []models.JobStatus{models.JobPending, models.JobAssigned}
)

func withJobRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Driver.User").Preload("Vehicle").Preload("Creator")
}

func loadJob(tx *gorm.DB, id string) (*models.Job, error) {
	var job models.Job
	if err := tx.Scopes(withJobRelations).First(&job, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (*models.Job, error) {
	return loadJob(r.db.WithContext(ctx), id)
}

func (r *jobRepo) GetAll(ctx context.Context, filter storage.JobFilter) ([]models.Job, error) {
	q := r.db.WithContext(ctx).Scopes(withJobRelations)
	if filter.Status != "" {
		q = q.Where("jobs.status = ?", filter.Status)
	}
	if filter.DriverID != "" {
		q = q.Where("jobs.driver_id = ?", filter.DriverID)
	}
	if filter.DriverUserID != "" {
		q = q.Where("jobs.driver_id IN (?)",
			r.db.Model(&models.Driver{}).Select("id").Where("user_id = ?", filter.DriverUserID))
	}

	var jobs []models.Job
	if err := q.Order("jobs.created_at DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// ActiveForVehicle returns the assigned or in-progress job holding vehicleID.
func (r *jobRepo) ActiveForVehicle(ctx context.Context, vehicleID string) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND status IN ?", vehicleID, activeJobStatuses).
		Take(&job).Error
	if err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

func (r *jobRepo) Create(ctx context.Context, job *models.Job, assign *storage.Assignment) error {
	var created *models.Job
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(job).Error; err != nil {
			return err
		}
		if assign != nil {
			if err := assignTx(tx, job, *assign); err != nil {
				return err
			}
		}
		var err error
		created, err = loadJob(tx, job.ID)
		return err
	})
	if err != nil {
		return translate(err)
	}
	*job = *created
	return nil
}

func (r *jobRepo) Update(ctx context.Context, id string, fields storage.Fields, assign *storage.Assignment) (*models.Job, error) {
	var updated *models.Job
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := loadJob(tx, id)
		if err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := tx.Model(&models.Job{}).Where("id = ?", id).Updates(map[string]interface{}(fields)).Error; err != nil {
				return err
			}
		}
		if assign != nil {
			if err := assignTx(tx, job, *assign); err != nil {
				return err
			}
		}
		updated, err = loadJob(tx, id)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

// assignTx attaches the driver and vehicle of a to job. Each resource is
// claimed with a conditional update on its status, so of two concurrent
// assignments of the same driver or vehicle only one matches a row.
// Resources the job already holds are kept; resources it stops holding are
// released back to available.
func assignTx(tx *gorm.DB, job *models.Job, a storage.Assignment) error {
	prevDriver, prevVehicle := job.DriverID, job.VehicleID
	sameDriver := prevDriver != nil && *prevDriver == a.DriverID

	if !sameDriver {
		var busy int64
		err := tx.Model(&models.Job{}).
			Where("driver_id = ? AND status IN ? AND id <> ?", a.DriverID, activeJobStatuses, job.ID).
			Count(&busy).Error
		if err != nil {
			return err
		}
		if busy > 0 {
			return storage.ErrUnavailable
		}
		res := tx.Model(&models.Driver{}).
			Where("id = ? AND status = ?", a.DriverID, models.DriverAvailable).
			Update("status", models.DriverOnDuty)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return storage.ErrUnavailable
		}
	}

	vehicleID := a.VehicleID
	if vehicleID == nil && sameDriver {
		vehicleID = prevVehicle
	}
	keepVehicle := vehicleID != nil && prevVehicle != nil && *vehicleID == *prevVehicle

	if vehicleID != nil && !keepVehicle {
		var busy int64
		err := tx.Model(&models.Job{}).
			Where("vehicle_id = ? AND status IN ? AND id <> ?", *vehicleID, activeJobStatuses, job.ID).
			Count(&busy).Error
		if err != nil {
			return err
		}
		if busy > 0 {
			return storage.ErrUnavailable
		}
		res := tx.Model(&models.Vehicle{}).
			Where("id = ? AND status = ?", *vehicleID, models.VehicleAvailable).
			Update("status", models.VehicleInUse)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return storage.ErrUnavailable
		}
	}
	if vehicleID != nil {
		if err := tx.Model(&models.Driver{}).Where("id = ?", a.DriverID).Update("vehicle_id", *vehicleID).Error; err != nil {
			return err
		}
	}

	if prevDriver != nil && !sameDriver {
		if err := releaseDriver(tx, *prevDriver); err != nil {
			return err
		}
		if prevVehicle != nil {
			err := tx.Model(&models.Driver{}).
				Where("id = ? AND vehicle_id = ?", *prevDriver, *prevVehicle).
				Update("vehicle_id", nil).Error
			if err != nil {
				return err
			}
		}
	}
	if prevVehicle != nil && !keepVehicle {
		if err := releaseVehicle(tx, *prevVehicle); err != nil {
			return err
		}
	}

	res := tx.Model(&models.Job{}).
		Where("id = ? AND status IN ?", job.ID, assignableJobStatuses).
		Updates(map[string]interface{}{
			"driver_id":  a.DriverID,
			"vehicle_id": vehicleID,
			"status":     models.JobAssigned,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrStaleStatus
	}
	return nil
}

func releaseDriver(tx *gorm.DB, id string) error {
	return tx.Model(&models.Driver{}).Where("id = ? AND status = ?", id, models.DriverOnDuty).
		Update("status", models.DriverAvailable).Error
}

func releaseVehicle(tx *gorm.DB, id string) error {
	return tx.Model(&models.Vehicle{}).Where("id = ? AND status = ?", id, models.VehicleInUse).
		Update("status", models.VehicleAvailable).Error
}

func (r *jobRepo) Transition(ctx context.Context, id string, change storage.StatusChange) (*models.Job, error) {
	var updated *models.Job
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{"status": change.To}
		if change.ActualPickup != nil {
			fields["actual_pickup"] = *change.ActualPickup
		}
		if change.ActualDelivery != nil {
			fields["actual_delivery"] = *change.ActualDelivery
		}
		res := tx.Model(&models.Job{}).Where("id = ? AND status = ?", id, change.From).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			found, err := exists(tx, &models.Job{}, id)
			if err != nil {
				return err
			}
			if !found {
				return storage.ErrNotFound
			}
			return storage.ErrStaleStatus
		}

		job, err := loadJob(tx, id)
		if err != nil {
			return err
		}
		if change.Release {
			if job.DriverID != nil {
				if err := releaseDriver(tx, *job.DriverID); err != nil {
					return err
				}
			}
			if job.VehicleID != nil {
				if err := releaseVehicle(tx, *job.VehicleID); err != nil {
					return err
				}
			}
			job, err = loadJob(tx, id)
			if err != nil {
				return err
			}
		}
		updated = job
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}
