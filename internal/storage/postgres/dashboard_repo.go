package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fleet_dispatch/internal/models"
)

type dashboardRepo struct {
	db *gorm.DB
}

func (r *dashboardRepo) Stats(ctx context.Context, maintenanceDueBefore time.Time) (*models.DashboardStats, error) {
	db := r.db.WithContext(ctx)
	var s models.DashboardStats

	counts := []struct {
		dst   *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&s.TotalJobs, &models.Job{}, "", nil},
		{&s.ActiveJobs, &models.Job{}, "status IN ?", []interface{}{activeJobStatuses}},
		{&s.CompletedJobs, &models.Job{}, "status = ?", []interface{}{models.JobCompleted}},
		{&s.TotalDrivers, &models.Driver{}, "", nil},
		{&s.AvailableDrivers, &models.Driver{}, "status = ?", []interface{}{models.DriverAvailable}},
		{&s.TotalVehicles, &models.Vehicle{}, "", nil},
		{&s.AvailableVehicles, &models.Vehicle{}, "status = ?", []interface{}{models.VehicleAvailable}},
		{&s.MaintenanceDue, &models.Vehicle{}, "next_maintenance IS NOT NULL AND next_maintenance <= ?", []interface{}{maintenanceDueBefore}},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return &s, nil
}
