package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"fleet_dispatch/internal/apperr"
	"fleet_dispatch/internal/lifecycle"
	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/policy"
	"fleet_dispatch/internal/storage"
)

type LocationPayload struct {
	Address      string   `json:"address" binding:"required"`
	Latitude     *float64 `json:"latitude" binding:"required"`
	Longitude    *float64 `json:"longitude" binding:"required"`
	ContactName  *string  `json:"contact_name"`
	ContactPhone *string  `json:"contact_phone"`
	Notes        *string  `json:"notes"`
}

func (p *LocationPayload) toModel(what string) (models.Location, error) {
	if p == nil {
		return models.Location{}, apperr.NewValidation(what + " is required")
	}
	address := strings.TrimSpace(p.Address)
	if address == "" || p.Latitude == nil || p.Longitude == nil {
		return models.Location{}, apperr.NewValidation(what + " requires address, latitude and longitude")
	}
	if !validCoordinates(*p.Latitude, *p.Longitude) {
		return models.Location{}, apperr.NewValidation(what + " coordinates out of range")
	}
	return models.Location{
		Address:      address,
		Latitude:     *p.Latitude,
		Longitude:    *p.Longitude,
		ContactName:  p.ContactName,
		ContactPhone: p.ContactPhone,
		Notes:        p.Notes,
	}, nil
}

func locationFields(prefix string, loc models.Location) storage.Fields {
	return storage.Fields{
		prefix + "address":       loc.Address,
		prefix + "latitude":      loc.Latitude,
		prefix + "longitude":     loc.Longitude,
		prefix + "contact_name":  loc.ContactName,
		prefix + "contact_phone": loc.ContactPhone,
		prefix + "notes":         loc.Notes,
	}
}

type CreateJobInput struct {
	Title             string              `json:"title" binding:"required"`
	Description       *string             `json:"description"`
	Priority          *models.JobPriority `json:"priority"`
	PickupLocation    *LocationPayload    `json:"pickup_location" binding:"required"`
	DropoffLocation   *LocationPayload    `json:"dropoff_location" binding:"required"`
	ScheduledPickup   *time.Time          `json:"scheduled_pickup" binding:"required"`
	ScheduledDelivery *time.Time          `json:"scheduled_delivery" binding:"required"`
	DriverID          *string             `json:"driver_id"`
	VehicleID         *string             `json:"vehicle_id"`
	EstimatedDistance *float64            `json:"estimated_distance"`
	EstimatedDuration *int                `json:"estimated_duration"`
	Notes             *string             `json:"notes"`
}

type UpdateJobInput struct {
	Status            *models.JobStatus   `json:"status"`
	Title             *string             `json:"title"`
	Description       *string             `json:"description"`
	Priority          *models.JobPriority `json:"priority"`
	PickupLocation    *LocationPayload    `json:"pickup_location"`
	DropoffLocation   *LocationPayload    `json:"dropoff_location"`
	ScheduledPickup   *time.Time          `json:"scheduled_pickup"`
	ScheduledDelivery *time.Time          `json:"scheduled_delivery"`
	DriverID          *string             `json:"driver_id"`
	VehicleID         *string             `json:"vehicle_id"`
	EstimatedDistance *float64            `json:"estimated_distance"`
	EstimatedDuration *int                `json:"estimated_duration"`
	Notes             *string             `json:"notes"`
}

func (in UpdateJobInput) hasFieldChanges() bool {
	return in.Title != nil || in.Description != nil || in.Priority != nil ||
		in.PickupLocation != nil || in.DropoffLocation != nil ||
		in.ScheduledPickup != nil || in.ScheduledDelivery != nil ||
		in.DriverID != nil || in.VehicleID != nil ||
		in.EstimatedDistance != nil || in.EstimatedDuration != nil || in.Notes != nil
}

type JobFilter struct {
	Status   string
	DriverID string
}

type JobService interface {
	List(ctx context.Context, actor policy.Actor, filter JobFilter) ([]models.Job, error)
	Get(ctx context.Context, actor policy.Actor, id string) (*models.Job, error)
	Create(ctx context.Context, actor policy.Actor, in CreateJobInput) (*models.Job, error)
	// Update either moves the job's status or edits its fields and
	// assignment; a request carrying both is rejected.
	Update(ctx context.Context, actor policy.Actor, id string, in UpdateJobInput) (*models.Job, error)
}

type jobService struct {
	jobs   storage.IJobStorage
	notify *notifier
	opts   Options
	log    logrus.FieldLogger
}

func NewJobService(stg storage.IStorage, n *notifier, opts Options, log logrus.FieldLogger) JobService {
	return &jobService{jobs: stg.Job(), notify: n, opts: opts, log: log}
}

func (s *jobService) List(ctx context.Context, actor policy.Actor, filter JobFilter) ([]models.Job, error) {
	f := storage.JobFilter{DriverID: filter.DriverID}
	if filter.Status != "" {
		status := models.JobStatus(filter.Status)
		if !status.Valid() {
			return nil, apperr.NewValidation(fmt.Sprintf("Invalid job status %q", filter.Status))
		}
		f.Status = status
	}

	switch policy.Decide(actor, policy.Target{Kind: policy.KindJob, Op: policy.OpList}) {
	case policy.Deny:
		return nil, apperr.NewForbidden("Insufficient permissions")
	case policy.AllowOwn:
		f.DriverUserID = actor.ID
	}

	jobs, err := s.jobs.GetAll(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return jobs, nil
}

func (s *jobService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, "Job not found")
	}
	if err := policy.Check(actor, policy.Target{Kind: policy.KindJob, Op: policy.OpRead, OwnerID: job.AssigneeUserID()}); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *jobService) Create(ctx context.Context, actor policy.Actor, in CreateJobInput) (*models.Job, error) {
	if err := policy.Check(actor, policy.Target{Kind: policy.KindJob, Op: policy.OpCreate}); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.NewValidation("Title is required")
	}
	pickup, err := in.PickupLocation.toModel("pickup_location")
	if err != nil {
		return nil, err
	}
	dropoff, err := in.DropoffLocation.toModel("dropoff_location")
	if err != nil {
		return nil, err
	}
	if in.ScheduledPickup == nil || in.ScheduledDelivery == nil {
		return nil, apperr.NewValidation("scheduled_pickup and scheduled_delivery are required")
	}
	if in.ScheduledDelivery.Before(*in.ScheduledPickup) {
		return nil, apperr.NewValidation("scheduled_delivery must not be before scheduled_pickup")
	}
	priority := models.PriorityMedium
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, apperr.NewValidation("Invalid priority. Must be one of: low, medium, high, urgent")
		}
		priority = *in.Priority
	}
	if err := validateEstimates(in.EstimatedDistance, in.EstimatedDuration); err != nil {
		return nil, err
	}
	assign, err := assignmentFrom(in.DriverID, in.VehicleID)
	if err != nil {
		return nil, err
	}

	job := &models.Job{
		Title:             title,
		Description:       in.Description,
		Status:            models.JobPending,
		Priority:          priority,
		Pickup:            pickup,
		Dropoff:           dropoff,
		ScheduledPickup:   in.ScheduledPickup.UTC(),
		ScheduledDelivery: in.ScheduledDelivery.UTC(),
		EstimatedDistance: in.EstimatedDistance,
		EstimatedDuration: in.EstimatedDuration,
		Notes:             in.Notes,
		CreatedBy:         actor.ID,
	}
	if err := s.jobs.Create(ctx, job, assign); err != nil {
		return nil, classify(err, "Job not found")
	}

	s.log.WithFields(logrus.Fields{"job_id": job.ID, "by": actor.ID, "assigned": assign != nil}).Info("Job created")
	if assign != nil {
		s.notify.jobAssigned(ctx, job)
	}
	return job, nil
}

func (s *jobService) Update(ctx context.Context, actor policy.Actor, id string, in UpdateJobInput) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, "Job not found")
	}
	if err := policy.Check(actor, policy.Target{Kind: policy.KindJob, Op: policy.OpUpdate, OwnerID: job.AssigneeUserID()}); err != nil {
		return nil, err
	}

	if in.Status != nil {
		if in.hasFieldChanges() {
			return nil, apperr.NewValidation("Status cannot be changed together with other fields")
		}
		return s.transition(ctx, actor, job, *in.Status)
	}
	if !policy.IsDispatch(actor) {
		return nil, apperr.NewForbidden("Drivers can only update job status")
	}
	return s.edit(ctx, actor, job, in)
}

func (s *jobService) transition(ctx context.Context, actor policy.Actor, job *models.Job, target models.JobStatus) (*models.Job, error) {
	change, err := lifecycle.Plan(actor, job, target, s.opts.Now())
	if err != nil {
		return nil, err
	}
	updated, err := s.jobs.Transition(ctx, job.ID, storage.StatusChange{
		From:           change.From,
		To:             change.To,
		ActualPickup:   change.ActualPickup,
		ActualDelivery: change.ActualDelivery,
		Release:        change.Release,
	})
	if err != nil {
		return nil, classify(err, "Job not found")
	}

	s.log.WithFields(logrus.Fields{
		"job_id": job.ID,
		"from":   change.From,
		"to":     change.To,
		"by":     actor.ID,
	}).Info("Job status changed")
	if actor.ID != updated.CreatedBy {
		s.notify.jobStatusChanged(ctx, updated)
	}
	return updated, nil
}

func (s *jobService) edit(ctx context.Context, actor policy.Actor, job *models.Job, in UpdateJobInput) (*models.Job, error) {
	fields := storage.Fields{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.NewValidation("Title is required")
		}
		fields["title"] = title
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, apperr.NewValidation("Invalid priority. Must be one of: low, medium, high, urgent")
		}
		fields["priority"] = *in.Priority
	}
	if in.PickupLocation != nil {
		loc, err := in.PickupLocation.toModel("pickup_location")
		if err != nil {
			return nil, err
		}
		for k, v := range locationFields("pickup_", loc) {
			fields[k] = v
		}
	}
	if in.DropoffLocation != nil {
		loc, err := in.DropoffLocation.toModel("dropoff_location")
		if err != nil {
			return nil, err
		}
		for k, v := range locationFields("dropoff_", loc) {
			fields[k] = v
		}
	}

	pickup, delivery := job.ScheduledPickup, job.ScheduledDelivery
	if in.ScheduledPickup != nil {
		pickup = in.ScheduledPickup.UTC()
		fields["scheduled_pickup"] = pickup
	}
	if in.ScheduledDelivery != nil {
		delivery = in.ScheduledDelivery.UTC()
		fields["scheduled_delivery"] = delivery
	}
	if delivery.Before(pickup) {
		return nil, apperr.NewValidation("scheduled_delivery must not be before scheduled_pickup")
	}
	if err := validateEstimates(in.EstimatedDistance, in.EstimatedDuration); err != nil {
		return nil, err
	}
	if in.EstimatedDistance != nil {
		fields["estimated_distance"] = *in.EstimatedDistance
	}
	if in.EstimatedDuration != nil {
		fields["estimated_duration"] = *in.EstimatedDuration
	}
	if in.Notes != nil {
		fields["notes"] = *in.Notes
	}

	var assign *storage.Assignment
	if in.DriverID != nil || in.VehicleID != nil {
		driverID := in.DriverID
		if driverID == nil {
			driverID = job.DriverID
		}
		a, err := assignmentFrom(driverID, in.VehicleID)
		if err != nil {
			return nil, err
		}
		if !lifecycle.Assignable(job.Status) {
			return nil, apperr.NewValidation("Only pending or assigned jobs can be assigned")
		}
		assign = a
	}
	if len(fields) == 0 && assign == nil {
		return nil, apperr.NewValidation("No fields to update")
	}

	updated, err := s.jobs.Update(ctx, job.ID, fields, assign)
	if err != nil {
		return nil, classify(err, "Job not found")
	}

	s.log.WithFields(logrus.Fields{"job_id": job.ID, "by": actor.ID, "assigned": assign != nil}).Info("Job updated")
	if assign != nil && (job.DriverID == nil || *job.DriverID != assign.DriverID) {
		s.notify.jobAssigned(ctx, updated)
	}
	return updated, nil
}

func assignmentFrom(driverID, vehicleID *string) (*storage.Assignment, error) {
	if driverID == nil || *driverID == "" {
		if vehicleID != nil && *vehicleID != "" {
			return nil, apperr.NewValidation("A vehicle can only be assigned together with a driver")
		}
		return nil, nil
	}
	a := &storage.Assignment{DriverID: *driverID}
	if vehicleID != nil && *vehicleID != "" {
		a.VehicleID = vehicleID
	}
	return a, nil
}

func validateEstimates(distance *float64, duration *int) error {
	if distance != nil && *distance < 0 {
		return apperr.NewValidation("estimated_distance must not be negative")
	}
	if duration != nil && *duration < 0 {
		return apperr.NewValidation("estimated_duration must not be negative")
	}
	return nil
}
