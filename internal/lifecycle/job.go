// Package lifecycle owns the job status state machine.
//
//	pending -> assigned -> in_progress -> completed
//	pending | assigned -> cancelled
//
// completed and cancelled are terminal.
package lifecycle

import (
	"fmt"
	"time"

	"fleet_dispatch/internal/apperr"
	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/policy"
)

var transitions = map[models.JobStatus][]models.JobStatus{
	models.JobPending:    {models.JobAssigned, models.JobCancelled},
	models.JobAssigned:   {models.JobInProgress, models.JobCancelled},
	models.JobInProgress: {models.JobCompleted},
}

// CanTransition reports whether the edge from -> to exists.
func CanTransition(from, to models.JobStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Assignable reports whether a job in status s may be given a driver.
func Assignable(s models.JobStatus) bool {
	return s == models.JobPending || s == models.JobAssigned
}

// Change is an approved status transition together with the side effects the
// store must apply in the same write.
type Change struct {
	From           models.JobStatus
	To             models.JobStatus
	ActualPickup   *time.Time
	ActualDelivery *time.Time
	// Release returns the job's driver and vehicle to available.
	Release bool
}

// Plan validates moving job to target on behalf of actor. The job's Driver
// must be loaded so the assignee can be checked.
func Plan(actor policy.Actor, job *models.Job, target models.JobStatus, now time.Time) (*Change, error) {
	if !target.Valid() {
		return nil, apperr.NewValidation(fmt.Sprintf("Invalid job status %q", target))
	}

	if actor.Role == models.RoleDriver {
		if job.AssigneeUserID() == "" || job.AssigneeUserID() != actor.ID {
			return nil, apperr.NewForbidden("Job is not assigned to you")
		}
		if target != models.JobInProgress && target != models.JobCompleted {
			return nil, apperr.NewValidation("Drivers can only set status to in_progress or completed")
		}
	} else if !policy.IsDispatch(actor) {
		return nil, apperr.NewForbidden("Insufficient permissions")
	}

	if !CanTransition(job.Status, target) {
		return nil, apperr.NewValidation(fmt.Sprintf("Cannot change job status from %s to %s", job.Status, target))
	}
	if target == models.JobAssigned && job.DriverID == nil {
		return nil, apperr.NewValidation("A job must have a driver to be assigned")
	}

	ch := &Change{From: job.Status, To: target}
	switch target {
	case models.JobInProgress:
		t := now
		ch.ActualPickup = &t
	case models.JobCompleted:
		t := now
		if job.ActualPickup != nil && t.Before(*job.ActualPickup) {
			t = *job.ActualPickup
		}
		ch.ActualDelivery = &t
		ch.Release = true
	case models.JobCancelled:
		ch.Release = true
	}
	return ch, nil
}

// ValidateDriverStatus checks a status a driver sets on their own record.
func ValidateDriverStatus(s models.DriverStatus) error {
	if !s.Valid() {
		return apperr.NewValidation("Invalid status. Must be one of: available, on_duty, off_duty, break")
	}
	return nil
}
