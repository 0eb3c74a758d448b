package service

import (
	"errors"

	"fleet_dispatch/internal/apperr"
	"fleet_dispatch/internal/storage"
)

const assignFailedMsg = "Failed to assign job. Driver or vehicle may not be available."

var duplicateMessages = map[string]string{
	"email":          "A user with this email already exists",
	"license_number": "A driver with this license number already exists",
	"license_plate":  "A vehicle with this license plate already exists",
	"user_id":        "This user already has a driver profile",
}

// classify turns a storage failure into a client facing error. notFound is
// the message used when the target row does not exist.
func classify(err error, notFound string) error {
	if err == nil {
		return nil
	}
	var dup *storage.DuplicateError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.Wrap(err, apperr.NotFound, notFound)
	case errors.As(err, &dup):
		msg, ok := duplicateMessages[dup.Field]
		if !ok {
			msg = "Record already exists"
		}
		return apperr.Wrap(err, apperr.Conflict, msg)
	case errors.Is(err, storage.ErrUnavailable):
		return apperr.Wrap(err, apperr.Conflict, assignFailedMsg)
	case errors.Is(err, storage.ErrStaleStatus):
		return apperr.Wrap(err, apperr.Conflict, "Job status was changed by another request")
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(err)
}
