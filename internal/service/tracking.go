package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"fleet_dispatch/internal/apperr"
	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/policy"
	"fleet_dispatch/internal/storage"
)

type LocationInput struct {
	Latitude  *float64   `json:"latitude" binding:"required"`
	Longitude *float64   `json:"longitude" binding:"required"`
	Speed     *float64   `json:"speed"`   // m/s
	Heading   *float64   `json:"heading"` // degrees
	Accuracy  *float64   `json:"accuracy"`
	JobID     *string    `json:"job_id"`
	Timestamp *time.Time `json:"timestamp"`
}

// LocationUpdate is what subscribers of the live feed receive.
type LocationUpdate struct {
	Type      string    `json:"type"`
	DriverID  string    `json:"driver_id"`
	JobID     *string   `json:"job_id,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     float64   `json:"speed"`
	Heading   float64   `json:"heading"`
	IsMoving  bool      `json:"is_moving"`
	EventType string    `json:"event_type,omitempty"`
	Recorded  bool      `json:"recorded"`
	Timestamp time.Time `json:"timestamp"`
}

// Trail is a driver's recent path, oldest point first.
type Trail struct {
	DriverID       string                `json:"driver_id"`
	Points         []models.TrackingData `json:"points"`
	DistanceMeters float64               `json:"distance_meters"`
	Geometry       json.RawMessage       `json:"geometry"`
}

// UpdateLocation moves the driver's current location, appends the fix to the
// trail when it is significant, and publishes it on the live feed.
func (s *driverService) UpdateLocation(ctx context.Context, actor policy.Actor, id string, in LocationInput) (*LocationUpdate, error) {
	d, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, "Driver not found")
	}
	if err := policy.Check(actor, policy.Target{Kind: policy.KindDriver, Op: policy.OpUpdate, OwnerID: d.UserID}); err != nil {
		return nil, err
	}
	if err := validateLocation(in); err != nil {
		return nil, err
	}
	if in.JobID != nil {
		job, err := s.jobs.GetByID(ctx, *in.JobID)
		if err != nil {
			return nil, classify(err, "Job not found")
		}
		if job.DriverID == nil || *job.DriverID != d.ID {
			return nil, apperr.NewValidation("Job is not assigned to this driver")
		}
	}

	lat, lon := *in.Latitude, *in.Longitude
	at := s.opts.Now()
	if in.Timestamp != nil {
		at = in.Timestamp.UTC()
	}

	last, err := s.tracking.Last(ctx, d.ID)
	if errors.Is(err, storage.ErrNotFound) {
		last = nil
	} else if err != nil {
		return nil, apperr.Internal(err)
	}

	var distance, speed, heading float64
	if last != nil {
		distance = haversine(last.Latitude, last.Longitude, lat, lon)
		heading = bearing(last.Latitude, last.Longitude, lat, lon)
		if dt := at.Sub(last.Timestamp).Seconds(); dt > 0 {
			speed = distance / dt
		}
	}
	if in.Speed != nil {
		speed = *in.Speed
	}
	if in.Heading != nil {
		heading = *in.Heading
	}

	significant, event := classifyMovement(last, distance, speed, at)
	moving := speed >= minSpeedForMoving

	var point *models.TrackingData
	if significant {
		point = &models.TrackingData{
			DriverID:         d.ID,
			JobID:            in.JobID,
			Latitude:         lat,
			Longitude:        lon,
			Speed:            &speed,
			Heading:          &heading,
			Accuracy:         in.Accuracy,
			IsMoving:         moving,
			DistanceFromLast: distance,
			EventType:        event,
			Timestamp:        at,
		}
	}
	if err := s.tracking.Record(ctx, d.ID, lat, lon, at, point); err != nil {
		return nil, classify(err, "Driver not found")
	}

	update := &LocationUpdate{
		Type:      "location",
		DriverID:  d.ID,
		JobID:     in.JobID,
		Latitude:  lat,
		Longitude: lon,
		Speed:     speed,
		Heading:   heading,
		IsMoving:  moving,
		EventType: event,
		Recorded:  significant,
		Timestamp: at,
	}
	s.opts.Broadcaster.Broadcast(update)

	s.log.WithFields(logrus.Fields{
		"driver_id":  d.ID,
		"event_type": event,
		"distance_m": distance,
		"recorded":   significant,
	}).Debug("Driver location updated")
	return update, nil
}

// Track returns the driver's recent trail with a GeoJSON geometry: a
// LineString for two or more points, a Point for one, null for none.
func (s *driverService) Track(ctx context.Context, actor policy.Actor, id string) (*Trail, error) {
	d, err := s.drivers.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err, "Driver not found")
	}
	if err := policy.Check(actor, policy.Target{Kind: policy.KindDriver, Op: policy.OpRead, OwnerID: d.UserID}); err != nil {
		return nil, err
	}

	points, err := s.tracking.List(ctx, d.ID, s.opts.TrackLimit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	// newest first from storage; the trail reads oldest first
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	trail := &Trail{DriverID: d.ID, Points: points, Geometry: json.RawMessage("null")}
	coords := make([]geom.Coord, 0, len(points))
	for i, p := range points {
		coords = append(coords, geom.Coord{p.Longitude, p.Latitude})
		if i > 0 {
			trail.DistanceMeters += haversine(points[i-1].Latitude, points[i-1].Longitude, p.Latitude, p.Longitude)
		}
	}

	var g geom.T
	switch len(coords) {
	case 0:
		return trail, nil
	case 1:
		g = geom.NewPoint(geom.XY).MustSetCoords(coords[0])
	default:
		g = geom.NewLineString(geom.XY).MustSetCoords(coords)
	}
	raw, err := geojson.Marshal(g)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	trail.Geometry = raw
	return trail, nil
}

func validateLocation(in LocationInput) error {
	if in.Latitude == nil || in.Longitude == nil {
		return apperr.NewValidation("latitude and longitude are required")
	}
	if !validCoordinates(*in.Latitude, *in.Longitude) {
		return apperr.NewValidation("Coordinates out of range")
	}
	if in.Speed != nil && *in.Speed < 0 {
		return apperr.NewValidation("speed must not be negative")
	}
	if in.Heading != nil && (*in.Heading < 0 || *in.Heading >= 360) {
		return apperr.NewValidation("heading must be in [0, 360)")
	}
	if in.Accuracy != nil && *in.Accuracy < 0 {
		return apperr.NewValidation("accuracy must not be negative")
	}
	return nil
}
