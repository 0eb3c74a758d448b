package models

import "time"

const (
	EventInitial  = "initial"
	EventMove     = "move"
	EventStopped  = "stopped"
	EventStarted  = "started"
	EventPeriodic = "periodic"
)

type TrackingData struct {
	Base
	DriverID         string    `json:"driver_id" gorm:"type:uuid;not null;index:idx_tracking_driver_time,priority:1"`
	JobID            *string   `json:"job_id,omitempty" gorm:"type:uuid;index"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	Speed            *float64  `json:"speed,omitempty"`   // m/s
	Heading          *float64  `json:"heading,omitempty"` // degrees
	Accuracy         *float64  `json:"accuracy,omitempty"`
	IsMoving         bool      `json:"is_moving"`
	DistanceFromLast float64   `json:"distance_from_last"`
	EventType        string    `json:"event_type" gorm:"type:varchar(20)"`
	Timestamp        time.Time `json:"timestamp" gorm:"not null;index:idx_tracking_driver_time,priority:2"`
}

func (TrackingData) TableName() string { return "tracking_data" }
