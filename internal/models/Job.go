package models

import "time"

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobAssigned   JobStatus = "assigned"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobCancelled  JobStatus = "cancelled"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobPending, JobAssigned, JobInProgress, JobCompleted, JobCancelled:
		return true
	}
	return false
}

// Active reports whether a job in this status still holds its driver and vehicle.
func (s JobStatus) Active() bool {
	return s == JobAssigned || s == JobInProgress
}

type JobPriority string

const (
	PriorityLow    JobPriority = "low"
	PriorityMedium JobPriority = "medium"
	PriorityHigh   JobPriority = "high"
	PriorityUrgent JobPriority = "urgent"
)

func (p JobPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Location is stored flattened into the owning row (pickup_*, dropoff_*).
type Location struct {
	Address      string  `json:"address" gorm:"column:address"`
	Latitude     float64 `json:"latitude" gorm:"column:latitude"`
	Longitude    float64 `json:"longitude" gorm:"column:longitude"`
	ContactName  *string `json:"contact_name,omitempty" gorm:"column:contact_name"`
	ContactPhone *string `json:"contact_phone,omitempty" gorm:"column:contact_phone"`
	Notes        *string `json:"notes,omitempty" gorm:"column:notes"`
}

type Job struct {
	Base
	Title             string      `json:"title" gorm:"not null"`
	Description       *string     `json:"description,omitempty"`
	Status            JobStatus   `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`
	Priority          JobPriority `json:"priority" gorm:"type:varchar(10);not null;default:medium"`
	Pickup            Location    `json:"pickup_location" gorm:"embedded;embeddedPrefix:pickup_"`
	Dropoff           Location    `json:"dropoff_location" gorm:"embedded;embeddedPrefix:dropoff_"`
	ScheduledPickup   time.Time   `json:"scheduled_pickup" gorm:"not null"`
	ScheduledDelivery time.Time   `json:"scheduled_delivery" gorm:"not null"`
	ActualPickup      *time.Time  `json:"actual_pickup,omitempty"`
	ActualDelivery    *time.Time  `json:"actual_delivery,omitempty"`
	DriverID          *string     `json:"driver_id,omitempty" gorm:"type:uuid;index"`
	Driver            *Driver     `json:"driver,omitempty" gorm:"foreignKey:DriverID;constraint:OnDelete:SET NULL"`
	VehicleID         *string     `json:"vehicle_id,omitempty" gorm:"type:uuid;index"`
	Vehicle           *Vehicle    `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID;constraint:OnDelete:SET NULL"`
	EstimatedDistance *float64    `json:"estimated_distance,omitempty"`
	EstimatedDuration *int        `json:"estimated_duration,omitempty"`
	Notes             *string     `json:"notes,omitempty"`
	CreatedBy         string      `json:"created_by" gorm:"type:uuid;not null;index"`
	Creator           *User       `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
}

func (Job) TableName() string { return "jobs" }

// AssigneeUserID returns the user id of the attached driver, or "" when the
// job has no driver or the driver was not loaded.
func (j *Job) AssigneeUserID() string {
	if j.Driver == nil {
		return ""
	}
	return j.Driver.UserID
}
