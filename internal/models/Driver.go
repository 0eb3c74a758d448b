package models

import "time"

type DriverStatus string

const (
	DriverAvailable DriverStatus = "available"
	DriverOnDuty    DriverStatus = "on_duty"
	DriverOffDuty   DriverStatus = "off_duty"
	DriverBreak     DriverStatus = "break"
)

func (s DriverStatus) Valid() bool {
	switch s {
	case DriverAvailable, DriverOnDuty, DriverOffDuty, DriverBreak:
		return true
	}
	return false
}

type Driver struct {
	Base
	UserID            string       `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	User              *User        `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	LicenseNumber     string       `json:"license_number" gorm:"uniqueIndex;not null"`
	LicenseExpiry     time.Time    `json:"license_expiry" gorm:"type:date;not null"`
	Status            DriverStatus `json:"status" gorm:"type:varchar(20);not null;default:available;index"`
	CurrentLatitude   *float64     `json:"current_latitude,omitempty"`
	CurrentLongitude  *float64     `json:"current_longitude,omitempty"`
	LocationUpdatedAt *time.Time   `json:"location_updated_at,omitempty"`
	VehicleID         *string      `json:"vehicle_id,omitempty" gorm:"type:uuid;index"`
	Vehicle           *Vehicle     `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID;constraint:OnDelete:SET NULL"`
}

func (Driver) TableName() string { return "drivers" }
