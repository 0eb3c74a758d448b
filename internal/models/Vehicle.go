package models

import "time"

type VehicleStatus string

const (
	VehicleAvailable    VehicleStatus = "available"
	VehicleInUse        VehicleStatus = "in_use"
	VehicleMaintenance  VehicleStatus = "maintenance"
	VehicleOutOfService VehicleStatus = "out_of_service"
)

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleAvailable, VehicleInUse, VehicleMaintenance, VehicleOutOfService:
		return true
	}
	return false
}

type Vehicle struct {
	Base
	LicensePlate    string        `json:"license_plate" gorm:"uniqueIndex;not null"`
	Make            string        `json:"make" gorm:"not null"`
	Model           string        `json:"model" gorm:"not null"`
	Year            int           `json:"year" gorm:"not null"`
	Status          VehicleStatus `json:"status" gorm:"type:varchar(20);not null;default:available;index"`
	FuelCapacity    float64       `json:"fuel_capacity"`
	CurrentFuel     *float64      `json:"current_fuel,omitempty"`
	Mileage         float64       `json:"mileage"`
	LastMaintenance *time.Time    `json:"last_maintenance,omitempty"`
	NextMaintenance *time.Time    `json:"next_maintenance,omitempty" gorm:"index"`
}

func (Vehicle) TableName() string { return "vehicles" }
