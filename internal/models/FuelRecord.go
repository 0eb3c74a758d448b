package models

import "time"

type FuelRecord struct {
	Base
	VehicleID string    `json:"vehicle_id" gorm:"type:uuid;not null;index"`
	DriverID  string    `json:"driver_id" gorm:"type:uuid;not null;index"`
	Amount    float64   `json:"amount" gorm:"not null"`
	Cost      float64   `json:"cost" gorm:"not null"`
	Mileage   float64   `json:"mileage"`
	Location  *string   `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
}

func (FuelRecord) TableName() string { return "fuel_records" }
