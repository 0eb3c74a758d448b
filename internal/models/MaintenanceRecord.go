package models

import "time"

type MaintenanceType string

const (
	MaintenanceRoutine    MaintenanceType = "routine"
	MaintenanceRepair     MaintenanceType = "repair"
	MaintenanceInspection MaintenanceType = "inspection"
	MaintenanceFuel       MaintenanceType = "fuel"
)

func (t MaintenanceType) Valid() bool {
	switch t {
	case MaintenanceRoutine, MaintenanceRepair, MaintenanceInspection, MaintenanceFuel:
		return true
	}
	return false
}

type MaintenanceRecord struct {
	Base
	VehicleID   string          `json:"vehicle_id" gorm:"type:uuid;not null;index"`
	Type        MaintenanceType `json:"type" gorm:"type:varchar(20);not null"`
	Description string          `json:"description" gorm:"not null"`
	Cost        *float64        `json:"cost,omitempty"`
	Mileage     float64         `json:"mileage"`
	PerformedBy *string         `json:"performed_by,omitempty"`
	PerformedAt time.Time       `json:"performed_at" gorm:"not null"`
	NextDue     *time.Time      `json:"next_due,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
}

func (MaintenanceRecord) TableName() string { return "maintenance_records" }
