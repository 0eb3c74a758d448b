package models

type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifyWarning NotificationType = "warning"
	NotifyError   NotificationType = "error"
	NotifySuccess NotificationType = "success"
)

type Notification struct {
	Base
	UserID  string           `json:"user_id" gorm:"type:uuid;not null;index"`
	Title   string           `json:"title" gorm:"not null"`
	Message string           `json:"message" gorm:"not null"`
	Type    NotificationType `json:"type" gorm:"type:varchar(10);not null;default:info"`
	Read    bool             `json:"read" gorm:"not null;default:false"`
	Data    *string          `json:"data,omitempty"`
}

func (Notification) TableName() string { return "notifications" }

// DashboardStats is computed on request and never persisted.
type DashboardStats struct {
	TotalJobs         int64 `json:"total_jobs"`
	ActiveJobs        int64 `json:"active_jobs"`
	CompletedJobs     int64 `json:"completed_jobs"`
	TotalDrivers      int64 `json:"total_drivers"`
	AvailableDrivers  int64 `json:"available_drivers"`
	TotalVehicles     int64 `json:"total_vehicles"`
	AvailableVehicles int64 `json:"available_vehicles"`
	MaintenanceDue    int64 `json:"maintenance_due"`
}
