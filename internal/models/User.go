package models

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDispatcher Role = "dispatcher"
	RoleDriver     Role = "driver"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDispatcher, RoleDriver:
		return true
	}
	return false
}

type User struct {
	Base
	Email        string  `json:"email" gorm:"uniqueIndex;not null"`
	FullName     string  `json:"full_name" gorm:"not null"`
	Role         Role    `json:"role" gorm:"type:varchar(20);not null;index"`
	Phone        *string `json:"phone,omitempty"`
	PasswordHash string  `json:"-" gorm:"not null"`
}

func (User) TableName() string { return "users" }
