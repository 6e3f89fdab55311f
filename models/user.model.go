package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name                string    `gorm:"default:''"`
	Email               string    `gorm:"unique;not null"`
	Role                string    `gorm:"default:'USER'"` // USER, STAFF
	Password            string    `gorm:"not null"`
	LastLogin           time.Time `gorm:"default:NULL"`
	FailedLoginAttempts int       `gorm:"default:0"`
	IsBlocked           bool      `gorm:"default:false"`
	IsDeleted           bool      `gorm:"default:false"`
}

// IsStaff reports whether the user holds elevated privileges. Staff users
// bypass the subscription check on course content.
func (u *User) IsStaff() bool {
	return u.Role == "STAFF"
}
