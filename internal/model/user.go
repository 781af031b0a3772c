package model

import (
	"time"

	"gorm.io/gorm"
)

// Role gates which catalog operations a user may perform.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleTestManager  Role = "test_manager"
	RoleTestEngineer Role = "test_engineer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTestManager, RoleTestEngineer:
		return true
	}
	return false
}

// User is a login identity with a single role.
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name  string `gorm:"type:varchar(200);not null" json:"name"`
	Email string `gorm:"type:varchar(320);not null;uniqueIndex" json:"email"`
	// bcrypt hash, never serialised
	PasswordHash string `gorm:"type:varchar(100);not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:test_engineer;index" json:"role"`
}
