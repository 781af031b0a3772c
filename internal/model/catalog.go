package model

import (
	"time"

	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "Planning"
	ProjectActive    ProjectStatus = "Active"
	ProjectOnHold    ProjectStatus = "On Hold"
	ProjectCompleted ProjectStatus = "Completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted:
		return true
	}
	return false
}

// Project is the root of the catalog tree.
type Project struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string        `gorm:"type:varchar(200);not null" json:"name"`
	Description string        `gorm:"type:text;not null" json:"description"`
	Status      ProjectStatus `gorm:"type:varchar(20);not null;default:Planning" json:"status"`
	CreatedBy   uint          `gorm:"not null;index" json:"createdBy"`

	// Denormalised child references, kept best-effort by the module service.
	ModuleIDs IDList `gorm:"type:text" json:"modules"`
}

// Module groups test suites inside a project.
type Module struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string `gorm:"type:varchar(200);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	ProjectID   uint   `gorm:"not null;index" json:"project"`
	CreatedBy   uint   `gorm:"index" json:"createdBy"`

	// Denormalised child references, kept best-effort by the test suite service.
	TestSuiteIDs IDList `gorm:"type:text" json:"testSuites"`
}

// TestSuite groups test cases inside a module.
type TestSuite struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string `gorm:"type:varchar(200);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	ModuleID    uint   `gorm:"not null;index" json:"module"`
	ProjectID   uint   `gorm:"not null;index" json:"project"`
	CreatedBy   uint   `gorm:"index" json:"createdBy"`
}
