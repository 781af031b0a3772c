package model

import (
	"time"

	"gorm.io/gorm"
)

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type CaseType string

const (
	CaseFunctional  CaseType = "Functional"
	CaseIntegration CaseType = "Integration"
	CaseUIUX        CaseType = "UI/UX"
	CasePerformance CaseType = "Performance"
	CaseSecurity    CaseType = "Security"
)

func (t CaseType) Valid() bool {
	switch t {
	case CaseFunctional, CaseIntegration, CaseUIUX, CasePerformance, CaseSecurity:
		return true
	}
	return false
}

// CaseStatus is the authoring/last-known status of a test case in the catalog.
// It is independent of any run's slot status.
type CaseStatus string

const (
	CaseDraft      CaseStatus = "Draft"
	CaseReady      CaseStatus = "Ready"
	CaseInProgress CaseStatus = "In Progress"
	CasePassed     CaseStatus = "Passed"
	CaseFailed     CaseStatus = "Failed"
	CaseBlocked    CaseStatus = "Blocked"
	CaseRejected   CaseStatus = "Rejected"
)

func (s CaseStatus) Valid() bool {
	switch s {
	case CaseDraft, CaseReady, CaseInProgress, CasePassed, CaseFailed, CaseBlocked, CaseRejected:
		return true
	}
	return false
}

// TestCase is a single scenario in a test suite.
type TestCase struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Human readable code, TC-<base36 unix millis>
	Code string `gorm:"column:test_case_code;type:varchar(32);not null;uniqueIndex" json:"testCaseId"`

	ProjectID   uint  `gorm:"not null;index" json:"project"`
	ModuleID    *uint `gorm:"index" json:"module"`
	TestSuiteID uint  `gorm:"not null;index" json:"testSuite"`

	Title           string     `gorm:"type:varchar(500);not null" json:"title"`
	Description     string     `gorm:"type:text;not null" json:"description"`
	Priority        Priority   `gorm:"type:varchar(20);not null;default:Medium" json:"priority"`
	Type            CaseType   `gorm:"type:varchar(20);not null;default:Functional" json:"type"`
	Preconditions   string     `gorm:"type:text" json:"preconditions"`
	Steps           string     `gorm:"type:text;not null" json:"steps"`
	ExpectedResults string     `gorm:"type:text" json:"expectedResults"`
	Status          CaseStatus `gorm:"type:varchar(20);not null;default:Draft" json:"status"`
	CreatedBy       *uint      `gorm:"index" json:"createdBy"`
	Tags            StringList `gorm:"type:text" json:"tags"`
}

// TestExecution is an execution logged against a test case outside of any run.
type TestExecution struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	TestCaseID    uint            `gorm:"not null;index" json:"testCaseId"`
	Status        ExecutionStatus `gorm:"type:varchar(20);not null;default:'Not Executed'" json:"status"`
	ActualResults string          `gorm:"type:text" json:"actualResults"`
	Notes         string          `gorm:"type:text" json:"notes"`
	ExecutedBy    *uint           `gorm:"index" json:"executedBy"`
}
