package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

type RunStatus string

const (
	RunInProgress RunStatus = "In Progress"
	RunCompleted  RunStatus = "Completed"
	RunCancelled  RunStatus = "Cancelled"
)

func (s RunStatus) Valid() bool {
	switch s {
	case RunInProgress, RunCompleted, RunCancelled:
		return true
	}
	return false
}

type ExecutionStatus string

const (
	NotExecuted ExecutionStatus = "Not Executed"
	Passed      ExecutionStatus = "Passed"
	Failed      ExecutionStatus = "Failed"
	Blocked     ExecutionStatus = "Blocked"
	Rejected    ExecutionStatus = "Rejected"
)

func (s ExecutionStatus) Valid() bool {
	switch s {
	case NotExecuted, Passed, Failed, Blocked, Rejected:
		return true
	}
	return false
}

// TestRun is a project-scoped set of execution slots. The whole run, slots and
// their history included, is stored as one row and updated with a version check.
type TestRun struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name        string     `gorm:"type:varchar(200);not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	ProjectID   uint       `gorm:"not null;index" json:"projectId"`
	Status      RunStatus  `gorm:"type:varchar(20);not null;default:'In Progress'" json:"status"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	CreatedBy   uint       `gorm:"not null;index" json:"createdBy"`

	TestCases Slots `gorm:"type:longtext" json:"testCases"`

	// Optimistic lock, bumped on every write.
	Version uint `gorm:"not null;default:0" json:"version"`
}

// Slot is one test case's execution state within a run.
type Slot struct {
	TestCaseID    uint            `json:"testCaseId"`
	Status        ExecutionStatus `json:"status"`
	ActualResults string          `json:"actualResults"`
	Notes         string          `json:"notes"`
	ExecutedBy    *uint           `json:"executedBy"`
	ExecutedAt    *time.Time      `json:"executedAt"`
	History       []HistoryEntry  `json:"history"`
}

// HistoryEntry is a snapshot of a slot taken right before it was re-executed.
type HistoryEntry struct {
	Status        ExecutionStatus `json:"status"`
	ActualResults string          `json:"actualResults"`
	Notes         string          `json:"notes"`
	ExecutedBy    *uint           `json:"executedBy"`
	ExecutedAt    time.Time       `json:"executedAt"`
}

// Slots is the JSON column holding a run's slots.
type Slots []Slot

func (s Slots) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Slot(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Slots) Scan(src interface{}) error {
	return scanJSON(src, s)
}
