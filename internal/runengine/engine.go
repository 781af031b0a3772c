// Package runengine implements the test run state machine: slot bookkeeping,
// the execute transition that archives the previous live state into history,
// run metrics and completion. It does no I/O; the service layer loads a run,
// applies one of these functions and writes it back under a version check.
package runengine

import (
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"testhub/internal/apperr"
	"testhub/internal/model"
)

var validate = validator.New()

// CreateInput describes a new run.
type CreateInput struct {
	Name        string `validate:"required"`
	Description string
	ProjectID   uint `validate:"required"`
	TestCaseIDs []uint
	CreatedBy   uint
	Now         time.Time
}

var createMessages = map[string]string{
	"Name":      "Test run name is required",
	"ProjectID": "Project ID is required",
}

// CreateRun builds an in-progress run with one unexecuted slot per test case.
func CreateRun(in CreateInput) (*model.TestRun, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			return nil, apperr.Validation("%s", createMessages[fieldErrs[0].Field()])
		}
		return nil, apperr.Wrap(err, "validate test run")
	}

	run := &model.TestRun{
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		ProjectID:   in.ProjectID,
		Status:      model.RunInProgress,
		StartDate:   in.Now,
		CreatedBy:   in.CreatedBy,
		TestCases:   model.Slots{},
	}
	AddTestCases(run, in.TestCaseIDs)
	return run, nil
}

func newSlot(testCaseID uint) model.Slot {
	return model.Slot{
		TestCaseID: testCaseID,
		Status:     model.NotExecuted,
		History:    []model.HistoryEntry{},
	}
}

func indexOf(run *model.TestRun, testCaseID uint) int {
	for i := range run.TestCases {
		if run.TestCases[i].TestCaseID == testCaseID {
			return i
		}
	}
	return -1
}

// AddTestCases appends a fresh slot for every ID not already in the run and
// returns how many were added. Known IDs are skipped without error.
func AddTestCases(run *model.TestRun, testCaseIDs []uint) int {
	added := 0
	for _, id := range testCaseIDs {
		if indexOf(run, id) >= 0 {
			continue
		}
		run.TestCases = append(run.TestCases, newSlot(id))
		added++
	}
	return added
}

// RemoveTestCase drops the slot for testCaseID together with its history.
// It returns the removed slot, or nil when the run had none.
func RemoveTestCase(run *model.TestRun, testCaseID uint) *model.Slot {
	i := indexOf(run, testCaseID)
	if i < 0 {
		return nil
	}
	removed := run.TestCases[i]
	run.TestCases = append(run.TestCases[:i:i], run.TestCases[i+1:]...)
	return &removed
}

// ExecuteInput is one execution of a slot.
type ExecuteInput struct {
	TestCaseID    uint
	Status        model.ExecutionStatus
	ActualResults string
	Notes         string
	ExecutorID    uint
	Now           time.Time
}

// ExecuteTestCase records an execution. A slot that was executed before has
// its current live state appended to history first, so history always holds
// every execution except the latest, oldest first.
func ExecuteTestCase(run *model.TestRun, in ExecuteInput) error {
	if !in.Status.Valid() {
		return apperr.Validation("Invalid status %q", in.Status)
	}
	i := indexOf(run, in.TestCaseID)
	if i < 0 {
		return apperr.NotFound("Test case not found in this test run")
	}

	slot := &run.TestCases[i]
	if slot.ExecutedAt != nil {
		slot.History = append(slot.History, model.HistoryEntry{
			Status:        slot.Status,
			ActualResults: slot.ActualResults,
			Notes:         slot.Notes,
			ExecutedBy:    slot.ExecutedBy,
			ExecutedAt:    *slot.ExecutedAt,
		})
	}

	executor := in.ExecutorID
	now := in.Now
	slot.Status = in.Status
	slot.ActualResults = strings.TrimSpace(in.ActualResults)
	slot.Notes = strings.TrimSpace(in.Notes)
	slot.ExecutedBy = &executor
	slot.ExecutedAt = &now
	return nil
}

// GetHistory returns a copy of the slot's archived executions, without the
// live state.
func GetHistory(run *model.TestRun, testCaseID uint) ([]model.HistoryEntry, error) {
	i := indexOf(run, testCaseID)
	if i < 0 {
		return nil, apperr.NotFound("Test case not found in this test run")
	}
	out := make([]model.HistoryEntry, len(run.TestCases[i].History))
	copy(out, run.TestCases[i].History)
	return out, nil
}

// Metrics summarises a run's slots.
type Metrics struct {
	Total       int `json:"totalTestCases"`
	Executed    int `json:"executed"`
	Passed      int `json:"passed"`
	Failed      int `json:"failed"`
	Blocked     int `json:"blocked"`
	Rejected    int `json:"rejected"`
	NotExecuted int `json:"notExecuted"`
	// Passed over all slots, executed or not.
	PassRate int `json:"passRate"`
}

// ComputeMetrics counts slots by status; PassRate is passed over all slots, unexecuted included.
func ComputeMetrics(run *model.TestRun) Metrics {
	m := Metrics{Total: len(run.TestCases)}
	for _, s := range run.TestCases {
		if s.Status != model.NotExecuted {
			m.Executed++
		}
		switch s.Status {
		case model.Passed:
			m.Passed++
		case model.Failed:
			m.Failed++
		case model.Blocked:
			m.Blocked++
		case model.Rejected:
			m.Rejected++
		}
	}
	m.NotExecuted = m.Total - m.Executed
	m.PassRate = Percent(m.Passed, m.Total)
	return m
}

// Percent is part/whole*100 rounded half away from zero, or 0 when whole is not positive.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// CompleteRun marks the run completed as of now. It does not require every
// slot to be executed and may be called again to move the end date.
func CompleteRun(run *model.TestRun, now time.Time) {
	run.Status = model.RunCompleted
	end := now
	run.EndDate = &end
}

// UpdateInput is a partial run update. Nil or empty fields are left as they are.
type UpdateInput struct {
	Name        *string
	Description *string
	Status      *model.RunStatus
}

// UpdateRun applies a partial update. Moving to Completed through here sets the
// end date exactly as CompleteRun does. Leaving Completed or Cancelled is allowed.
func UpdateRun(run *model.TestRun, in UpdateInput, now time.Time) error {
	if in.Status != nil && *in.Status != "" && !in.Status.Valid() {
		return apperr.Validation("Invalid status %q", *in.Status)
	}
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			run.Name = name
		}
	}
	if in.Description != nil {
		if desc := strings.TrimSpace(*in.Description); desc != "" {
			run.Description = desc
		}
	}
	if in.Status != nil && *in.Status != "" {
		if *in.Status == model.RunCompleted {
			CompleteRun(run, now)
		} else {
			run.Status = *in.Status
		}
	}
	return nil
}
