package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"testhub/internal/apperr"
	"testhub/internal/logger"
	"testhub/internal/model"
	"testhub/internal/runengine"
)

// TestRunService persists runs. Every change is a read-modify-write of the
// whole run row guarded by its version: a lost race reloads the run and
// reapplies the change, up to maxRetries attempts, so concurrent executions of
// different slots never overwrite each other and a superseded execution is
// always archived into history exactly once.
type TestRunService struct {
	db         *gorm.DB
	projects   *ProjectService
	cases      *TestCaseService
	users      *UserService
	clock      Clock
	maxRetries int
}

func NewTestRunService(db *gorm.DB, projects *ProjectService, cases *TestCaseService, users *UserService, clock Clock, maxRetries int) *TestRunService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &TestRunService{
		db:         db,
		projects:   projects,
		cases:      cases,
		users:      users,
		clock:      clock,
		maxRetries: maxRetries,
	}
}

type CreateRunInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ProjectID   uint   `json:"projectId"`
	TestCaseIDs []uint `json:"testCaseIds"`
}

func (s *TestRunService) Create(ctx context.Context, in CreateRunInput, createdBy uint) (*model.TestRun, error) {
	run, err := runengine.CreateRun(runengine.CreateInput{
		Name:        in.Name,
		Description: in.Description,
		ProjectID:   in.ProjectID,
		TestCaseIDs: in.TestCaseIDs,
		CreatedBy:   createdBy,
		Now:         s.clock.now(),
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.Get(ctx, in.ProjectID); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, apperr.Wrap(err, "create test run")
	}
	return run, nil
}

func (s *TestRunService) Get(ctx context.Context, id uint) (*model.TestRun, error) {
	var run model.TestRun
	if err := s.db.WithContext(ctx).First(&run, id).Error; err != nil {
		return nil, lookupErr(err, "Test run not found")
	}
	return &run, nil
}

// ListByProject returns the project's runs, newest first.
func (s *TestRunService) ListByProject(ctx context.Context, projectID uint) ([]model.TestRun, error) {
	var runs []model.TestRun
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").Order("id DESC").
		Find(&runs).Error; err != nil {
		return nil, apperr.Wrap(err, "list test runs")
	}
	return runs, nil
}

// mutate loads the run, applies fn and writes it back if nobody else wrote in
// between. fn must be safe to call again on a freshly loaded run.
func (s *TestRunService) mutate(ctx context.Context, id uint, fn func(run *model.TestRun, now time.Time) error) (*model.TestRun, error) {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		run, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		now := s.clock.now()
		if err := fn(run, now); err != nil {
			return nil, err
		}
		saved, err := s.save(ctx, run, now)
		if err != nil {
			return nil, err
		}
		if saved {
			return run, nil
		}
		logger.L.Debugw("test run changed underneath, retrying", "run_id", id, "attempt", attempt)
	}
	logger.L.Warnw("test run update gave up", "run_id", id, "attempts", s.maxRetries)
	return nil, apperr.Conflict("Test run was modified concurrently, please retry")
}

// save writes run if its version is still current and reports whether it did.
func (s *TestRunService) save(ctx context.Context, run *model.TestRun, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.TestRun{}).
		Where("id = ? AND version = ?", run.ID, run.Version).
		Updates(map[string]interface{}{
			"name":        run.Name,
			"description": run.Description,
			"status":      run.Status,
			"end_date":    run.EndDate,
			"test_cases":  run.TestCases,
			"version":     run.Version + 1,
			"updated_at":  now,
		})
	if res.Error != nil {
		return false, apperr.Wrap(res.Error, "save test run")
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	run.Version++
	run.UpdatedAt = now
	return true, nil
}

type UpdateRunInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Status      *model.RunStatus `json:"status"`
}

func (s *TestRunService) Update(ctx context.Context, id uint, in UpdateRunInput) (*model.TestRun, error) {
	return s.mutate(ctx, id, func(run *model.TestRun, now time.Time) error {
		return runengine.UpdateRun(run, runengine.UpdateInput{
			Name:        in.Name,
			Description: in.Description,
			Status:      in.Status,
		}, now)
	})
}

// Delete removes the run with all of its slots and history.
func (s *TestRunService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.TestRun{}, id)
	if res.Error != nil {
		return apperr.Wrap(res.Error, "delete test run")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Test run not found")
	}
	return nil
}

func (s *TestRunService) AddTestCases(ctx context.Context, id uint, testCaseIDs []uint) (*model.TestRun, error) {
	return s.mutate(ctx, id, func(run *model.TestRun, _ time.Time) error {
		runengine.AddTestCases(run, testCaseIDs)
		return nil
	})
}

// RemoveTestCase drops the slot and, with it, its execution history.
func (s *TestRunService) RemoveTestCase(ctx context.Context, id, testCaseID uint) (*model.TestRun, error) {
	var dropped int
	run, err := s.mutate(ctx, id, func(run *model.TestRun, _ time.Time) error {
		dropped = 0
		if slot := runengine.RemoveTestCase(run, testCaseID); slot != nil {
			dropped = len(slot.History)
			if slot.ExecutedAt != nil {
				dropped++
			}
		}
		return nil
	})
	if err == nil && dropped > 0 {
		logger.L.Infow("removed test case from run, execution history discarded",
			"run_id", id, "test_case_id", testCaseID, "executions_dropped", dropped)
	}
	return run, err
}

type ExecuteInput struct {
	Status        model.ExecutionStatus `json:"status"`
	ActualResults string                `json:"actualResults"`
	Notes         string                `json:"notes"`
}

func (s *TestRunService) Execute(ctx context.Context, id, testCaseID uint, in ExecuteInput, executedBy uint) (*model.TestRun, error) {
	return s.mutate(ctx, id, func(run *model.TestRun, now time.Time) error {
		return runengine.ExecuteTestCase(run, runengine.ExecuteInput{
			TestCaseID:    testCaseID,
			Status:        in.Status,
			ActualResults: in.ActualResults,
			Notes:         in.Notes,
			ExecutorID:    executedBy,
			Now:           now,
		})
	})
}

func (s *TestRunService) Complete(ctx context.Context, id uint) (*model.TestRun, error) {
	return s.mutate(ctx, id, func(run *model.TestRun, now time.Time) error {
		runengine.CompleteRun(run, now)
		return nil
	})
}

func (s *TestRunService) History(ctx context.Context, id, testCaseID uint) ([]HistoryDetail, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := runengine.GetHistory(run, testCaseID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(history))
	for _, h := range history {
		if h.ExecutedBy != nil {
			ids = append(ids, *h.ExecutedBy)
		}
	}
	names, err := s.users.Names(ctx, ids)
	if err != nil {
		return nil, err
	}
	return historyDetails(history, names), nil
}

func (s *TestRunService) Metrics(ctx context.Context, id uint) (runengine.Metrics, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return runengine.Metrics{}, err
	}
	return runengine.ComputeMetrics(run), nil
}

// Latest returns the most recently created run of a project, or nil.
func (s *TestRunService) Latest(ctx context.Context, projectID uint) (*model.TestRun, error) {
	var run model.TestRun
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").Order("id DESC").
		Take(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err, "load latest test run")
	}
	return &run, nil
}

func (s *TestRunService) CountByProject(ctx context.Context, projectID uint) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.TestRun{}).Where("project_id = ?", projectID).Count(&n).Error; err != nil {
		return 0, apperr.Wrap(err, "count test runs")
	}
	return n, nil
}
