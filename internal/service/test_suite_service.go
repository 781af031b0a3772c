package service

import (
	"context"

	"gorm.io/gorm"

	"testhub/internal/apperr"
	"testhub/internal/logger"
	"testhub/internal/model"
)

type TestSuiteService struct {
	db      *gorm.DB
	modules *ModuleService
}

func NewTestSuiteService(db *gorm.DB, modules *ModuleService) *TestSuiteService {
	return &TestSuiteService{db: db, modules: modules}
}

type TestSuiteInput struct {
	Module      uint    `json:"module"`
	Project     uint    `json:"project"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// TestSuiteFilter narrows List; zero fields match everything.
type TestSuiteFilter struct {
	ModuleID  uint
	ProjectID uint
}

func (s *TestSuiteService) List(ctx context.Context, f TestSuiteFilter) ([]model.TestSuite, error) {
	q := s.db.WithContext(ctx).Model(&model.TestSuite{})
	if f.ModuleID != 0 {
		q = q.Where("module_id = ?", f.ModuleID)
	}
	if f.ProjectID != 0 {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	var suites []model.TestSuite
	if err := q.Order("id").Find(&suites).Error; err != nil {
		return nil, apperr.Wrap(err, "list test suites")
	}
	return suites, nil
}

// Create stores the suite and then records it on its module, best-effort.
// Without an explicit project the suite inherits the module's.
func (s *TestSuiteService) Create(ctx context.Context, in TestSuiteInput, createdBy uint) (*model.TestSuite, error) {
	name := deref(in.Name)
	if name == "" {
		return nil, apperr.Validation("Test suite name is required")
	}
	if in.Module == 0 {
		return nil, apperr.Validation("Module ID is required")
	}
	module, err := s.modules.Get(ctx, in.Module)
	if err != nil {
		return nil, err
	}
	projectID := in.Project
	if projectID == 0 {
		projectID = module.ProjectID
	}

	suite := &model.TestSuite{
		Name:        name,
		Description: deref(in.Description),
		ModuleID:    module.ID,
		ProjectID:   projectID,
		CreatedBy:   createdBy,
	}
	if err := s.db.WithContext(ctx).Create(suite).Error; err != nil {
		return nil, apperr.Wrap(err, "create test suite")
	}

	if err := s.modules.linkSuite(ctx, module.ID, suite.ID); err != nil {
		logger.L.Warnw("test suite created but module suite list not updated",
			"test_suite_id", suite.ID, "module_id", module.ID, "error", err)
	}
	return suite, nil
}

func (s *TestSuiteService) Get(ctx context.Context, id uint) (*model.TestSuite, error) {
	var suite model.TestSuite
	if err := s.db.WithContext(ctx).First(&suite, id).Error; err != nil {
		return nil, lookupErr(err, "Test suite not found")
	}
	return &suite, nil
}

func (s *TestSuiteService) Update(ctx context.Context, id uint, in TestSuiteInput) (*model.TestSuite, error) {
	suite, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	suite.Name = pick(suite.Name, in.Name)
	suite.Description = pick(suite.Description, in.Description)
	if err := s.db.WithContext(ctx).Save(suite).Error; err != nil {
		return nil, apperr.Wrap(err, "update test suite")
	}
	return suite, nil
}

func (s *TestSuiteService) Delete(ctx context.Context, id uint) error {
	suite, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(suite).Error; err != nil {
		return apperr.Wrap(err, "delete test suite")
	}
	if err := s.modules.unlinkSuite(ctx, suite.ModuleID, suite.ID); err != nil && !apperr.IsNotFound(err) {
		logger.L.Warnw("test suite deleted but module suite list not updated",
			"test_suite_id", suite.ID, "module_id", suite.ModuleID, "error", err)
	}
	return nil
}
