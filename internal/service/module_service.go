package service

import (
	"context"

	"gorm.io/gorm"

	"testhub/internal/apperr"
	"testhub/internal/logger"
	"testhub/internal/model"
)

type ModuleService struct {
	db       *gorm.DB
	projects *ProjectService
}

func NewModuleService(db *gorm.DB, projects *ProjectService) *ModuleService {
	return &ModuleService{db: db, projects: projects}
}

type ModuleInput struct {
	Project     uint    `json:"project"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *ModuleService) List(ctx context.Context, projectID uint) ([]model.Module, error) {
	if projectID == 0 {
		return nil, apperr.Validation("Project ID is required")
	}
	var modules []model.Module
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id").Find(&modules).Error; err != nil {
		return nil, apperr.Wrap(err, "list modules")
	}
	return modules, nil
}

// Create stores the module and then records it on the project. The second write
// is best-effort: if it fails the module still exists and the failure is logged.
func (s *ModuleService) Create(ctx context.Context, in ModuleInput, createdBy uint) (*model.Module, error) {
	if in.Project == 0 {
		return nil, apperr.Validation("Project ID is required.")
	}
	name := deref(in.Name)
	if name == "" {
		return nil, apperr.Validation("Module name is required.")
	}
	if _, err := s.projects.Get(ctx, in.Project); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound("Project not found.")
		}
		return nil, err
	}

	module := &model.Module{
		Name:         name,
		Description:  deref(in.Description),
		ProjectID:    in.Project,
		CreatedBy:    createdBy,
		TestSuiteIDs: model.IDList{},
	}
	if err := s.db.WithContext(ctx).Create(module).Error; err != nil {
		return nil, apperr.Wrap(err, "create module")
	}

	if err := s.projects.linkModule(ctx, in.Project, module.ID); err != nil {
		logger.L.Warnw("module created but project module list not updated",
			"module_id", module.ID, "project_id", in.Project, "error", err)
	}
	return module, nil
}

func (s *ModuleService) Get(ctx context.Context, id uint) (*model.Module, error) {
	var module model.Module
	if err := s.db.WithContext(ctx).First(&module, id).Error; err != nil {
		return nil, lookupErr(err, "Module not found")
	}
	return &module, nil
}

func (s *ModuleService) Update(ctx context.Context, id uint, in ModuleInput) (*model.Module, error) {
	module, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	module.Name = pick(module.Name, in.Name)
	module.Description = pick(module.Description, in.Description)
	if err := s.db.WithContext(ctx).Save(module).Error; err != nil {
		return nil, apperr.Wrap(err, "update module")
	}
	return module, nil
}

func (s *ModuleService) Delete(ctx context.Context, id uint) error {
	module, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(module).Error; err != nil {
		return apperr.Wrap(err, "delete module")
	}
	if err := s.projects.unlinkModule(ctx, module.ProjectID, module.ID); err != nil && !apperr.IsNotFound(err) {
		logger.L.Warnw("module deleted but project module list not updated",
			"module_id", module.ID, "project_id", module.ProjectID, "error", err)
	}
	return nil
}

func (s *ModuleService) linkSuite(ctx context.Context, moduleID, suiteID uint) error {
	module, err := s.Get(ctx, moduleID)
	if err != nil {
		return err
	}
	if module.TestSuiteIDs.Contains(suiteID) {
		return nil
	}
	ids := append(module.TestSuiteIDs, suiteID)
	return apperr.Wrap(s.db.WithContext(ctx).Model(module).Update("test_suite_ids", ids).Error, "link test suite")
}

func (s *ModuleService) unlinkSuite(ctx context.Context, moduleID, suiteID uint) error {
	module, err := s.Get(ctx, moduleID)
	if err != nil {
		return err
	}
	if !module.TestSuiteIDs.Contains(suiteID) {
		return nil
	}
	return apperr.Wrap(s.db.WithContext(ctx).Model(module).Update("test_suite_ids", module.TestSuiteIDs.Without(suiteID)).Error, "unlink test suite")
}
