package service

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"testhub/internal/apperr"
	"testhub/internal/model"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type ProjectInput struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	Status      *model.ProjectStatus `json:"status"`
}

func (s *ProjectService) Create(ctx context.Context, in ProjectInput, createdBy uint) (*model.Project, error) {
	name, desc := deref(in.Name), deref(in.Description)
	if name == "" || desc == "" {
		return nil, apperr.Validation("Project name and description are required")
	}
	status := model.ProjectPlanning
	if in.Status != nil && *in.Status != "" {
		if !in.Status.Valid() {
			return nil, apperr.Validation("Invalid project status %q", *in.Status)
		}
		status = *in.Status
	}

	project := &model.Project{
		Name:        name,
		Description: desc,
		Status:      status,
		CreatedBy:   createdBy,
		ModuleIDs:   model.IDList{},
	}
	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, apperr.Wrap(err, "create project")
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id uint) (*model.Project, error) {
	var project model.Project
	if err := s.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, lookupErr(err, "Project not found")
	}
	return &project, nil
}

func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := s.db.WithContext(ctx).Order("id").Find(&projects).Error; err != nil {
		return nil, apperr.Wrap(err, "list projects")
	}
	return projects, nil
}

func (s *ProjectService) Update(ctx context.Context, id uint, in ProjectInput) (*model.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	project.Name = pick(project.Name, in.Name)
	project.Description = pick(project.Description, in.Description)
	if in.Status != nil && strings.TrimSpace(string(*in.Status)) != "" {
		if !in.Status.Valid() {
			return nil, apperr.Validation("Invalid project status %q", *in.Status)
		}
		project.Status = *in.Status
	}
	if err := s.db.WithContext(ctx).Save(project).Error; err != nil {
		return nil, apperr.Wrap(err, "update project")
	}
	return project, nil
}

// Delete removes only the project row; its modules, suites, cases and runs stay.
func (s *ProjectService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.Project{}, id)
	if res.Error != nil {
		return apperr.Wrap(res.Error, "delete project")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Project not found")
	}
	return nil
}

// linkModule appends moduleID to the project's denormalised module list.
func (s *ProjectService) linkModule(ctx context.Context, projectID, moduleID uint) error {
	project, err := s.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if project.ModuleIDs.Contains(moduleID) {
		return nil
	}
	ids := append(project.ModuleIDs, moduleID)
	return apperr.Wrap(s.db.WithContext(ctx).Model(project).Update("module_ids", ids).Error, "link module")
}

func (s *ProjectService) unlinkModule(ctx context.Context, projectID, moduleID uint) error {
	project, err := s.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if !project.ModuleIDs.Contains(moduleID) {
		return nil
	}
	return apperr.Wrap(s.db.WithContext(ctx).Model(project).Update("module_ids", project.ModuleIDs.Without(moduleID)).Error, "unlink module")
}
