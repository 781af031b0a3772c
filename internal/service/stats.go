package service

import (
	"context"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"testhub/internal/apperr"
	"testhub/internal/model"
	"testhub/internal/runengine"
)

// statsFanout bounds the concurrent per-project queries of AllProjectsWithStats.
const statsFanout = 8

type ProjectStats struct {
	TestCaseCount     int64 `json:"testCaseCount"`
	TotalRuns         int64 `json:"totalRuns"`
	LatestRunPassRate *int  `json:"latestRunPassRate"`
}

// ProjectWithStats serialises as the project with its counters alongside.
type ProjectWithStats struct {
	model.Project
	ProjectStats
}

type StatsService struct {
	db       *gorm.DB
	projects *ProjectService
	runs     *TestRunService
}

func NewStatsService(db *gorm.DB, projects *ProjectService, runs *TestRunService) *StatsService {
	return &StatsService{db: db, projects: projects, runs: runs}
}

// LatestPassRate is passed over executed slots, rounded. A run with nothing
// executed yet scores 0.
func LatestPassRate(run *model.TestRun) int {
	var executed, passed int
	for _, slot := range run.TestCases {
		if slot.Status == model.NotExecuted {
			continue
		}
		executed++
		if slot.Status == model.Passed {
			passed++
		}
	}
	return runengine.Percent(passed, executed)
}

func (s *StatsService) ProjectStats(ctx context.Context, projectID uint) (ProjectStats, error) {
	var st ProjectStats
	if err := s.db.WithContext(ctx).Model(&model.TestCase{}).
		Where("project_id = ?", projectID).
		Count(&st.TestCaseCount).Error; err != nil {
		return ProjectStats{}, apperr.Wrap(err, "count test cases")
	}

	total, err := s.runs.CountByProject(ctx, projectID)
	if err != nil {
		return ProjectStats{}, err
	}
	st.TotalRuns = total

	latest, err := s.runs.Latest(ctx, projectID)
	if err != nil {
		return ProjectStats{}, err
	}
	if latest != nil {
		rate := LatestPassRate(latest)
		st.LatestRunPassRate = &rate
	}
	return st, nil
}

func (s *StatsService) ProjectWithStats(ctx context.Context, projectID uint) (*ProjectWithStats, error) {
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	st, err := s.ProjectStats(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &ProjectWithStats{Project: *p, ProjectStats: st}, nil
}

// AllProjectsWithStats keeps the order of ProjectService.List.
func (s *StatsService) AllProjectsWithStats(ctx context.Context) ([]ProjectWithStats, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ProjectWithStats, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statsFanout)
	for i := range projects {
		i := i
		g.Go(func() error {
			st, err := s.ProjectStats(gctx, projects[i].ID)
			if err != nil {
				return err
			}
			out[i] = ProjectWithStats{Project: projects[i], ProjectStats: st}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
