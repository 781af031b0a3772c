package service

import (
	"gorm.io/gorm"

	"testhub/internal/auth"
	"testhub/internal/config"
)

type ServiceContext struct {
	Config     *config.Config
	Tokens     *auth.TokenManager
	Auth       *AuthService
	Users      *UserService
	Projects   *ProjectService
	Modules    *ModuleService
	TestSuites *TestSuiteService
	TestCases  *TestCaseService
	TestRuns   *TestRunService
	Stats      *StatsService
}

func NewServiceContext(cfg *config.Config, conn *gorm.DB) *ServiceContext {
	return newServiceContext(cfg, conn, nil)
}

func newServiceContext(cfg *config.Config, conn *gorm.DB, clock Clock) *ServiceContext {
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	users := NewUserService(conn)
	projects := NewProjectService(conn)
	modules := NewModuleService(conn, projects)
	suites := NewTestSuiteService(conn, modules)
	cases := NewTestCaseService(conn, suites, clock)
	runs := NewTestRunService(conn, projects, cases, users, clock, cfg.Run.MaxRetries)

	return &ServiceContext{
		Config:     cfg,
		Tokens:     tokens,
		Auth:       NewAuthService(users, tokens),
		Users:      users,
		Projects:   projects,
		Modules:    modules,
		TestSuites: suites,
		TestCases:  cases,
		TestRuns:   runs,
		Stats:      NewStatsService(conn, projects, runs),
	}
}
