package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"testhub/internal/config"
	"testhub/internal/db"
	"testhub/internal/model"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// tickClock advances one second on every read.
type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenExpiry: "1h"},
		Run:  config.RunConfig{MaxRetries: 5},
	}
}

func newTestContext(t *testing.T, clock Clock) *ServiceContext {
	t.Helper()
	return newTestContextWith(t, testConfig(), clock)
}

func newTestContextWith(t *testing.T, cfg *config.Config, clock Clock) *ServiceContext {
	t.Helper()
	conn, err := db.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if clock == nil {
		clock = (&tickClock{t: t0}).Now
	}
	return newServiceContext(cfg, conn, clock)
}

func strp(s string) *string { return &s }

type catalog struct {
	user    *model.User
	project *model.Project
	module  *model.Module
	suite   *model.TestSuite
}

func seedCatalog(t *testing.T, sc *ServiceContext) catalog {
	t.Helper()
	ctx := context.Background()
	role := model.RoleTestManager
	user, err := sc.Users.Create(ctx, UserInput{
		Name: strp("Mira Tester"), Email: strp("mira@example.com"), Password: strp("s3cret!"), Role: &role,
	})
	require.NoError(t, err)
	project, err := sc.Projects.Create(ctx, ProjectInput{Name: strp("Checkout"), Description: strp("Web shop checkout")}, user.ID)
	require.NoError(t, err)
	module, err := sc.Modules.Create(ctx, ModuleInput{Project: project.ID, Name: strp("Payments")}, user.ID)
	require.NoError(t, err)
	suite, err := sc.TestSuites.Create(ctx, TestSuiteInput{Module: module.ID, Name: strp("Card payments")}, user.ID)
	require.NoError(t, err)
	return catalog{user: user, project: project, module: module, suite: suite}
}

func seedCases(t *testing.T, sc *ServiceContext, c catalog, n int) []uint {
	t.Helper()
	ids := make([]uint, 0, n)
	for i := 0; i < n; i++ {
		tc, err := sc.TestCases.Create(context.Background(), TestCaseInput{
			Project:     c.project.ID,
			Module:      &c.module.ID,
			TestSuite:   c.suite.ID,
			Title:       strp("Pay with card"),
			Description: strp("Valid visa card is charged"),
			Steps:       strp("1. add item\n2. pay"),
		}, c.user.ID)
		require.NoError(t, err)
		ids = append(ids, tc.ID)
	}
	return ids
}
