package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testhub/internal/model"
)

func TestProjectStats_PassRates(t *testing.T) {
	sc := newTestContext(t, nil)
	ctx := context.Background()
	c := seedCatalog(t, sc)
	ids := seedCases(t, sc, c, 4)

	st, err := sc.Stats.ProjectStats(ctx, c.project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), st.TestCaseCount)
	assert.Zero(t, st.TotalRuns)
	assert.Nil(t, st.LatestRunPassRate)

	old := newRun(t, sc, c, ids)
	_, err = sc.TestRuns.Execute(ctx, old.ID, ids[0], ExecuteInput{Status: model.Failed}, c.user.ID)
	require.NoError(t, err)

	run := newRun(t, sc, c, ids)
	st, err = sc.Stats.ProjectStats(ctx, c.project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.TotalRuns)
	require.NotNil(t, st.LatestRunPassRate)
	assert.Equal(t, 0, *st.LatestRunPassRate, "nothing executed in the latest run")

	_, err = sc.TestRuns.Execute(ctx, run.ID, ids[0], ExecuteInput{Status: model.Passed}, c.user.ID)
	require.NoError(t, err)
	_, err = sc.TestRuns.Execute(ctx, run.ID, ids[1], ExecuteInput{Status: model.Failed}, c.user.ID)
	require.NoError(t, err)

	st, err = sc.Stats.ProjectStats(ctx, c.project.ID)
	require.NoError(t, err)
	require.NotNil(t, st.LatestRunPassRate)
	assert.Equal(t, 50, *st.LatestRunPassRate)

	m, err := sc.TestRuns.Metrics(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, m.PassRate)
}

func TestProjectStats_EmptyRun(t *testing.T) {
	sc := newTestContext(t, nil)
	c := seedCatalog(t, sc)
	newRun(t, sc, c, nil)

	st, err := sc.Stats.ProjectStats(context.Background(), c.project.ID)
	require.NoError(t, err)
	require.NotNil(t, st.LatestRunPassRate)
	assert.Equal(t, 0, *st.LatestRunPassRate)
}

func TestAllProjectsWithStats(t *testing.T) {
	sc := newTestContext(t, nil)
	ctx := context.Background()
	c := seedCatalog(t, sc)
	seedCases(t, sc, c, 2)

	names := []string{"Search", "Accounts", "Mobile"}
	for _, n := range names {
		_, err := sc.Projects.Create(ctx, ProjectInput{Name: strp(n), Description: strp("d")}, c.user.ID)
		require.NoError(t, err)
	}

	all, err := sc.Stats.AllProjectsWithStats(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Checkout", all[0].Name)
	assert.Equal(t, int64(2), all[0].TestCaseCount)
	for i, n := range names {
		assert.Equal(t, n, all[i+1].Name)
		assert.Zero(t, all[i+1].TestCaseCount)
		assert.Nil(t, all[i+1].LatestRunPassRate)
	}

	one, err := sc.Stats.ProjectWithStats(ctx, c.project.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), one.TestCaseCount)
}

func TestLatestPassRate(t *testing.T) {
	run := &model.TestRun{TestCases: model.Slots{
		{Status: model.Passed}, {Status: model.Passed}, {Status: model.Blocked}, {Status: model.NotExecuted},
	}}
	assert.Equal(t, 67, LatestPassRate(run))
	assert.Equal(t, 0, LatestPassRate(&model.TestRun{}))
}
