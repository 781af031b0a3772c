package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testhub/internal/apperr"
	"testhub/internal/model"
)

func TestProjectCreate(t *testing.T) {
	sc := newTestContext(t, nil)
	ctx := context.Background()

	_, err := sc.Projects.Create(ctx, ProjectInput{Name: strp("Checkout")}, 1)
	require.True(t, apperr.IsValidation(err))
	assert.Equal(t, "Project name and description are required", apperr.Message(err))

	bad := model.ProjectStatus("Someday")
	_, err = sc.Projects.Create(ctx, ProjectInput{Name: strp("a"), Description: strp("b"), Status: &bad}, 1)
	assert.True(t, apperr.IsValidation(err))

	p, err := sc.Projects.Create(ctx, ProjectInput{Name: strp("  Checkout "), Description: strp("shop")}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Checkout", p.Name)
	assert.Equal(t, model.ProjectPlanning, p.Status)
	assert.Empty(t, p.ModuleIDs)
}

func TestProjectUpdate_KeepsBlankFields(t *testing.T) {
	sc := newTestContext(t, nil)
	ctx := context.Background()
	p, err := sc.Projects.Create(ctx, ProjectInput{Name: strp("Checkout"), Description: strp("shop")}, 1)
	require.NoError(t, err)

	active := model.ProjectActive
	got, err := sc.Projects.Update(ctx, p.ID, ProjectInput{Name: strp(""), Description: strp("new shop"), Status: &active})
	require.NoError(t, err)
	assert.Equal(t, "Checkout", got.Name)
	assert.Equal(t, "new shop", got.Description)
	assert.Equal(t, model.ProjectActive, got.Status)

	_, err = sc.Projects.Update(ctx, 999, ProjectInput{})
	assert.True(t, apperr.IsNotFound(err))
}

func TestProjectDelete(t *testing.T) {
	sc := newTestContext(t, nil)
	ctx := context.Background()
	p, err := sc.Projects.Create(ctx, ProjectInput{Name: strp("Checkout"), Description: strp("shop")}, 1)
	require.NoError(t, err)

	require.NoError(t, sc.Projects.Delete(ctx, p.ID))
	_, err = sc.Projects.Get(ctx, p.ID)
	assert.True(t, apperr.IsNotFound(err))
	assert.True(t, apperr.IsNotFound(sc.Projects.Delete(ctx, p.ID)))
}

func TestModuleCreate_LinksProject(t *testing.T) {
	sc := newTestContext(t, nil)
	ctx := context.Background()
	c := seedCatalog(t, sc)

	project, err := sc.Projects.Get(ctx, c.project.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IDList{c.module.ID}, project.ModuleIDs)

	second, err := sc.Modules.Create(ctx, ModuleInput{Project: c.project.ID, Name: strp("Shipping")}, c.user.ID)
	require.NoError(t, err)

	modules, err := sc.Modules.List(ctx, c.project.ID)
	require.NoError(t, err)
	require.Len(t, modules, 2)

	require.NoError(t, sc.Modules.Delete(ctx, c.module.ID))
	project, err = sc.Projects.Get(ctx, c.project.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IDList{second.ID}, project.ModuleIDs)
}

func TestModuleCreate_Errors(t *testing.T) {
	sc := newTestContext(t, nil)
	ctx := context.Background()

	_, err := sc.Modules.Create(ctx, ModuleInput{Name: strp("Payments")}, 1)
	require.True(t, apperr.IsValidation(err))
	assert.Equal(t, "Project ID is required.", apperr.Message(err))

	_, err = sc.Modules.Create(ctx, ModuleInput{Project: 42}, 1)
	require.True(t, apperr.IsValidation(err))
	assert.Equal(t, "Module name is required.", apperr.Message(err))

	_, err = sc.Modules.Create(ctx, ModuleInput{Project: 42, Name: strp("Payments")}, 1)
	require.True(t, apperr.IsNotFound(err))
	assert.Equal(t, "Project not found.", apperr.Message(err))

	_, err = sc.Modules.List(ctx, 0)
	assert.True(t, apperr.IsValidation(err))
}

func TestTestSuiteCreate(t *testing.T) {
	sc := newTestContext(t, nil)
	ctx := context.Background()
	c := seedCatalog(t, sc)

	assert.Equal(t, c.project.ID, c.suite.ProjectID)
	module, err := sc.Modules.Get(ctx, c.module.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IDList{c.suite.ID}, module.TestSuiteIDs)

	suites, err := sc.TestSuites.List(ctx, TestSuiteFilter{ModuleID: c.module.ID})
	require.NoError(t, err)
	assert.Len(t, suites, 1)
	suites, err = sc.TestSuites.List(ctx, TestSuiteFilter{ProjectID: c.project.ID + 1})
	require.NoError(t, err)
	assert.Empty(t, suites)

	_, err = sc.TestSuites.Create(ctx, TestSuiteInput{Module: 999, Name: strp("x")}, 1)
	assert.True(t, apperr.IsNotFound(err))
	_, err = sc.TestSuites.Create(ctx, TestSuiteInput{Module: c.module.ID}, 1)
	assert.True(t, apperr.IsValidation(err))

	require.NoError(t, sc.TestSuites.Delete(ctx, c.suite.ID))
	module, err = sc.Modules.Get(ctx, c.module.ID)
	require.NoError(t, err)
	assert.Empty(t, module.TestSuiteIDs)
}

func TestUserCreate(t *testing.T) {
	sc := newTestContext(t, nil)
	ctx := context.Background()

	u, err := sc.Users.Create(ctx, UserInput{Name: strp("Ana"), Email: strp(" Ana@Example.com "), Password: strp("pw")})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, model.RoleTestEngineer, u.Role)
	assert.NotEqual(t, "pw", u.PasswordHash)

	_, err = sc.Users.Create(ctx, UserInput{Name: strp("Ana 2"), Email: strp("ana@example.com"), Password: strp("pw")})
	require.True(t, apperr.IsValidation(err))
	assert.Equal(t, "User already exists", apperr.Message(err))

	bad := model.Role("root")
	_, err = sc.Users.UpdateRole(ctx, u.ID, bad)
	assert.True(t, apperr.IsValidation(err))

	admin := model.RoleAdmin
	got, err := sc.Users.Update(ctx, u.ID, UserInput{Role: &admin}, false)
	require.NoError(t, err)
	assert.Equal(t, model.RoleTestEngineer, got.Role)

	got, err = sc.Users.UpdateRole(ctx, u.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)

	require.NoError(t, sc.Users.Delete(ctx, u.ID))
	_, err = sc.Users.Create(ctx, UserInput{Name: strp("Ana"), Email: strp("ana@example.com"), Password: strp("pw")})
	assert.NoError(t, err)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	sc := newTestContext(t, nil)
	ctx := context.Background()

	user, token, err := sc.Auth.Register(ctx, "Ana", "ana@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, model.RoleTestEngineer, user.Role)
	claims, err := sc.Tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, _, err = sc.Auth.Login(ctx, "ana@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, 401, apperr.HTTPStatus(err))
	assert.Equal(t, "Invalid email or password", apperr.Message(err))

	_, _, err = sc.Auth.Login(ctx, "nobody@example.com", "pw")
	assert.Equal(t, 401, apperr.HTTPStatus(err))

	_, token, err = sc.Auth.Login(ctx, "ANA@example.com", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}
