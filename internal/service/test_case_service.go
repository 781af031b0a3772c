package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"testhub/internal/apperr"
	"testhub/internal/model"
)

// codeAttempts bounds how far Create walks forward looking for a free code.
const codeAttempts = 10

type TestCaseService struct {
	db     *gorm.DB
	suites *TestSuiteService
	clock  Clock
}

func NewTestCaseService(db *gorm.DB, suites *TestSuiteService, clock Clock) *TestCaseService {
	return &TestCaseService{db: db, suites: suites, clock: clock}
}

// GenerateCode formats the human readable test case code for t.
func GenerateCode(t time.Time) string {
	return "TC-" + strconv.FormatInt(t.UnixMilli(), 36)
}

type TestCaseInput struct {
	Project         uint              `json:"project"`
	Module          *uint             `json:"module"`
	TestSuite       uint              `json:"testSuite"`
	Title           *string           `json:"title"`
	Description     *string           `json:"description"`
	Priority        *model.Priority   `json:"priority"`
	Type            *model.CaseType   `json:"type"`
	Preconditions   *string           `json:"preconditions"`
	Steps           *string           `json:"steps"`
	ExpectedResults *string           `json:"expectedResults"`
	Status          *model.CaseStatus `json:"status"`
	Tags            []string          `json:"tags"`
}

type TestCaseFilter struct {
	ProjectID   uint
	ModuleID    uint
	TestSuiteID uint
}

func (s *TestCaseService) List(ctx context.Context, f TestCaseFilter) ([]model.TestCase, error) {
	q := s.db.WithContext(ctx).Model(&model.TestCase{})
	if f.ProjectID != 0 {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.ModuleID != 0 {
		q = q.Where("module_id = ?", f.ModuleID)
	}
	if f.TestSuiteID != 0 {
		q = q.Where("test_suite_id = ?", f.TestSuiteID)
	}
	var cases []model.TestCase
	if err := q.Order("id").Find(&cases).Error; err != nil {
		return nil, apperr.Wrap(err, "list test cases")
	}
	return cases, nil
}

func (s *TestCaseService) build(in TestCaseInput, createdBy uint) (*model.TestCase, error) {
	tc := &model.TestCase{
		ProjectID:       in.Project,
		ModuleID:        in.Module,
		TestSuiteID:     in.TestSuite,
		Title:           deref(in.Title),
		Description:     deref(in.Description),
		Priority:        model.PriorityMedium,
		Type:            model.CaseFunctional,
		Preconditions:   deref(in.Preconditions),
		Steps:           deref(in.Steps),
		ExpectedResults: deref(in.ExpectedResults),
		Status:          model.CaseDraft,
		Tags:            model.StringList(in.Tags),
	}
	if createdBy != 0 {
		tc.CreatedBy = &createdBy
	}
	if tc.Tags == nil {
		tc.Tags = model.StringList{}
	}
	switch {
	case tc.ProjectID == 0:
		return nil, apperr.Validation("Project ID is required")
	case tc.TestSuiteID == 0:
		return nil, apperr.Validation("Test suite ID is required")
	case tc.Title == "":
		return nil, apperr.Validation("Title is required")
	case tc.Description == "":
		return nil, apperr.Validation("Description is required")
	case tc.Steps == "":
		return nil, apperr.Validation("Steps are required")
	}
	if err := applyEnums(tc, in); err != nil {
		return nil, err
	}
	return tc, nil
}

func applyEnums(tc *model.TestCase, in TestCaseInput) error {
	if in.Priority != nil && *in.Priority != "" {
		if !in.Priority.Valid() {
			return apperr.Validation("Invalid priority %q", *in.Priority)
		}
		tc.Priority = *in.Priority
	}
	if in.Type != nil && *in.Type != "" {
		if !in.Type.Valid() {
			return apperr.Validation("Invalid type %q", *in.Type)
		}
		tc.Type = *in.Type
	}
	if in.Status != nil && *in.Status != "" {
		if !in.Status.Valid() {
			return apperr.Validation("Invalid status %q", *in.Status)
		}
		tc.Status = *in.Status
	}
	return nil
}

// insert assigns the first free code at or after at and stores tc. Codes are
// millisecond timestamps, so a taken code moves one millisecond forward. It
// returns the time the code was taken from.
func (s *TestCaseService) insert(tx *gorm.DB, tc *model.TestCase, at time.Time) (time.Time, error) {
	for i := 0; i < codeAttempts; i++ {
		code := GenerateCode(at)
		var count int64
		if err := tx.Model(&model.TestCase{}).Unscoped().Where("test_case_code = ?", code).Count(&count).Error; err != nil {
			return at, apperr.Wrap(err, "check test case code")
		}
		if count == 0 {
			tc.Code = code
			return at, apperr.Wrap(tx.Create(tc).Error, "create test case")
		}
		at = at.Add(time.Millisecond)
	}
	return at, apperr.Conflict("Could not allocate a unique test case code")
}

func (s *TestCaseService) Create(ctx context.Context, in TestCaseInput, createdBy uint) (*model.TestCase, error) {
	tc, err := s.build(in, createdBy)
	if err != nil {
		return nil, err
	}
	if _, err := s.insert(s.db.WithContext(ctx), tc, s.clock.now()); err != nil {
		return nil, err
	}
	return tc, nil
}

// Import creates every case or none.
func (s *TestCaseService) Import(ctx context.Context, in []TestCaseInput, createdBy uint) ([]model.TestCase, error) {
	if len(in) == 0 {
		return nil, apperr.Validation("No test cases to import")
	}
	out := make([]model.TestCase, 0, len(in))
	at := s.clock.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, item := range in {
			tc, err := s.build(item, createdBy)
			if err != nil {
				return apperr.Wrapf(err, "test case %d", i+1)
			}
			used, err := s.insert(tx, tc, at)
			if err != nil {
				return err
			}
			at = used.Add(time.Millisecond)
			out = append(out, *tc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TestCaseService) Get(ctx context.Context, id uint) (*model.TestCase, error) {
	var tc model.TestCase
	if err := s.db.WithContext(ctx).First(&tc, id).Error; err != nil {
		return nil, lookupErr(err, "Test case not found")
	}
	return &tc, nil
}

func (s *TestCaseService) GetByCode(ctx context.Context, code string) (*model.TestCase, error) {
	var tc model.TestCase
	if err := s.db.WithContext(ctx).Where("test_case_code = ?", strings.TrimSpace(code)).First(&tc).Error; err != nil {
		return nil, lookupErr(err, "Test case not found")
	}
	return &tc, nil
}

// Summaries loads the listed cases keyed by ID; deleted cases are absent.
func (s *TestCaseService) Summaries(ctx context.Context, ids []uint) (map[uint]model.TestCase, error) {
	out := make(map[uint]model.TestCase, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var cases []model.TestCase
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&cases).Error; err != nil {
		return nil, apperr.Wrap(err, "load test cases")
	}
	for _, tc := range cases {
		out[tc.ID] = tc
	}
	return out, nil
}

func (s *TestCaseService) Update(ctx context.Context, id uint, in TestCaseInput) (*model.TestCase, error) {
	tc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tc.Title = pick(tc.Title, in.Title)
	tc.Description = pick(tc.Description, in.Description)
	tc.Preconditions = pick(tc.Preconditions, in.Preconditions)
	tc.Steps = pick(tc.Steps, in.Steps)
	tc.ExpectedResults = pick(tc.ExpectedResults, in.ExpectedResults)
	if in.Tags != nil {
		tc.Tags = model.StringList(in.Tags)
	}
	if err := applyEnums(tc, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(tc).Error; err != nil {
		return nil, apperr.Wrap(err, "update test case")
	}
	return tc, nil
}

// Delete removes the case and its standalone executions. Run slots that
// reference it are left in place.
func (s *TestCaseService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.TestCase{}, id)
		if res.Error != nil {
			return apperr.Wrap(res.Error, "delete test case")
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("Test case not found")
		}
		return apperr.Wrap(tx.Where("test_case_id = ?", id).Delete(&model.TestExecution{}).Error, "delete test executions")
	})
}

type ExecutionInput struct {
	Status        model.ExecutionStatus `json:"status"`
	ActualResults string                `json:"actualResults"`
	Notes         string                `json:"notes"`
}

// Execute logs a standalone execution. The case's own status follows only
// Passed and Failed outcomes.
func (s *TestCaseService) Execute(ctx context.Context, id uint, in ExecutionInput, executedBy uint) (*model.TestExecution, error) {
	if !in.Status.Valid() {
		return nil, apperr.Validation("Invalid status %q", in.Status)
	}
	tc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exec := &model.TestExecution{
		TestCaseID:    tc.ID,
		Status:        in.Status,
		ActualResults: strings.TrimSpace(in.ActualResults),
		Notes:         strings.TrimSpace(in.Notes),
		ExecutedBy:    &executedBy,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(exec).Error; err != nil {
			return apperr.Wrap(err, "create test execution")
		}
		switch in.Status {
		case model.Passed:
			tc.Status = model.CasePassed
		case model.Failed:
			tc.Status = model.CaseFailed
		default:
			return nil
		}
		return apperr.Wrap(tx.Model(tc).Update("status", tc.Status).Error, "update test case status")
	})
	if err != nil {
		return nil, err
	}
	return exec, nil
}

// Executions lists standalone executions, newest first.
func (s *TestCaseService) Executions(ctx context.Context, id uint) ([]model.TestExecution, error) {
	var execs []model.TestExecution
	if err := s.db.WithContext(ctx).Where("test_case_id = ?", id).Order("created_at DESC").Order("id DESC").Find(&execs).Error; err != nil {
		return nil, apperr.Wrap(err, "list test executions")
	}
	return execs, nil
}

// LatestExecution returns nil when the case was never executed standalone.
func (s *TestCaseService) LatestExecution(ctx context.Context, id uint) (*model.TestExecution, error) {
	execs, err := s.Executions(ctx, id)
	if err != nil || len(execs) == 0 {
		return nil, err
	}
	return &execs[0], nil
}

// Move reattaches the case to another suite, taking that suite's module.
func (s *TestCaseService) Move(ctx context.Context, id, targetSuiteID uint) (*model.TestCase, error) {
	tc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	suite, err := s.targetSuite(ctx, targetSuiteID)
	if err != nil {
		return nil, err
	}
	moduleID := suite.ModuleID
	tc.ModuleID = &moduleID
	tc.TestSuiteID = suite.ID
	if err := s.db.WithContext(ctx).Save(tc).Error; err != nil {
		return nil, apperr.Wrap(err, "move test case")
	}
	return tc, nil
}

// Copy duplicates the case into another suite as a fresh draft with its own code.
func (s *TestCaseService) Copy(ctx context.Context, id, targetSuiteID, createdBy uint) (*model.TestCase, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	suite, err := s.targetSuite(ctx, targetSuiteID)
	if err != nil {
		return nil, err
	}
	moduleID := suite.ModuleID
	cp := &model.TestCase{
		ProjectID:       src.ProjectID,
		ModuleID:        &moduleID,
		TestSuiteID:     suite.ID,
		Title:           src.Title + " (Copy)",
		Description:     src.Description,
		Priority:        src.Priority,
		Type:            src.Type,
		Preconditions:   src.Preconditions,
		Steps:           src.Steps,
		ExpectedResults: src.ExpectedResults,
		Status:          model.CaseDraft,
		CreatedBy:       &createdBy,
		Tags:            append(model.StringList{}, src.Tags...),
	}
	if _, err := s.insert(s.db.WithContext(ctx), cp, s.clock.now()); err != nil {
		return nil, err
	}
	return cp, nil
}

func (s *TestCaseService) targetSuite(ctx context.Context, id uint) (*model.TestSuite, error) {
	if id == 0 {
		return nil, apperr.Validation("Target test suite ID is required")
	}
	suite, err := s.suites.Get(ctx, id)
	if apperr.IsNotFound(err) {
		return nil, apperr.NotFound("Target test suite not found")
	}
	return suite, err
}
