package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"testhub/internal/model"
	"testhub/internal/service"
)

type TestCaseHandler struct {
	cases *service.TestCaseService
}

func NewTestCaseHandler(cases *service.TestCaseService) *TestCaseHandler {
	return &TestCaseHandler{cases: cases}
}

type testCaseWithExecution struct {
	model.TestCase
	LatestExecution *model.TestExecution `json:"latestExecution"`
}

type targetSuiteRequest struct {
	TargetTestSuiteID uint `json:"targetTestSuiteId"`
}

func (h *TestCaseHandler) List(c *gin.Context) {
	cases, err := h.cases.List(c.Request.Context(), service.TestCaseFilter{
		ProjectID:   queryID(c, "project"),
		ModuleID:    queryID(c, "module"),
		TestSuiteID: queryID(c, "testSuite"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cases)
}

func (h *TestCaseHandler) Create(c *gin.Context) {
	var in service.TestCaseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	tc, err := h.cases.Create(c.Request.Context(), in, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tc)
}

func (h *TestCaseHandler) withLatest(c *gin.Context, tc *model.TestCase) {
	latest, err := h.cases.LatestExecution(c.Request.Context(), tc.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, testCaseWithExecution{TestCase: *tc, LatestExecution: latest})
}

func (h *TestCaseHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id", "Test case not found")
	if !ok {
		return
	}
	tc, err := h.cases.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	h.withLatest(c, tc)
}

// GetByReference looks a case up by its TC- code.
func (h *TestCaseHandler) GetByReference(c *gin.Context) {
	tc, err := h.cases.GetByCode(c.Request.Context(), c.Param("testCaseId"))
	if err != nil {
		fail(c, err)
		return
	}
	h.withLatest(c, tc)
}

func (h *TestCaseHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id", "Test case not found")
	if !ok {
		return
	}
	var in service.TestCaseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	tc, err := h.cases.Update(c.Request.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tc)
}

func (h *TestCaseHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id", "Test case not found")
	if !ok {
		return
	}
	if err := h.cases.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Test case deleted successfully"})
}

func (h *TestCaseHandler) Execute(c *gin.Context) {
	id, ok := paramID(c, "id", "Test case not found")
	if !ok {
		return
	}
	var in service.ExecutionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	exec, err := h.cases.Execute(c.Request.Context(), id, in, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, exec)
}

func (h *TestCaseHandler) Executions(c *gin.Context) {
	id, ok := paramID(c, "id", "Test case not found")
	if !ok {
		return
	}
	execs, err := h.cases.Executions(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, execs)
}

// Import creates {"testCases": [...]} in one go; one invalid item rejects the batch.
func (h *TestCaseHandler) Import(c *gin.Context) {
	var req struct {
		TestCases []service.TestCaseInput `json:"testCases"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	cases, err := h.cases.Import(c.Request.Context(), req.TestCases, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cases)
}

func (h *TestCaseHandler) Move(c *gin.Context) {
	id, ok := paramID(c, "id", "Test case not found")
	if !ok {
		return
	}
	var req targetSuiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	tc, err := h.cases.Move(c.Request.Context(), id, req.TargetTestSuiteID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Test case moved successfully", "testCase": tc})
}

func (h *TestCaseHandler) Copy(c *gin.Context) {
	id, ok := paramID(c, "id", "Test case not found")
	if !ok {
		return
	}
	var req targetSuiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	tc, err := h.cases.Copy(c.Request.Context(), id, req.TargetTestSuiteID, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Test case copied successfully", "testCase": tc})
}
