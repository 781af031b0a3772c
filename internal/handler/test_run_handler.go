package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"testhub/internal/service"
)

type TestRunHandler struct {
	runs *service.TestRunService
}

func NewTestRunHandler(runs *service.TestRunService) *TestRunHandler {
	return &TestRunHandler{runs: runs}
}

// slotParams reads :id and :testCaseId.
func slotParams(c *gin.Context) (runID, testCaseID uint, ok bool) {
	if runID, ok = paramID(c, "id", "Test run not found"); !ok {
		return 0, 0, false
	}
	if testCaseID, ok = paramID(c, "testCaseId", "Test case not found in this test run"); !ok {
		return 0, 0, false
	}
	return runID, testCaseID, true
}

func (h *TestRunHandler) ListByProject(c *gin.Context) {
	projectID, ok := paramID(c, "projectId", "Project not found")
	if !ok {
		return
	}
	runs, err := h.runs.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (h *TestRunHandler) Create(c *gin.Context) {
	var in service.CreateRunInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	run, err := h.runs.Create(c.Request.Context(), in, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, run)
}

// Get returns the run with test case summaries and executor names resolved.
func (h *TestRunHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id", "Test run not found")
	if !ok {
		return
	}
	detail, err := h.runs.GetDetail(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *TestRunHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id", "Test run not found")
	if !ok {
		return
	}
	var in service.UpdateRunInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	run, err := h.runs.Update(c.Request.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *TestRunHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id", "Test run not found")
	if !ok {
		return
	}
	if err := h.runs.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Test run deleted successfully"})
}

func (h *TestRunHandler) AddTestCases(c *gin.Context) {
	id, ok := paramID(c, "id", "Test run not found")
	if !ok {
		return
	}
	var req struct {
		TestCaseIDs []uint `json:"testCaseIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	run, err := h.runs.AddTestCases(c.Request.Context(), id, req.TestCaseIDs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *TestRunHandler) RemoveTestCase(c *gin.Context) {
	id, testCaseID, ok := slotParams(c)
	if !ok {
		return
	}
	run, err := h.runs.RemoveTestCase(c.Request.Context(), id, testCaseID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *TestRunHandler) Execute(c *gin.Context) {
	id, testCaseID, ok := slotParams(c)
	if !ok {
		return
	}
	var in service.ExecuteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	run, err := h.runs.Execute(c.Request.Context(), id, testCaseID, in, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *TestRunHandler) History(c *gin.Context) {
	id, testCaseID, ok := slotParams(c)
	if !ok {
		return
	}
	history, err := h.runs.History(c.Request.Context(), id, testCaseID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *TestRunHandler) Metrics(c *gin.Context) {
	id, ok := paramID(c, "id", "Test run not found")
	if !ok {
		return
	}
	m, err := h.runs.Metrics(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *TestRunHandler) Complete(c *gin.Context) {
	id, ok := paramID(c, "id", "Test run not found")
	if !ok {
		return
	}
	run, err := h.runs.Complete(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}
