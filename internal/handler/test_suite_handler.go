package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"testhub/internal/service"
)

type TestSuiteHandler struct {
	suites *service.TestSuiteService
}

func NewTestSuiteHandler(suites *service.TestSuiteService) *TestSuiteHandler {
	return &TestSuiteHandler{suites: suites}
}

func (h *TestSuiteHandler) List(c *gin.Context) {
	suites, err := h.suites.List(c.Request.Context(), service.TestSuiteFilter{
		ModuleID:  queryID(c, "module"),
		ProjectID: queryID(c, "project"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, suites)
}

func (h *TestSuiteHandler) Create(c *gin.Context) {
	var in service.TestSuiteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	suite, err := h.suites.Create(c.Request.Context(), in, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, suite)
}

func (h *TestSuiteHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id", "Test suite not found")
	if !ok {
		return
	}
	suite, err := h.suites.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, suite)
}

func (h *TestSuiteHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id", "Test suite not found")
	if !ok {
		return
	}
	var in service.TestSuiteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	suite, err := h.suites.Update(c.Request.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, suite)
}

func (h *TestSuiteHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id", "Test suite not found")
	if !ok {
		return
	}
	if err := h.suites.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Test suite deleted successfully"})
}
