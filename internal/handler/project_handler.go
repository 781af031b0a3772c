package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"testhub/internal/service"
)

type ProjectHandler struct {
	projects *service.ProjectService
	stats    *service.StatsService
	cases    *service.TestCaseService
}

func NewProjectHandler(projects *service.ProjectService, stats *service.StatsService, cases *service.TestCaseService) *ProjectHandler {
	return &ProjectHandler{projects: projects, stats: stats, cases: cases}
}

// List returns every project with its test case count, run count and the
// pass rate of its latest run.
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.stats.AllProjectsWithStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var in service.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	project, err := h.projects.Create(c.Request.Context(), in, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id", "Project not found")
	if !ok {
		return
	}
	project, err := h.stats.ProjectWithStats(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id", "Project not found")
	if !ok {
		return
	}
	var in service.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	project, err := h.projects.Update(c.Request.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id", "Project not found")
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

func (h *ProjectHandler) TestCases(c *gin.Context) {
	id, ok := paramID(c, "id", "Project not found")
	if !ok {
		return
	}
	cases, err := h.cases.List(c.Request.Context(), service.TestCaseFilter{ProjectID: id})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cases)
}
