package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"testhub/internal/service"
)

type ModuleHandler struct {
	modules *service.ModuleService
}

func NewModuleHandler(modules *service.ModuleService) *ModuleHandler {
	return &ModuleHandler{modules: modules}
}

// List answers {"modules": [...]} for ?project=.
func (h *ModuleHandler) List(c *gin.Context) {
	modules, err := h.modules.List(c.Request.Context(), queryID(c, "project"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modules": modules})
}

func (h *ModuleHandler) Create(c *gin.Context) {
	var in service.ModuleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	module, err := h.modules.Create(c.Request.Context(), in, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, module)
}

func (h *ModuleHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id", "Module not found")
	if !ok {
		return
	}
	module, err := h.modules.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, module)
}

func (h *ModuleHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id", "Module not found")
	if !ok {
		return
	}
	var in service.ModuleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	module, err := h.modules.Update(c.Request.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, module)
}

func (h *ModuleHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id", "Module not found")
	if !ok {
		return
	}
	if err := h.modules.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Module deleted successfully"})
}
