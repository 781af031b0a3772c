package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"testhub/internal/apperr"
	"testhub/internal/auth"
	"testhub/internal/logger"
)

// fail writes err as {"message": ...}. Unexpected errors are logged with their
// cause and answered with a generic 500.
func fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.L.Errorw("request error",
			"request_id", logger.RequestID(c),
			"path", c.FullPath(),
			"error", err,
		)
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"message": apperr.Message(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

// paramID parses a positive numeric path parameter. An unparseable ID cannot
// match any row, so it is reported as notFound.
func paramID(c *gin.Context, name, notFound string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": notFound})
		return 0, false
	}
	return uint(id), true
}

// queryID parses an optional numeric query parameter; absent or invalid is 0.
func queryID(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func userID(c *gin.Context) uint {
	if claims := auth.CurrentUser(c); claims != nil {
		return claims.UserID
	}
	return 0
}
