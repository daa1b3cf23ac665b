package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/users-web/internal/middleware"
	"github.com/noah-isme/users-web/internal/models"
)

func sessionFromContext(c *gin.Context) *models.Session {
	return middleware.SessionFromContext(c)
}

// userIDParam parses the :id path segment. Non-numeric and non-positive ids
// are reported as absent.
func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
