package ui

import (
	"net/http"

	"npdstudio/domain/core"
	"npdstudio/internal/errors"
	"npdstudio/ui/middleware"

	"github.com/gin-gonic/gin"
)

// respondError answers with the status mapped from err. Server-side failures are
// attached to the context so the request logger reports them.
func respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  errors.Classify(err),
	})
}

// formID reads the :id path parameter
func formID(c *gin.Context) (core.FormID, bool) {
	id, err := core.ParseFormID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return id, true
}

func workspaceID(c *gin.Context) core.WorkspaceID {
	return middleware.Workspace(c)
}

// handleEvents streams upload events of the resolved workspace
func (s *Server) handleEvents(c *gin.Context) {
	s.hub.Stream(c, workspaceID(c).String())
}
