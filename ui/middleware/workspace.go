package middleware

import (
	"net/http"

	"npdstudio/domain/core"

	"github.com/gin-gonic/gin"
)

const (
	// WorkspaceKey is the gin context key holding the resolved core.WorkspaceID
	WorkspaceKey = "workspace_id"

	// WorkspaceHeader names the workspace when no workspace_id query parameter is given
	WorkspaceHeader = "X-Workspace-ID"
)

// ResolveWorkspace picks the workspace a request operates on: the workspace_id query
// parameter, then the X-Workspace-ID header, then defaultID.
func ResolveWorkspace(defaultID core.WorkspaceID) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query(WorkspaceKey)
		if raw == "" {
			raw = c.GetHeader(WorkspaceHeader)
		}
		if raw == "" {
			raw = defaultID.String()
		}

		id, err := core.ParseWorkspaceID(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.Set(WorkspaceKey, id)
		c.Next()
	}
}

// Workspace returns the workspace resolved by ResolveWorkspace
func Workspace(c *gin.Context) core.WorkspaceID {
	if v, ok := c.Get(WorkspaceKey); ok {
		if id, ok := v.(core.WorkspaceID); ok {
			return id
		}
	}
	return ""
}
