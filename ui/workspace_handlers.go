package ui

import (
	"net/http"

	"npdstudio/internal/mappings"

	"github.com/gin-gonic/gin"
)

// handleOptions lists the selectable countries and categories
func (s *Server) handleOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"countries":  mappings.Countries(),
		"categories": mappings.Categories(),
	})
}

// handleGetWorkspace returns the selection and all forms of the workspace
func (s *Server) handleGetWorkspace(c *gin.Context) {
	state, err := s.studio.State(c.Request.Context(), workspaceID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) handleGetSelection(c *gin.Context) {
	state, err := s.studio.State(c.Request.Context(), workspaceID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, selectionResponse(state.SelectedCountry, state.SelectedCategory))
}

// handleUpdateSelection changes the country and category. Every form is re-stamped.
func (s *Server) handleUpdateSelection(c *gin.Context) {
	var req struct {
		Country  string `json:"country"`
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	state, err := s.studio.Select(c.Request.Context(), workspaceID(c), req.Country, req.Category)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, selectionResponse(state.SelectedCountry, state.SelectedCategory))
}

// selectionResponse includes the model section once both values are chosen
func selectionResponse(country, category string) gin.H {
	resp := gin.H{"country": country, "category": category}
	if section, err := mappings.SectionForSelection(country, category); err == nil {
		resp["section"] = section
	}
	return resp
}
