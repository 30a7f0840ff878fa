package ui

import (
	"net/http"

	"npdstudio/domain/scenario"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListForms(c *gin.Context) {
	state, err := s.studio.State(c.Request.Context(), workspaceID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	forms := state.Forms
	if forms == nil {
		forms = []scenario.ProductForm{}
	}
	c.JSON(http.StatusOK, gin.H{"forms": forms, "canAddForm": state.CanAddForm()})
}

func (s *Server) handleGetForm(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	form, err := s.studio.Form(c.Request.Context(), workspaceID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// handleCreateForm adds a form. The body may be empty.
func (s *Server) handleCreateForm(c *gin.Context) {
	var form scenario.ProductForm
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
			return
		}
	}

	created, err := s.studio.CreateForm(c.Request.Context(), workspaceID(c), form)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateForm(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	var form scenario.ProductForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	updated, err := s.studio.UpdateForm(c.Request.Context(), workspaceID(c), id, form)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteForm(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	if err := s.studio.DeleteForm(c.Request.Context(), workspaceID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCloneForm(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	clone, err := s.studio.CloneForm(c.Request.Context(), workspaceID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, clone)
}

func (s *Server) handleToggleMinimized(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	form, err := s.studio.ToggleMinimized(c.Request.Context(), workspaceID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// handleSubmitForms sends every form to the prediction service
func (s *Server) handleSubmitForms(c *gin.Context) {
	results, err := s.studio.SubmitAll(c.Request.Context(), workspaceID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
