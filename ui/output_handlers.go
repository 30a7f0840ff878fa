package ui

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"npdstudio/app"
	"npdstudio/domain/core"
	"npdstudio/internal/charts"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleGetOutput(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	output, err := s.studio.Output(c.Request.Context(), workspaceID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, output)
}

// handleChart serves /charts/<kind>.png
func (s *Server) handleChart(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	kind, err := app.ParseChartKind(strings.TrimSuffix(c.Param("chart"), ".png"))
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := s.studio.RenderChart(c.Request.Context(), workspaceID(c), id, kind, &buf); err != nil {
		if stderrors.Is(err, charts.ErrNoData) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) handleReportHTML(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	html, err := s.studio.ReportHTML(c.Request.Context(), workspaceID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

func (s *Server) handleReportWorkbook(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := s.studio.WriteReportWorkbook(c.Request.Context(), workspaceID(c), id, &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="scenario-%s.xlsx"`, id))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// handleAssistantQuery relays a question to the assistant. When formId is given the
// suggestion is returned merged into that form, without saving it.
func (s *Server) handleAssistantQuery(c *gin.Context) {
	var req struct {
		Query  string `json:"query"`
		FormID string `json:"formId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	ctx := c.Request.Context()
	resp, err := s.studio.QueryAI(ctx, req.Query)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"response": resp}
	if req.FormID != "" && resp.Data != nil {
		form, err := s.studio.Form(ctx, workspaceID(c), core.FormID(req.FormID))
		if err != nil {
			respondError(c, err)
			return
		}
		body["form"] = resp.Data.ApplyTo(form)
	}
	c.JSON(http.StatusOK, body)
}
