package ui

import (
	"net/http"
	"path/filepath"
	"strings"

	"npdstudio/internal/charts"

	"github.com/gin-gonic/gin"
)

var allowedUploadExtensions = map[string]bool{".csv": true, ".txt": true}

// handleUploadDistribution accepts a multipart "file" and parses it in the background.
// The response is 202 Accepted; progress is published on /api/events. With ?wait=true
// the handler answers once the dataset is in place.
func (s *Server) handleUploadDistribution(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	if s.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required: " + err.Error()})
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedUploadExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .csv and .txt files are accepted"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not open uploaded file"})
		return
	}

	ctx := c.Request.Context()
	ws := workspaceID(c)
	// the uploader closes file once read
	if err := s.studio.UploadDistribution(ctx, ws, id, file); err != nil {
		file.Close()
		respondError(c, err)
		return
	}

	if c.Query("wait") != "true" {
		c.JSON(http.StatusAccepted, gin.H{"status": "loading", "formId": id})
		return
	}
	if err := s.studio.WaitForUpload(ctx, ws, id); err != nil {
		respondError(c, err)
		return
	}
	s.writeDistribution(c, false)
}

// handleGetDistribution returns the upload state and a summary of the form's dataset.
// ?include=records adds the records themselves.
func (s *Server) handleGetDistribution(c *gin.Context) {
	s.writeDistribution(c, c.Query("include") == "records")
}

func (s *Server) writeDistribution(c *gin.Context, withRecords bool) {
	id, ok := formID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	ws := workspaceID(c)

	ds, err := s.studio.Distribution(ctx, ws, id)
	if err != nil {
		respondError(c, err)
		return
	}
	state, err := s.studio.UploadState(ctx, ws, id)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"formId":  id,
		"state":   state,
		"records": ds.Len(),
		"total":   charts.DatasetTotal(ds),
	}
	if ds.Len() > 0 {
		resp["profile"] = charts.DistributionProfile(ds)
	}
	if withRecords {
		resp["data"] = ds
	}
	c.JSON(http.StatusOK, resp)
}
