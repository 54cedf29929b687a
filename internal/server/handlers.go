// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/atoms-tech/requirements-engine/internal/jobs"
	"github.com/atoms-tech/requirements-engine/internal/regdoc"
	"github.com/atoms-tech/requirements-engine/internal/storage"
	"github.com/atoms-tech/requirements-engine/pkg/types"
)

// pipelineRequest is the async variant of AnalysisRequest. The action
// field is accepted for wire compatibility but carries no information.
type pipelineRequest struct {
	types.AnalysisRequest
	Action string `json:"action,omitempty"`
}

// errorDetail mirrors the error envelope existing clients expect.
func errorDetail(c *gin.Context, status int, format string, args ...any) {
	c.JSON(status, gin.H{"detail": fmt.Sprintf(format, args...)})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleAnalyzeSync(c *gin.Context) {
	if s.analyzer == nil {
		errorDetail(c, http.StatusServiceUnavailable, "analysis backend not configured")
		return
	}

	var req types.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorDetail(c, http.StatusUnprocessableEntity, "invalid request body: %v", err)
		return
	}
	if err := req.Validate(); err != nil {
		errorDetail(c, http.StatusUnprocessableEntity, "%v", err)
		return
	}

	s.logger.Info("starting synchronous analysis",
		zap.String("organization_id", req.OrganizationID),
		zap.String("regulation_document", req.RegulationDocumentName),
	)

	result, err := s.analyzer.Run(c.Request.Context(), &req)
	if err != nil {
		s.logger.Error("synchronous analysis failed", zap.Error(err))
		errorDetail(c, http.StatusInternalServerError, "analysis failed: %v", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListDocuments(c *gin.Context) {
	organizationID := c.Param("organization_id")

	docs, err := s.docs.ListDocuments(c.Request.Context(), organizationID)
	if err != nil {
		s.logger.Error("listing documents failed",
			zap.String("organization_id", organizationID), zap.Error(err))
		errorDetail(c, http.StatusInternalServerError, "failed to list documents: %v", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organizationId": organizationID,
		"documents":      docs,
		"count":          len(docs),
	})
}

func (s *Server) handleUploadDocuments(c *gin.Context) {
	s.uploadDocuments(c, c.Param("organization_id"))
}

// handleLegacyUpload is the deprecated form-field variant of document
// upload; the organization ID arrives as a form value instead of a path
// parameter.
func (s *Server) handleLegacyUpload(c *gin.Context) {
	organizationID := c.PostForm("organizationId")
	if organizationID == "" {
		errorDetail(c, http.StatusBadRequest, "organizationId form field is required")
		return
	}
	s.uploadDocuments(c, organizationID)
}

func (s *Server) uploadDocuments(c *gin.Context, organizationID string) {
	form, err := c.MultipartForm()
	if err != nil {
		errorDetail(c, http.StatusBadRequest, "invalid multipart form: %v", err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		errorDetail(c, http.StatusBadRequest, "no files provided")
		return
	}

	uploaded := []string{}
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			errorDetail(c, http.StatusInternalServerError, "reading upload %s: %v", fh.Filename, err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			errorDetail(c, http.StatusInternalServerError, "reading upload %s: %v", fh.Filename, err)
			return
		}

		finalName, err := s.docs.UploadDocument(c.Request.Context(), organizationID, fh.Filename, data)
		if err != nil {
			if errors.Is(err, regdoc.ErrNotPDF) {
				errorDetail(c, http.StatusBadRequest, "Only PDF files are allowed. Got: %s", fh.Filename)
				return
			}
			s.logger.Error("upload failed",
				zap.String("organization_id", organizationID),
				zap.String("filename", fh.Filename), zap.Error(err))
			errorDetail(c, http.StatusInternalServerError, "failed to upload %s: %v", fh.Filename, err)
			return
		}
		uploaded = append(uploaded, finalName)
	}

	s.logger.Info("documents uploaded",
		zap.String("organization_id", organizationID),
		zap.Int("count", len(uploaded)))

	c.JSON(http.StatusOK, gin.H{
		"organizationId": organizationID,
		"files":          uploaded,
		"message":        fmt.Sprintf("Successfully uploaded %d files", len(uploaded)),
	})
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	organizationID := c.Param("organization_id")
	documentName := c.Param("document_name")

	err := s.docs.DeleteDocument(c.Request.Context(), organizationID, documentName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			errorDetail(c, http.StatusNotFound, "%v", err)
			return
		}
		s.logger.Error("delete failed",
			zap.String("organization_id", organizationID),
			zap.String("document", documentName), zap.Error(err))
		errorDetail(c, http.StatusInternalServerError, "failed to delete document: %v", err)
		return
	}

	s.logger.Info("document deleted",
		zap.String("organization_id", organizationID),
		zap.String("document", documentName))

	c.JSON(http.StatusOK, gin.H{
		"organizationId": organizationID,
		"document":       documentName,
		"message":        "Document deleted successfully",
	})
}

func (s *Server) handleStartPipeline(c *gin.Context) {
	if s.runner == nil {
		errorDetail(c, http.StatusServiceUnavailable, "analysis backend not configured")
		return
	}

	var req pipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorDetail(c, http.StatusUnprocessableEntity, "invalid request body: %v", err)
		return
	}
	if err := req.Validate(); err != nil {
		errorDetail(c, http.StatusUnprocessableEntity, "%v", err)
		return
	}

	job, err := s.runner.Start(c.Request.Context(), &req.AnalysisRequest)
	if err != nil {
		s.logger.Error("starting pipeline failed", zap.Error(err))
		errorDetail(c, http.StatusInternalServerError, "failed to start pipeline: %v", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runId":          job.RunID,
		"organizationId": job.OrganizationID,
		"state":          job.State,
		"message":        "Analysis pipeline started successfully",
	})
}

func (s *Server) handlePipelineStatus(c *gin.Context) {
	runID := c.Query("runId")
	if runID == "" {
		errorDetail(c, http.StatusUnprocessableEntity, "runId query parameter is required")
		return
	}

	job, err := s.jobStore.Get(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			errorDetail(c, http.StatusNotFound, "Job not found")
			return
		}
		s.logger.Error("reading job failed", zap.String("run_id", runID), zap.Error(err))
		errorDetail(c, http.StatusInternalServerError, "failed to read job: %v", err)
		return
	}

	organizationID := c.Query("organizationId")
	if organizationID == "" {
		organizationID = job.OrganizationID
	}

	resp := gin.H{
		"runId":          job.RunID,
		"organizationId": organizationID,
		"state":          job.State,
		"started_at":     job.StartedAt.Format(time.RFC3339),
	}
	if job.CompletedAt != nil {
		resp["completed_at"] = job.CompletedAt.Format(time.RFC3339)
	}
	switch job.State {
	case types.JobDone:
		resp["result"] = job.Result
	case types.JobFailed:
		resp["error"] = job.Error
	}

	c.JSON(http.StatusOK, resp)
}
