package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oshokin/tube-grabber/internal/logger"
	"github.com/oshokin/tube-grabber/internal/service/files"
	"github.com/oshokin/tube-grabber/internal/service/media"
	"github.com/oshokin/tube-grabber/internal/version"
)

// inspectRequest is the body of POST /api/inspect.
type inspectRequest struct {
	// URL is the video page.
	URL string `form:"url" json:"url"`
}

// downloadRequest is the body of POST /api/download.
type downloadRequest struct {
	// URL is the video page.
	URL string `form:"url" json:"url"`
	// Format is the selected format identifier.
	Format string `form:"format" json:"format"`
	// FormatID is accepted as an alias of Format.
	FormatID string `form:"format_id" json:"format_id"`
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// statusResponse is the body of requests that return nothing else.
type statusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Static error definitions for request validation.
var (
	// ErrInvalidRequest indicates that the request body could not be decoded.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrMissingURL indicates that the request has no URL.
	ErrMissingURL = errors.New("url is required")
	// ErrMissingFormat indicates that the download request has no format.
	ErrMissingFormat = errors.New("format is required")
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{
		Status:  "ok",
		Version: version.Short(),
	})
}

func (s *Server) handleInspect(c *gin.Context) {
	var req inspectRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %w", ErrInvalidRequest, err))

		return
	}

	url := strings.TrimSpace(req.URL)
	if url == "" {
		url = strings.TrimSpace(c.Query("url"))
	}

	if url == "" {
		s.respondError(c, ErrMissingURL)

		return
	}

	metadata, err := s.coordinator.Inspect(c.Request.Context(), url)
	if err != nil {
		s.respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, metadata)
}

func (s *Server) handleDownload(c *gin.Context) {
	var req downloadRequest
	if err := c.ShouldBind(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %w", ErrInvalidRequest, err))

		return
	}

	url := strings.TrimSpace(req.URL)
	if url == "" {
		s.respondError(c, ErrMissingURL)

		return
	}

	formatID := strings.TrimSpace(req.Format)
	if formatID == "" {
		formatID = strings.TrimSpace(req.FormatID)
	}

	if formatID == "" {
		s.respondError(c, ErrMissingFormat)

		return
	}

	result, err := s.coordinator.StartDownload(c.Request.Context(), url, formatID)
	if err != nil {
		s.respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleProgress(c *gin.Context) {
	c.JSON(http.StatusOK, s.coordinator.Progress())
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.coordinator.Statistics())
}

func (s *Server) handleOpenLocation(c *gin.Context) {
	if err := s.opener.OpenLocation(c.Request.Context(), c.Param("path")); err != nil {
		s.respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleOpenFile(c *gin.Context) {
	if err := s.opener.OpenFile(c.Request.Context(), c.Param("path")); err != nil {
		s.respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}

// respondError writes err with the status code it maps to.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf(c.Request.Context(), "Request failed: %v", err)
	} else {
		logger.Debugf(c.Request.Context(), "Request rejected: %v", err)
	}

	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, media.ErrInvalidURL),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrMissingURL),
		errors.Is(err, ErrMissingFormat),
		errors.Is(err, files.ErrEmptyPath),
		errors.Is(err, files.ErrNotAFile):
		return http.StatusBadRequest
	case errors.Is(err, files.ErrOutsideOutputDir):
		return http.StatusForbidden
	case errors.Is(err, media.ErrFormatNotFound),
		errors.Is(err, files.ErrPathNotFound):
		return http.StatusNotFound
	case errors.Is(err, media.ErrDownloadInProgress):
		return http.StatusConflict
	case errors.Is(err, media.ErrMetadataFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
