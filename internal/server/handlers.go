package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"t12insight/internal/ingest"
	"t12insight/internal/model"
)

// GetStatus reports service health and the registered formats.
// GET /api/status
func (s *Server) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"formats": s.pipeline.Formats().Names(),
	})
}

// ListFormats returns the descriptors of all registered formats.
// GET /api/formats
func (s *Server) ListFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"formats": s.pipeline.Formats().Descriptors()})
}

// Analyze ingests an uploaded workbook, runs the full pipeline and
// persists the result as a run.
// POST /api/analyze
func (s *Server) Analyze(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing uploaded file"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer f.Close()

	wb, err := ingest.NewReader().Read(f, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	res, err := s.pipeline.Run(wb)
	if err != nil {
		status, body := analysisError(err)
		c.JSON(status, body)
		return
	}

	runID, err := s.store.SaveRun(fileHeader.Filename, res)
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("failed to persist run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist run"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runId":      runID,
		"format":     res.Format,
		"confidence": res.Confidence,
		"summary":    res.Summary,
		"warnings":   res.Warnings,
		"narrative":  res.Narrative(),
		// Keywords for a later POST /api/quality round trip.
		"keywords": res.Summary.MetricNames(),
	})
}

// ListRuns returns recent runs, newest first.
// GET /api/runs
func (s *Server) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := s.store.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun returns one run with its KPI summary.
// GET /api/runs/:id
func (s *Server) GetRun(c *gin.Context) {
	run, err := s.store.GetRun(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetRunRecords returns the canonical records of one run.
// GET /api/runs/:id/records
func (s *Server) GetRunRecords(c *gin.Context) {
	id := c.Param("id")
	run, err := s.store.GetRun(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	records, err := s.store.GetRecords(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runId": id, "records": records})
}

// QualityRequest carries a narrative to validate and the keywords it
// is expected to mention.
type QualityRequest struct {
	Narrative string   `json:"narrative" binding:"required"`
	Keywords  []string `json:"keywords"`
}

// ValidateQuality scores a narrative against the quality gate.
// POST /api/quality
func (s *Server) ValidateQuality(c *gin.Context) {
	var req QualityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.gate.Validate(req.Narrative, req.Keywords))
}

// analysisError maps the typed parse errors onto HTTP responses. All
// of them mean the upload could not be analyzed, not that the service
// failed, so they answer 422 with a machine-readable kind.
func analysisError(err error) (int, gin.H) {
	var unknown *model.FormatUnknownError
	if errors.As(err, &unknown) {
		return http.StatusUnprocessableEntity, gin.H{
			"error":          unknown.Error(),
			"kind":           "format_unknown",
			"bestFormat":     unknown.BestFormat,
			"bestConfidence": unknown.BestConfidence,
		}
	}
	var layout *model.LayoutMismatchError
	if errors.As(err, &layout) {
		return http.StatusUnprocessableEntity, gin.H{"error": layout.Error(), "kind": "layout_mismatch", "sheet": layout.Sheet}
	}
	var empty *model.EmptySheetError
	if errors.As(err, &empty) {
		return http.StatusUnprocessableEntity, gin.H{"error": empty.Error(), "kind": "empty_sheet", "sheet": empty.Sheet}
	}
	var ambiguous *model.AmbiguousPeriodError
	if errors.As(err, &ambiguous) {
		return http.StatusUnprocessableEntity, gin.H{"error": ambiguous.Error(), "kind": "ambiguous_period", "labels": ambiguous.Labels}
	}
	return http.StatusInternalServerError, gin.H{"error": err.Error()}
}
