package ui

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"eformboard/app"
	"eformboard/domain/core"
	"eformboard/domain/table"
	"eformboard/internal/config"
	"eformboard/internal/errors"
)

// handleUpload ingests the primary e-form file plus an optional fleet
// reference. Ingestion errors are user-visible 400s; a degraded fleet merge
// is still a successful upload, with the warning carried in the response.
func (s *Server) handleUpload(c *gin.Context) {
	eformData, eformName, ok := s.readUploadedFile(c, "eform", true)
	if !ok {
		return
	}
	fleetData, fleetName, ok := s.readUploadedFile(c, "fleet", false)
	if !ok {
		return
	}

	req := app.UploadRequest{
		EFormData:     eformData,
		EFormFilename: eformName,
		Sheet:         c.PostForm("sheet"),
		FleetData:     fleetData,
		FleetFilename: fleetName,
		FleetSheet:    c.PostForm("fleet_sheet"),
		Roles: config.RoleOverrides{
			VesselCol: c.PostForm("vessel_col"),
			JobCol:    c.PostForm("job_col"),
			EFormCol:  c.PostForm("eform_col"),
		},
	}

	session, err := s.service.Upload(c.Request.Context(), req)
	if err != nil {
		s.renderError(c, err)
		return
	}

	resp := gin.H{
		"session_id":  session.ID,
		"rows":        session.Table().RowCount(),
		"columns":     session.Table().Columns,
		"config":      session.Roles(),
		"diagnostics": session.Diagnostics,
	}
	if session.Diagnostics.Degraded {
		resp["warning"] = "fleet enrichment skipped: " + session.Diagnostics.Reason
	}
	c.JSON(http.StatusOK, resp)
}

// handleSheets enumerates workbook sheets so the UI can offer a picker
// before the real upload when a workbook has more than one sheet.
func (s *Server) handleSheets(c *gin.Context) {
	data, _, ok := s.readUploadedFile(c, "file", true)
	if !ok {
		return
	}
	sheets, err := s.reader.SheetNames(data)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sheets": sheets})
}

func (s *Server) handleTable(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Table())
}

func (s *Server) handleConfig(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Roles())
}

func (s *Server) handleDiagnostics(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Diagnostics)
}

func (s *Server) handleKPIs(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary":                 session.KPIs().Summary(),
		"overall_completion_rate": session.KPIs().OverallCompletionRate(),
	})
}

func (s *Server) handleVesselSummaries(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Processor().VesselSummaries())
}

func (s *Server) handleJobSummaries(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Processor().JobSummaries())
}

func (s *Server) handleCrossAnalysis(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Processor().CrossAnalysis())
}

func (s *Server) handlePerformance(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.KPIs().PerformanceMetrics())
}

func (s *Server) handleColumnInfos(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Processor().ColumnInfos())
}

// handleFilter applies an explicit filter selection and returns the matching
// rows. The selection always arrives in the request; the server stores no
// filter state between calls.
func (s *Server) handleFilter(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	var selection table.FilterSelection
	if err := c.ShouldBindJSON(&selection); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter selection: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, session.Processor().Filter(selection))
}

func (s *Server) session(c *gin.Context) (*app.Session, bool) {
	session, err := s.service.Session(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return session, true
}

// readUploadedFile pulls one multipart file field, enforcing the size limit.
// Returns ok=false after writing the error response itself.
func (s *Server) readUploadedFile(c *gin.Context, field string, required bool) ([]byte, string, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		if !required {
			return nil, "", true
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field " + field})
		return nil, "", false
	}

	if header.Size > s.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return nil, "", false
	}

	data, err := readAll(header)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read " + field + ": " + err.Error()})
		return nil, "", false
	}
	return data, header.Filename, true
}

func readAll(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// renderError maps pipeline errors to HTTP responses
func (s *Server) renderError(c *gin.Context, err error) {
	switch {
	case core.IsIngestionError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": ingestionCode(err)})
	case errors.GetCode(err) == errors.CodeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func ingestionCode(err error) string {
	switch {
	case core.IsInputFormatError(err):
		return "INPUT_FORMAT"
	case core.IsEncodingError(err):
		return "ENCODING"
	case core.IsEmptyInputError(err):
		return "EMPTY_INPUT"
	case core.IsSchemaError(err):
		return "SCHEMA"
	}
	return "INGESTION"
}
