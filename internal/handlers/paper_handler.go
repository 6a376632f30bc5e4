package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paperlords/admin-service/internal/models"
	"github.com/paperlords/admin-service/internal/repositories"
	"github.com/paperlords/admin-service/internal/services"
	"github.com/paperlords/admin-service/internal/utils"
	"github.com/paperlords/admin-service/internal/validator"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxImportSize   = 10 << 20
	// Room for the multipart boundaries and part headers around the file
	multipartOverhead = 64 << 10
)

type PaperHandler struct {
	BaseHandler
	paperService        services.PaperService
	importExportService services.ImportExportService
	maxUploadBytes      int64
}

func NewPaperHandler(
	paperService services.PaperService,
	importExportService services.ImportExportService,
	logger utils.Logger,
) *PaperHandler {
	return &PaperHandler{
		BaseHandler:         NewBaseHandler(logger),
		paperService:        paperService,
		importExportService: importExportService,
		maxUploadBytes:      maxImportSize,
	}
}

// CreatePaper adds a paper to the catalog on behalf of the current admin
// @Summary Create paper
// @Description Adds a paper to the catalog, recorded as added by the current admin
// @Tags papers
// @Accept json
// @Produce json
// @Param paper body services.CreatePaperRequest true "Paper data"
// @Success 201 {object} models.Paper
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/papers [post]
func (h *PaperHandler) CreatePaper(c *gin.Context) {
	var req services.CreatePaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	adminID, ok := GetAdminIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgNoToken})
		return
	}

	paper, err := h.paperService.Create(c.Request.Context(), &req, adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Paper added successfully",
		"paper":   paper,
	})
}

// GetPaper returns one paper with its creator resolved
// @Summary Get paper
// @Description Retrieves a paper by its ID with the creator's username
// @Tags papers
// @Accept json
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} models.Paper
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/papers/{id} [get]
func (h *PaperHandler) GetPaper(c *gin.Context) {
	id := c.Param("id")

	paper, err := h.paperService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paper)
}

// UpdatePaper applies a partial update
// @Summary Update paper
// @Description Applies the supplied fields to a paper. The creator cannot be changed.
// @Tags papers
// @Accept json
// @Produce json
// @Param id path string true "Paper ID"
// @Param paper body services.UpdatePaperRequest true "Fields to update"
// @Success 200 {object} models.Paper
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/papers/{id} [put]
func (h *PaperHandler) UpdatePaper(c *gin.Context) {
	id := c.Param("id")

	var req services.UpdatePaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	adminID, _ := GetAdminIDFromContext(c)
	h.LogRequest(c, "Updating paper", "paper_id", id, "admin_id", adminID)

	paper, err := h.paperService.Update(c.Request.Context(), id, &req, adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Paper updated successfully",
		"paper":   paper,
	})
}

// DeletePaper removes a paper and echoes the removed record
// @Summary Delete paper
// @Description Removes a paper and returns the removed record
// @Tags papers
// @Accept json
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} models.Paper
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/papers/{id} [delete]
func (h *PaperHandler) DeletePaper(c *gin.Context) {
	id := c.Param("id")

	adminID, _ := GetAdminIDFromContext(c)
	h.LogRequest(c, "Deleting paper", "paper_id", id, "admin_id", adminID)

	paper, err := h.paperService.Delete(c.Request.Context(), id, adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Paper deleted successfully",
		"paper":   paper,
	})
}

// ListPapers returns one page of the filtered catalog
// @Summary List papers
// @Description Lists papers matching the exact-match filters, one page at a time
// @Tags papers
// @Accept json
// @Produce json
// @Param type query string false "Exam board (IGCSE or IAL)"
// @Param subject query string false "Subject"
// @Param year query int false "Year"
// @Param season query string false "Season"
// @Param paperType query string false "Question Paper or Mark Scheme"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size, at most 100" default(10)
// @Param sortBy query string false "Sort field" default(year)
// @Param sortOrder query string false "asc or desc" default(desc)
// @Success 200 {object} services.PaperListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/papers [get]
func (h *PaperHandler) ListPapers(c *gin.Context) {
	query, err := parsePaperQuery(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	resp, err := h.paperService.List(c.Request.Context(), query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetStats returns catalog statistics
// @Summary Catalog statistics
// @Description Returns the total paper count with breakdowns by board, recent years and top subjects
// @Tags papers
// @Accept json
// @Produce json
// @Success 200 {object} models.PaperStats
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/papers/stats [get]
func (h *PaperHandler) GetStats(c *gin.Context) {
	stats, err := h.paperService.Stats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportPapers streams every paper matching the list filters as a workbook
// @Summary Export papers
// @Description Downloads every paper matching the list filters as an xlsx workbook
// @Tags papers
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param type query string false "Exam board (IGCSE or IAL)"
// @Param subject query string false "Subject"
// @Param year query int false "Year"
// @Param season query string false "Season"
// @Param paperType query string false "Question Paper or Mark Scheme"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/papers/export [get]
func (h *PaperHandler) ExportPapers(c *gin.Context) {
	query, err := parsePaperQuery(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	n, err := h.importExportService.ExportPapers(c.Request.Context(), query, &buf)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Exported papers", "count", n)

	filename := services.ExportFileName(time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ImportPapers creates papers from an uploaded workbook
// @Summary Import papers
// @Description Creates papers from the rows of an uploaded xlsx workbook and reports rows that failed validation
// @Tags papers
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook in the export layout"
// @Success 200 {object} services.ImportReport
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/papers/import [post]
func (h *PaperHandler) ImportPapers(c *gin.Context) {
	adminID, ok := GetAdminIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgNoToken})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.RespondWithError(c, http.StatusRequestEntityTooLarge, "Uploaded file is too large", err)
			return
		}
		h.RespondWithError(c, http.StatusBadRequest, "A spreadsheet must be uploaded in the 'file' field", err)
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		h.RespondWithError(c, http.StatusRequestEntityTooLarge, "Uploaded file is too large", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Failed to read uploaded file", err)
		return
	}
	defer file.Close()

	report, err := h.importExportService.ImportPapers(c.Request.Context(), file, adminID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Imported papers", "created", report.Created, "failed", len(report.Failed))

	c.JSON(http.StatusOK, gin.H{
		"message": "Import completed",
		"created": report.Created,
		"failed":  report.Failed,
	})
}

// parsePaperQuery reads filters, paging and ordering from the query string.
// Page and limit must be positive integers; limit is capped at MaxLimit.
func parsePaperQuery(c *gin.Context) (repositories.PaperQuery, error) {
	query := repositories.NewPaperQuery()
	var errs validator.ValidationErrors

	if v := strings.TrimSpace(c.Query("type")); v != "" {
		board := models.ExamBoard(strings.ToUpper(v))
		query.Type = &board
	}
	if v := strings.TrimSpace(c.Query("subject")); v != "" {
		query.Subject = &v
	}
	if v := strings.TrimSpace(c.Query("season")); v != "" {
		season := models.Season(v)
		query.Season = &season
	}
	if v := strings.TrimSpace(c.Query("paperType")); v != "" {
		kind := models.PaperKind(v)
		query.PaperType = &kind
	}

	if v := c.Query("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "year", Message: "must be an integer", Value: v})
		} else {
			query.Year = &year
		}
	}

	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			errs = append(errs, validator.ValidationError{Field: "page", Message: "must be a positive integer", Value: v})
		} else {
			query.Page = page
		}
	}

	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			errs = append(errs, validator.ValidationError{Field: "limit", Message: "must be a positive integer", Value: v})
		} else {
			query.Limit = min(limit, repositories.MaxLimit)
		}
	}

	if v := c.Query("sortBy"); v != "" {
		if _, ok := repositories.PaperSortFields[v]; !ok {
			errs = append(errs, validator.ValidationError{Field: "sortBy", Message: "is not a sortable field", Value: v})
		} else {
			query.SortBy = v
		}
	}

	if v := c.Query("sortOrder"); v != "" {
		order := strings.ToLower(v)
		if order != "asc" && order != "desc" {
			errs = append(errs, validator.ValidationError{Field: "sortOrder", Message: "must be asc or desc", Value: v})
		} else {
			query.SortOrder = order
		}
	}

	if len(errs) > 0 {
		return query, errs
	}
	return query, nil
}

func (h *PaperHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrPaperNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Paper not found"})
	case errors.Is(err, services.ErrInvalidImportFile):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid import file",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgInvalidToken})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Access denied"})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
