package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/paperlords/admin-service/internal/repositories"
)

const paperSheet = "Papers"

// Column headers shared by export and import. Import locates columns by
// header text, so extra or reordered columns are tolerated.
const (
	colTitle       = "Title"
	colType        = "Type"
	colSubject     = "Subject"
	colYear        = "Year"
	colSeason      = "Season"
	colPaperType   = "Paper Type"
	colDriveLink   = "Drive Link"
	colDescription = "Description"
	colAddedBy     = "Added By"
	colCreatedAt   = "Created At"
	colID          = "ID"
)

var (
	exportHeaders = []string{
		colTitle, colType, colSubject, colYear, colSeason, colPaperType,
		colDriveLink, colDescription, colAddedBy, colCreatedAt, colID,
	}
	requiredImportHeaders = []string{
		colTitle, colType, colSubject, colYear, colSeason, colPaperType, colDriveLink,
	}
)

type importExportService struct {
	repo   repositories.Repository
	papers PaperService
	logger *slog.Logger
}

func NewImportExportService(repo repositories.Repository, papers PaperService, logger *slog.Logger) ImportExportService {
	return &importExportService{
		repo:   repo,
		papers: papers,
		logger: logger,
	}
}

// ExportPapers writes every paper matching the query filters as an xlsx
// workbook and returns the number of data rows written
func (s *importExportService) ExportPapers(ctx context.Context, query repositories.PaperQuery, w io.Writer) (int, error) {
	query = normalizeQuery(query)

	papers, err := s.repo.Paper().ListAll(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to load papers for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", paperSheet); err != nil {
		return 0, fmt.Errorf("failed to prepare sheet: %w", err)
	}

	header := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(paperSheet, "A1", &header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	for i, p := range papers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}

		description := ""
		if p.Description != nil {
			description = *p.Description
		}
		addedBy := p.AddedByID
		if p.AddedBy != nil {
			addedBy = p.AddedBy.Username
		}

		row := []interface{}{
			p.Title, string(p.Type), p.Subject, p.Year, string(p.Season), string(p.PaperType),
			p.DriveLink, description, addedBy, p.CreatedAt.UTC().Format(time.RFC3339), p.ID,
		}
		if err := f.SetSheetRow(paperSheet, cell, &row); err != nil {
			return 0, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Papers exported", "count", len(papers))
	return len(papers), nil
}

// ImportPapers creates one paper per data row of the first sheet. Rows that
// fail validation are reported and skipped; other rows are still created.
func (s *importExportService) ImportPapers(ctx context.Context, r io.Reader, adminID string) (*ImportReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImportFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidImportFile)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImportFile, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrInvalidImportFile)
	}

	columns := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, h := range requiredImportHeaders {
		if _, ok := columns[strings.ToLower(h)]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrInvalidImportFile, strings.Join(missing, ", "))
	}

	cell := func(row []string, header string) string {
		idx, ok := columns[strings.ToLower(header)]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	report := &ImportReport{Failed: []ImportRowError{}}

	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlankRow(row) {
			continue
		}

		req := &CreatePaperRequest{
			Title:     cell(row, colTitle),
			Type:      cell(row, colType),
			Subject:   cell(row, colSubject),
			Season:    cell(row, colSeason),
			PaperType: cell(row, colPaperType),
			DriveLink: cell(row, colDriveLink),
		}
		if desc := cell(row, colDescription); desc != "" {
			req.Description = &desc
		}

		yearText := cell(row, colYear)
		year, err := strconv.Atoi(yearText)
		if err != nil {
			report.Failed = append(report.Failed, ImportRowError{
				Row:    rowNum,
				Errors: ValidationErrors{*NewValidationError("year", "must be a number", yearText)},
			})
			continue
		}
		req.Year = year

		if _, err := s.papers.Create(ctx, req, adminID); err != nil {
			var ve ValidationErrors
			if errors.As(err, &ve) {
				report.Failed = append(report.Failed, ImportRowError{Row: rowNum, Errors: ve})
				continue
			}
			return report, fmt.Errorf("failed to import row %d: %w", rowNum, err)
		}
		report.Created++
	}

	s.logger.Info("Papers imported", "admin_id", adminID, "created", report.Created, "failed", len(report.Failed))
	return report, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ExportFileName is the attachment name offered to the browser
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("papers-%s.xlsx", now.UTC().Format("20060102-150405"))
}
