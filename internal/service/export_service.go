package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/subject-catalog-api/internal/catalog"
	"github.com/noah-isme/subject-catalog-api/internal/models"
	appErrors "github.com/noah-isme/subject-catalog-api/pkg/errors"
	"github.com/noah-isme/subject-catalog-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type catalogBrowser interface {
	Browse(ctx context.Context, req BrowseRequest) (*BrowseResult, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

var exportHeaders = []string{"ID", "Name", "Category", "Description", "Slides", "Test Bank", "Telegram", "Created At"}

// ExportService renders the visible subset of the catalog as a file.
type ExportService struct {
	catalog catalogBrowser
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(browser catalogBrowser, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{catalog: browser, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Export renders every subject matching query in the requested format.
func (s *ExportService) Export(ctx context.Context, query catalog.Query, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	result, err := s.catalog.Browse(ctx, BrowseRequest{Query: query})
	if err != nil {
		return nil, err
	}
	dataset := subjectDataset(result.Subjects)
	stamp := s.now().UTC().Format("20060102-150405")

	file := &ExportFile{Rows: len(result.Subjects)}
	switch format {
	case ExportFormatPDF:
		file.Body, err = s.pdf.Render(dataset, exportTitle(query))
		file.ContentType = "application/pdf"
	default:
		file.Body, err = s.csv.Render(dataset)
		file.ContentType = "text/csv"
	}
	if err != nil {
		s.logger.Error("render subject export", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	file.Filename = fmt.Sprintf("subjects-%s.%s", stamp, format)
	return file, nil
}

func exportTitle(query catalog.Query) string {
	title := "Subject Catalog"
	if query.Category != "" && query.Category != models.CategoryAll {
		title += " - " + string(query.Category)
	}
	if query.Search != "" {
		title += fmt.Sprintf(" (matching %q)", query.Search)
	}
	return title
}

func subjectDataset(subjects []models.Subject) export.Dataset {
	rows := make([]map[string]string, 0, len(subjects))
	for _, s := range subjects {
		rows = append(rows, map[string]string{
			"ID":          s.ID,
			"Name":        s.Name,
			"Category":    string(s.Category),
			"Description": s.Description,
			"Slides":      s.SlideLink,
			"Test Bank":   s.TestBankLink,
			"Telegram":    s.TelegramChannel,
			"Created At":  s.CreatedAt,
		})
	}
	return export.Dataset{
		Headers: exportHeaders,
		Rows:    rows,
		Widths:  []float64{2, 2.5, 1, 5, 2.5, 2.5, 2.5, 2},
	}
}
