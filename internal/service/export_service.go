package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/users-web/internal/dto"
	"github.com/noah-isme/users-web/internal/models"
	appErrors "github.com/noah-isme/users-web/pkg/errors"
	"github.com/noah-isme/users-web/pkg/export"
)

// ExportFormat names a download format.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatJSON ExportFormat = "json"
)

// ParseExportFormat maps a query value to a format; empty means CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	case ExportFormatJSON:
		return ExportFormatJSON, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
	}
}

var exportHeaders = []string{"ID", "First Name", "Last Name", "Birthdate", "Gender", "Created At"}

type userLister interface {
	List(ctx context.Context, q models.ListQuery) (*models.UserPage, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

type exportMetrics interface {
	RecordExport(format string)
}

// ExportResult is a rendered download. Body is empty for JSON, where the
// caller serialises Page itself.
type ExportResult struct {
	Format      ExportFormat
	Filename    string
	ContentType string
	Body        []byte
	Page        *models.UserPage
}

// ExportService renders the current listing page as a file.
type ExportService struct {
	users   userLister
	csv     csvRenderer
	pdf     pdfRenderer
	metrics exportMetrics
	title   string
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(users userLister, title string, metrics exportMetrics, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(true)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if strings.TrimSpace(title) == "" {
		title = "Users"
	}
	return &ExportService{users: users, csv: csv, pdf: pdf, metrics: metrics, title: title, logger: logger, now: time.Now}
}

// Export fetches the page described by raw and renders it. Unlike the index
// page there is no empty fallback: a remote failure is returned.
func (s *ExportService) Export(ctx context.Context, raw dto.UserListParams, format ExportFormat) (*ExportResult, error) {
	q := BuildListQuery(raw)
	page, err := s.users.List(ctx, q)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{Format: format, Page: page, Filename: s.filename(format)}
	switch format {
	case ExportFormatCSV:
		result.ContentType = "text/csv; charset=utf-8"
		result.Body, err = s.csv.Render(userDataset(page.Users))
	case ExportFormatPDF:
		result.ContentType = "application/pdf"
		subtitle := fmt.Sprintf("Page %d of %d, %d users in total", page.Pagination.Page, maxInt(page.Pagination.TotalPages, 1), page.Pagination.TotalCount)
		result.Body, err = s.pdf.Render(userDataset(page.Users), s.title, subtitle)
	case ExportFormatJSON:
		result.ContentType = "application/json; charset=utf-8"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render export")
	}

	if s.metrics != nil {
		s.metrics.RecordExport(string(format))
	}
	s.logger.Info("users exported", zap.String("format", string(format)), zap.Int("rows", len(page.Users)))
	return result, nil
}

func (s *ExportService) filename(format ExportFormat) string {
	return fmt.Sprintf("users_%s.%s", s.now().UTC().Format("20060102_150405"), format)
}

func userDataset(users []models.UserRecord) export.Dataset {
	data := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(users))}
	for _, user := range users {
		createdAt := ""
		if user.CreatedAt != nil {
			createdAt = user.CreatedAt.String()
		}
		id := ""
		if user.ID != nil {
			id = strconv.FormatInt(*user.ID, 10)
		}
		data.Rows = append(data.Rows, map[string]string{
			"ID":         id,
			"First Name": user.FirstName,
			"Last Name":  user.LastName,
			"Birthdate":  user.Birthdate.String(),
			"Gender":     user.Gender.Label(),
			"Created At": createdAt,
		})
	}
	return data
}
