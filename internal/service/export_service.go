package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stjcampus/events-api/internal/models"
	"github.com/stjcampus/events-api/pkg/export"
	"github.com/stjcampus/events-api/pkg/storage"
)

type exportEventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

type exportLedgerRepository interface {
	ListByEvent(ctx context.Context, eventID string) ([]models.Registration, error)
}

type exportAttendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	events     exportEventRepository
	ledger     exportLedgerRepository
	attendance exportAttendanceRepository
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(events exportEventRepository, ledger exportLedgerRepository, attendance exportAttendanceRepository, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		events:     events,
		ledger:     ledger,
		attendance: attendance,
		storage:    store,
		csv:        csv,
		pdf:        pdf,
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Generate builds the dataset for the job and stores the rendered file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	signedURL := fmt.Sprintf("%s/reports/download/%s", prefix, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to the configured ResultTTL).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	eventPart := sanitizeFilename(job.Params.EventID)
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), eventPart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeParticipants:
		return s.buildParticipantsDataset(ctx, job.Params)
	case models.ReportTypeAttendance:
		return s.buildAttendanceDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildParticipantsDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	event, err := s.events.FindByID(ctx, params.EventID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	regs, err := s.ledger.ListByEvent(ctx, params.EventID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	dataRows := make([]map[string]string, 0, len(regs))
	for _, reg := range regs {
		members := ""
		if reg.Team != nil {
			names := make([]string, 0, len(reg.Team.Members))
			for _, m := range reg.Team.Members {
				names = append(names, fmt.Sprintf("%s (%s)", m.Name, m.RegNo))
			}
			members = strings.Join(names, "; ")
		}
		dataRows = append(dataRows, map[string]string{
			"Name":          reg.UserName,
			"Email":         reg.UserEmail,
			"Department":    reg.Department,
			"Type":          string(reg.ParticipationType),
			"Team Members":  members,
			"Status":        string(reg.Status),
			"Registered At": reg.RegisteredAt.UTC().Format(time.RFC3339),
		})
	}

	dataset := export.Dataset{
		Headers: []string{"Name", "Email", "Department", "Type", "Team Members", "Status", "Registered At"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Participants: %s", event.Title)
	return dataset, title, nil
}

func (s *ExportService) buildAttendanceDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	event, err := s.events.FindByID(ctx, params.EventID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	var records []models.AttendanceDetail
	for page := 1; ; page++ {
		batch, total, err := s.attendance.List(ctx, models.AttendanceFilter{EventID: params.EventID, Page: page, PageSize: 100})
		if err != nil {
			return export.Dataset{}, "", err
		}
		records = append(records, batch...)
		if len(batch) == 0 || len(records) >= total {
			break
		}
	}

	dataRows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		dataRows = append(dataRows, map[string]string{
			"Name":            record.UserName,
			"Register Number": record.RegisterNumber,
			"Department":      record.Department,
			"Status":          string(record.Status),
			"Submitted At":    record.SubmittedAt.UTC().Format(time.RFC3339),
		})
	}

	dataset := export.Dataset{
		Headers: []string{"Name", "Register Number", "Department", "Status", "Submitted At"},
		Rows:    dataRows,
	}
	title := fmt.Sprintf("Attendance: %s", event.Title)
	return dataset, title, nil
}
