package v1

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/duynhne/callerid-service/internal/core/domain"
	"github.com/duynhne/callerid-service/middleware"
)

// SpamService records spam reports
type SpamService struct {
	reports   domain.SpamReportRepository
	publisher domain.ReportPublisher
	logger    *zap.Logger
}

// NewSpamService creates a new spam service. publisher may be nil.
func NewSpamService(reports domain.SpamReportRepository, publisher domain.ReportPublisher, logger *zap.Logger) *SpamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpamService{reports: reports, publisher: publisher, logger: logger}
}

// Report files a spam report from reporterID against phoneNumber.
// A reporter can flag a number once; the second attempt is rejected without
// touching any counter or flag.
func (s *SpamService) Report(ctx context.Context, reporterID int64, phoneNumber string) (*domain.SpamReport, error) {
	ctx, span := middleware.StartSpan(ctx, "spam.report", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int64("reporter.id", reporterID),
	))
	defer span.End()

	phoneNumber = strings.TrimSpace(phoneNumber)
	if err := validateReportedPhone(phoneNumber); err != nil {
		middleware.ObserveSpamReport("invalid")
		return nil, err
	}

	exists, err := s.reports.ReportExists(ctx, reporterID, phoneNumber)
	if err != nil {
		middleware.RecordError(span, err)
		middleware.ObserveSpamReport("error")
		return nil, fmt.Errorf("report %q: %w", phoneNumber, err)
	}
	if exists {
		span.SetAttributes(attribute.Bool("report.duplicate", true))
		middleware.ObserveSpamReport("duplicate")
		return nil, domain.ErrDuplicateReport
	}

	report, err := s.reports.RecordReport(ctx, reporterID, phoneNumber)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateReport) {
			span.SetAttributes(attribute.Bool("report.duplicate", true))
			middleware.ObserveSpamReport("duplicate")
			return nil, err
		}
		middleware.RecordError(span, err)
		middleware.ObserveSpamReport("error")
		return nil, fmt.Errorf("record spam report for %q: %w", phoneNumber, err)
	}

	span.SetAttributes(attribute.Int64("report.id", report.ID))
	span.AddEvent("spam.reported")
	middleware.ObserveSpamReport("created")

	// The report is committed; a publish failure must not undo it.
	if s.publisher != nil {
		if err := s.publisher.PublishSpamReported(ctx, report); err != nil {
			s.logger.Warn("Failed to publish spam report event",
				zap.Int64("report_id", report.ID),
				zap.Error(err),
			)
		}
	}

	return report, nil
}

// ListReports returns the reporter's own reports, newest first
func (s *SpamService) ListReports(ctx context.Context, reporterID int64) ([]domain.SpamReport, error) {
	ctx, span := middleware.StartSpan(ctx, "spam.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int64("reporter.id", reporterID),
	))
	defer span.End()

	reports, err := s.reports.ListReportsByReporter(ctx, reporterID)
	if err != nil {
		middleware.RecordError(span, err)
		return nil, fmt.Errorf("list spam reports: %w", err)
	}
	return reports, nil
}
