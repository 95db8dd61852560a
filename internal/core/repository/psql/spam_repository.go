package psql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/callerid-service/internal/core/domain"
)

// SpamReportRepository implements domain.SpamReportRepository using PostgreSQL
type SpamReportRepository struct {
	pool *pgxpool.Pool
}

// NewSpamReportRepository creates a new PostgreSQL spam report repository
func NewSpamReportRepository(pool *pgxpool.Pool) *SpamReportRepository {
	return &SpamReportRepository{pool: pool}
}

func (r *SpamReportRepository) ReportExists(ctx context.Context, reporterID int64, phoneNumber string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM spam_reports WHERE reporter_id = $1 AND phone_number = $2)
	`, reporterID, phoneNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check report exists: %w", err)
	}
	return exists, nil
}

// RecordReport runs the whole report effect in a single transaction:
// insert the report, flag every contact holding the number, bump the
// registered profile's counter. Nothing is visible to other readers until commit.
func (r *SpamReportRepository) RecordReport(ctx context.Context, reporterID int64, phoneNumber string) (*domain.SpamReport, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin record report: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	report := domain.SpamReport{ReporterID: reporterID, PhoneNumber: phoneNumber}
	err = tx.QueryRow(ctx, `
		INSERT INTO spam_reports (reporter_id, phone_number)
		VALUES ($1, $2)
		RETURNING id, created_at, (SELECT username FROM accounts WHERE id = $1)
	`, reporterID, phoneNumber).Scan(&report.ID, &report.CreatedAt, &report.ReporterUsername)
	if err != nil {
		if c, ok := violatedConstraint(err); ok && c == constraintReport {
			return nil, domain.ErrDuplicateReport
		}
		return nil, fmt.Errorf("insert spam report: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE contacts SET spam_reported = TRUE WHERE phone_number = $1`, phoneNumber); err != nil {
		return nil, fmt.Errorf("flag contacts: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE profiles SET spam_count = spam_count + 1 WHERE phone_number = $1`, phoneNumber); err != nil {
		return nil, fmt.Errorf("increment profile spam count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if c, ok := violatedConstraint(err); ok && c == constraintReport {
			return nil, domain.ErrDuplicateReport
		}
		return nil, fmt.Errorf("commit record report: %w", err)
	}
	return &report, nil
}

func (r *SpamReportRepository) ListReportsByReporter(ctx context.Context, reporterID int64) ([]domain.SpamReport, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.reporter_id, a.username, s.phone_number, s.created_at
		FROM spam_reports s
		JOIN accounts a ON a.id = s.reporter_id
		WHERE s.reporter_id = $1
		ORDER BY s.created_at DESC, s.id DESC
	`, reporterID)
	if err != nil {
		return nil, fmt.Errorf("query spam reports: %w", err)
	}
	defer rows.Close()

	reports := []domain.SpamReport{}
	for rows.Next() {
		var s domain.SpamReport
		if err := rows.Scan(&s.ID, &s.ReporterID, &s.ReporterUsername, &s.PhoneNumber, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan spam report: %w", err)
		}
		reports = append(reports, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate spam reports: %w", err)
	}
	return reports, nil
}

func (r *SpamReportRepository) CountReports(ctx context.Context, phoneNumber string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM spam_reports WHERE phone_number = $1`, phoneNumber).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count spam reports: %w", err)
	}
	return count, nil
}
