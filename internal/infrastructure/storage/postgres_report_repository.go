package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
)

const reportSchema = `
CREATE TABLE IF NOT EXISTS leaf_reports (
	request_id      TEXT PRIMARY KEY,
	disease         TEXT NOT NULL,
	marathi         TEXT NOT NULL DEFAULT '',
	class_id        INTEGER NOT NULL,
	confidence      DOUBLE PRECISION NOT NULL,
	severity        TEXT NOT NULL DEFAULT '',
	method          TEXT NOT NULL,
	processing_time DOUBLE PRECISION NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	detections      JSONB,
	color_analysis  JSONB,
	recommendations TEXT[]
)`

// reportRow строка таблицы leaf_reports
type reportRow struct {
	RequestID       string         `db:"request_id"`
	Disease         string         `db:"disease"`
	Marathi         string         `db:"marathi"`
	ClassID         int            `db:"class_id"`
	Confidence      float64        `db:"confidence"`
	Severity        string         `db:"severity"`
	Method          string         `db:"method"`
	ProcessingTime  float64        `db:"processing_time"`
	CreatedAt       time.Time      `db:"created_at"`
	Detections      []byte         `db:"detections"`
	Colors          []byte         `db:"color_analysis"`
	Recommendations pq.StringArray `db:"recommendations"`
}

// ConnectPostgres открывает пул соединений и проверяет доступность базы.
func ConnectPostgres(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// PostgresReportRepository история отчётов в PostgreSQL
type PostgresReportRepository struct {
	db *sqlx.DB
}

func NewPostgresReportRepository(db *sqlx.DB) *PostgresReportRepository {
	return &PostgresReportRepository{db: db}
}

// EnsureSchema создаёт таблицу истории, если её нет
func (r *PostgresReportRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, reportSchema); err != nil {
		return fmt.Errorf("failed to create leaf_reports table: %w", err)
	}
	return nil
}

func (r *PostgresReportRepository) Save(ctx context.Context, report *entity.DiseaseReport) error {
	row, err := toRow(report)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO leaf_reports (
			request_id, disease, marathi, class_id, confidence, severity, method,
			processing_time, created_at, detections, color_analysis, recommendations
		) VALUES (
			:request_id, :disease, :marathi, :class_id, :confidence, :severity, :method,
			:processing_time, :created_at, :detections, :color_analysis, :recommendations
		)
		ON CONFLICT (request_id) DO NOTHING`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.RequestID, err)
	}
	return nil
}

func (r *PostgresReportRepository) Recent(ctx context.Context, limit int) ([]*entity.DiseaseReport, error) {
	query := `
		SELECT request_id, disease, marathi, class_id, confidence, severity, method,
			processing_time, created_at, detections, color_analysis, recommendations
		FROM leaf_reports
		ORDER BY created_at DESC
		LIMIT $1`

	var rows []reportRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to load report history: %w", err)
	}

	reports := make([]*entity.DiseaseReport, 0, len(rows))
	for _, row := range rows {
		report, err := row.toReport()
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func toRow(report *entity.DiseaseReport) (*reportRow, error) {
	row := &reportRow{
		RequestID:       report.RequestID,
		Disease:         report.Disease,
		Marathi:         report.Marathi,
		ClassID:         report.ClassID,
		Confidence:      report.Confidence,
		Severity:        string(report.Severity),
		Method:          string(report.Method),
		ProcessingTime:  report.ProcessingTime,
		CreatedAt:       report.Timestamp,
		Recommendations: pq.StringArray(report.Recommendations),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}

	if len(report.Detections) > 0 {
		data, err := json.Marshal(report.Detections)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal detections: %w", err)
		}
		row.Detections = data
	}
	if report.Colors != nil {
		data, err := json.Marshal(report.Colors)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal color analysis: %w", err)
		}
		row.Colors = data
	}
	return row, nil
}

func (row reportRow) toReport() (*entity.DiseaseReport, error) {
	report := &entity.DiseaseReport{
		RequestID:       row.RequestID,
		Disease:         row.Disease,
		Marathi:         row.Marathi,
		ClassID:         row.ClassID,
		Confidence:      row.Confidence,
		Severity:        entity.Severity(row.Severity),
		Method:          entity.Method(row.Method),
		ProcessingTime:  row.ProcessingTime,
		Timestamp:       row.CreatedAt,
		Recommendations: []string(row.Recommendations),
	}

	if len(row.Detections) > 0 {
		if err := json.Unmarshal(row.Detections, &report.Detections); err != nil {
			return nil, fmt.Errorf("failed to unmarshal detections of %s: %w", row.RequestID, err)
		}
	}
	if len(row.Colors) > 0 {
		var colors entity.ColorStats
		if err := json.Unmarshal(row.Colors, &colors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal color analysis of %s: %w", row.RequestID, err)
		}
		report.Colors = &colors
	}
	return report, nil
}

// Проверка реализации интерфейса
var _ port.ReportRepository = (*PostgresReportRepository)(nil)
