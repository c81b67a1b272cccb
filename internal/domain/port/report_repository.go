package port

import (
	"context"

	"grapeguard/internal/domain/entity"
)

// ReportRepository история отчётов
type ReportRepository interface {
	// Save сохраняет отчёт
	Save(ctx context.Context, report *entity.DiseaseReport) error

	// Recent возвращает последние отчёты, новые первыми
	Recent(ctx context.Context, limit int) ([]*entity.DiseaseReport, error)
}

// ReportCache кэш отчётов по хэшу изображения
type ReportCache interface {
	// Get возвращает nil, nil при промахе
	Get(ctx context.Context, key string) (*entity.DiseaseReport, error)

	Set(ctx context.Context, key string, report *entity.DiseaseReport) error
}
