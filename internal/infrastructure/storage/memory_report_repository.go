package storage

import (
	"context"
	"sync"

	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
)

// DefaultMemoryHistorySize сколько отчётов хранит in-memory история
const DefaultMemoryHistorySize = 500

// MemoryReportRepository in-memory история отчётов с ограниченной ёмкостью
type MemoryReportRepository struct {
	mu       sync.RWMutex
	reports  []*entity.DiseaseReport
	capacity int
}

// NewMemoryReportRepository создаёт историю; capacity <= 0 означает размер по умолчанию
func NewMemoryReportRepository(capacity int) *MemoryReportRepository {
	if capacity <= 0 {
		capacity = DefaultMemoryHistorySize
	}
	return &MemoryReportRepository{capacity: capacity}
}

// Save сохраняет копию отчёта, вытесняя самый старый при переполнении
func (r *MemoryReportRepository) Save(ctx context.Context, report *entity.DiseaseReport) error {
	copied := *report

	r.mu.Lock()
	defer r.mu.Unlock()

	r.reports = append(r.reports, &copied)
	if len(r.reports) > r.capacity {
		r.reports = r.reports[len(r.reports)-r.capacity:]
	}
	return nil
}

// Recent возвращает последние отчёты, новые первыми
func (r *MemoryReportRepository) Recent(ctx context.Context, limit int) ([]*entity.DiseaseReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.reports) {
		limit = len(r.reports)
	}

	out := make([]*entity.DiseaseReport, 0, limit)
	for i := len(r.reports) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *r.reports[i]
		out = append(out, &copied)
	}
	return out, nil
}

// Проверка реализации интерфейса
var _ port.ReportRepository = (*MemoryReportRepository)(nil)
