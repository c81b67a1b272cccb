package app

import (
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"grapeguard/internal/domain/entity"
)

// DefaultHealthyConfidence уверенность отчёта "Healthy", когда модель ничего не нашла
const DefaultHealthyConfidence = 95.0

// ReportNormalizer приводит результат любого классификатора к DiseaseReport.
type ReportNormalizer struct {
	HealthyConfidence float64
	now               func() time.Time
}

// NewReportNormalizer создаёт нормализатор. healthyConfidence ниже 90 заменяется значением по умолчанию.
func NewReportNormalizer(healthyConfidence float64) *ReportNormalizer {
	if healthyConfidence < 90 || healthyConfidence > 100 {
		healthyConfidence = DefaultHealthyConfidence
	}
	return &ReportNormalizer{
		HealthyConfidence: healthyConfidence,
		now:               time.Now,
	}
}

// Normalize выбирает находку с максимальной уверенностью (при равенстве первую)
// и собирает отчёт. Пустой список означает здоровый лист.
func (n *ReportNormalizer) Normalize(c *entity.Classification, started time.Time, includeDetections bool) *entity.DiseaseReport {
	valid := make([]entity.Detection, 0, len(c.Detections))
	for _, d := range c.Detections {
		if !d.Valid() {
			log.Printf("Dropping detection: class index %d, confidence %v", d.ClassIndex, d.Confidence)
			continue
		}
		valid = append(valid, d)
	}

	report := &entity.DiseaseReport{
		RequestID: uuid.NewString(),
		Method:    c.Method,
		Colors:    c.Colors,
	}

	var class entity.DiseaseClass
	if len(valid) == 0 {
		class = entity.HealthyClass()
		report.Confidence = n.HealthyConfidence
		if c.Method == entity.MethodModel {
			report.Method = entity.MethodModelNoDetections
		}
	} else {
		best := valid[0]
		for _, d := range valid[1:] {
			if d.Confidence > best.Confidence {
				best = d
			}
		}
		class, _ = entity.ClassByIndex(best.ClassIndex)
		report.Confidence = percent(best.Confidence)
	}

	report.Disease = class.Name
	report.Marathi = class.Marathi
	report.ClassID = class.ID
	report.Severity = class.Severity
	report.Recommendations = class.Recommendations

	if includeDetections {
		report.Detections = views(valid)
	}

	n.stamp(report, started)
	return report
}

// ErrorReport отчёт о сбое: метод error, уверенность 0, без класса.
func (n *ReportNormalizer) ErrorReport(err error, started time.Time) *entity.DiseaseReport {
	report := &entity.DiseaseReport{
		RequestID:  uuid.NewString(),
		Disease:    "Unknown",
		Confidence: 0,
		Method:     entity.MethodError,
		Error:      err.Error(),
	}
	n.stamp(report, started)
	return report
}

// Restamp выдаёт копию отчёта из кэша с новым идентификатором запроса и временем обработки.
func (n *ReportNormalizer) Restamp(report *entity.DiseaseReport, started time.Time) *entity.DiseaseReport {
	out := *report
	out.RequestID = uuid.NewString()
	out.Cached = true
	n.stamp(&out, started)
	return &out
}

func (n *ReportNormalizer) stamp(report *entity.DiseaseReport, started time.Time) {
	now := n.now()
	report.Timestamp = now
	report.ProcessingTime = round(now.Sub(started).Seconds(), 3)
	if report.ProcessingTime < 0 {
		report.ProcessingTime = 0
	}
}

func views(detections []entity.Detection) []entity.DetectionView {
	out := make([]entity.DetectionView, 0, len(detections))
	for _, d := range detections {
		class, _ := entity.ClassByIndex(d.ClassIndex)
		out = append(out, entity.DetectionView{
			ClassID:    class.ID,
			ClassName:  class.Name,
			Confidence: d.Confidence,
			Box:        d.Box,
		})
	}
	return out
}

// percent переводит долю в проценты с одним знаком после запятой.
func percent(confidence float64) float64 {
	p := round(confidence*100, 1)
	return math.Max(0, math.Min(100, p))
}

func round(v float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))
	return math.Round(v*pow) / pow
}
