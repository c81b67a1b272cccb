package app

import (
	"context"
	"image"
	"log"

	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
)

// ModelClassifier классификатор на модели instance-сегментации.
type ModelClassifier struct {
	segmenter port.Segmenter
	threshold float64
}

// NewModelClassifier оборачивает модель в Classifier.
func NewModelClassifier(segmenter port.Segmenter, threshold float64) *ModelClassifier {
	return &ModelClassifier{segmenter: segmenter, threshold: threshold}
}

// Classify возвращает допустимые находки модели не ниже порога.
func (m *ModelClassifier) Classify(ctx context.Context, img *image.NRGBA) (*entity.Classification, error) {
	raw, err := m.segmenter.Segment(ctx, img)
	if err != nil {
		return nil, err
	}

	detections := make([]entity.Detection, 0, len(raw))
	for _, d := range raw {
		if !d.Valid() {
			log.Printf("Dropping model detection: class index %d, score %v", d.ClassIndex, d.Confidence)
			continue
		}
		if d.Confidence < m.threshold {
			continue
		}
		detections = append(detections, d)
	}

	method := entity.MethodModel
	if len(detections) == 0 {
		method = entity.MethodModelNoDetections
	}
	return &entity.Classification{Method: method, Detections: detections}, nil
}

var _ port.Classifier = (*ModelClassifier)(nil)
