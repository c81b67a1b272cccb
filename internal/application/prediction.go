package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync/atomic"
	"time"

	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
)

// ModelSource то, что оркестратору нужно от трекера модели
type ModelSource interface {
	Status() entity.ModelState
	Segmenter() port.Segmenter
	Demote(reason string)
}

// PredictionConfig политика выбора ветки и обработки сбоев
type PredictionConfig struct {
	Threshold        float64
	InferenceTimeout time.Duration
	FallbackEnabled  bool
	FailureLimit     int // 0 - модель никогда не понижается
}

// PredictionService выбирает классификатор для запроса и нормализует результат.
type PredictionService struct {
	model      ModelSource
	heuristic  port.Classifier
	normalizer *ReportNormalizer
	cfg        PredictionConfig
	failures   atomic.Int64
}

// NewPredictionService создаёт оркестратор.
func NewPredictionService(model ModelSource, heuristic port.Classifier, normalizer *ReportNormalizer, cfg PredictionConfig) *PredictionService {
	if cfg.InferenceTimeout <= 0 {
		cfg.InferenceTimeout = 30 * time.Second
	}
	return &PredictionService{
		model:      model,
		heuristic:  heuristic,
		normalizer: normalizer,
		cfg:        cfg,
	}
}

type classifyResult struct {
	cls *entity.Classification
	err error
}

// Predict возвращает отчёт по изображению.
// Ошибка возвращается только для пустого изображения и для недоступной модели при выключенном fallback.
func (s *PredictionService) Predict(ctx context.Context, img *image.NRGBA, includeDetections bool) (*entity.DiseaseReport, error) {
	started := time.Now()
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", entity.ErrInvalidImage)
	}

	state := s.model.Status()
	var seg port.Segmenter
	if state.Ready() {
		seg = s.model.Segmenter()
	}

	if seg == nil {
		if !s.cfg.FallbackEnabled {
			return nil, entity.ErrModelUnavailable
		}
		return s.classifyByColor(ctx, img, started, includeDetections), nil
	}

	cls, err := s.runModel(ctx, seg, img)
	if err == nil {
		s.failures.Store(0)
		return s.normalizer.Normalize(cls, started, includeDetections), nil
	}

	if parentErr := ctx.Err(); parentErr != nil && !errors.Is(err, errInferenceTimeout) {
		return nil, parentErr
	}

	log.Printf("Model inference failed: %v", err)
	s.recordFailure(err)

	if !s.cfg.FallbackEnabled {
		return s.normalizer.ErrorReport(fmt.Errorf("%w: %v", entity.ErrInference, err), started), nil
	}
	return s.classifyByColor(ctx, img, started, includeDetections), nil
}

var errInferenceTimeout = errors.New("inference timed out")

// runModel запускает модель в отдельной горутине; по таймауту результат бросается.
func (s *PredictionService) runModel(ctx context.Context, seg port.Segmenter, img *image.NRGBA) (*entity.Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.InferenceTimeout)
	defer cancel()

	done := make(chan classifyResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- classifyResult{err: fmt.Errorf("%w: panic: %v", entity.ErrInference, r)}
			}
		}()
		cls, err := NewModelClassifier(seg, s.cfg.Threshold).Classify(ctx, img)
		if err != nil && !errors.Is(err, entity.ErrInference) {
			err = fmt.Errorf("%w: %v", entity.ErrInference, err)
		}
		done <- classifyResult{cls: cls, err: err}
	}()

	select {
	case res := <-done:
		return res.cls, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w after %s", entity.ErrInference, errInferenceTimeout, s.cfg.InferenceTimeout)
		}
		return nil, ctx.Err()
	}
}

func (s *PredictionService) classifyByColor(ctx context.Context, img *image.NRGBA, started time.Time, includeDetections bool) *entity.DiseaseReport {
	cls, err := s.heuristic.Classify(ctx, img)
	if err != nil {
		log.Printf("Color analysis failed: %v", err)
		return s.normalizer.ErrorReport(err, started)
	}
	return s.normalizer.Normalize(cls, started, includeDetections)
}

func (s *PredictionService) recordFailure(err error) {
	n := s.failures.Add(1)
	if s.cfg.FailureLimit <= 0 || n < int64(s.cfg.FailureLimit) {
		return
	}
	s.model.Demote(fmt.Sprintf("%d consecutive inference failures, last: %v", n, err))
	s.failures.Store(0)
}

// Restamp отчёт из кэша со временем текущего запроса.
func (s *PredictionService) Restamp(report *entity.DiseaseReport, started time.Time) *entity.DiseaseReport {
	return s.normalizer.Restamp(report, started)
}

// Status снимок состояния модели.
func (s *PredictionService) Status() entity.ModelState {
	return s.model.Status()
}

// FallbackEnabled включён ли переход на цветовую эвристику.
func (s *PredictionService) FallbackEnabled() bool {
	return s.cfg.FallbackEnabled
}

// ActiveMethod метод, которым сейчас обслуживаются запросы.
func (s *PredictionService) ActiveMethod() entity.Method {
	return s.model.Status().ActiveMethod()
}
