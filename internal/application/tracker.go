package app

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"sync"

	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
)

// Размер и яркость синтетического изображения для проверочного инференса
const (
	sanitySide = 400
	sanityGray = 128
)

// ModelTracker следит за доступностью модели.
// Переход из unattempted выполняется один раз; после этого состояние только читается,
// кроме явного понижения через Demote.
type ModelTracker struct {
	loader    port.SegmenterLoader
	weights   port.WeightsProvider
	threshold float64

	once      sync.Once
	mu        sync.RWMutex
	phase     entity.ModelPhase
	failure   entity.FailureCategory
	reason    string
	segmenter port.Segmenter
}

// NewModelTracker создаёт трекер в состоянии unattempted.
func NewModelTracker(loader port.SegmenterLoader, weights port.WeightsProvider, threshold float64) *ModelTracker {
	return &ModelTracker{
		loader:    loader,
		weights:   weights,
		threshold: threshold,
		phase:     entity.PhaseUnattempted,
	}
}

// Initialize пытается загрузить модель. Ошибки не возвращаются: любой сбой переводит
// трекер в unavailable и запоминается с категорией первого упавшего шага.
func (t *ModelTracker) Initialize(ctx context.Context) entity.ModelState {
	t.once.Do(func() {
		t.setPhase(entity.PhaseLoading)

		seg, category, err := t.load(ctx)
		if err != nil {
			log.Printf("Model unavailable (%s): %v", category, err)
			t.mu.Lock()
			t.phase = entity.PhaseUnavailable
			t.failure = category
			t.reason = err.Error()
			t.mu.Unlock()
			return
		}

		t.mu.Lock()
		t.phase = entity.PhaseReady
		t.segmenter = seg
		t.mu.Unlock()
		log.Printf("Model is ready (weights=%s, threshold=%.2f)", t.weights.Path(), t.threshold)
	})
	return t.Status()
}

func (t *ModelTracker) load(ctx context.Context) (port.Segmenter, entity.FailureCategory, error) {
	if !t.loader.DependencyAvailable() {
		return nil, entity.FailureDependency, entity.ErrDependencyMissing
	}

	if err := guard(func() error { return t.weights.Ensure(ctx) }); err != nil {
		return nil, entity.FailureWeightsMissing, err
	}

	var seg port.Segmenter
	err := guard(func() error {
		var err error
		seg, err = t.loader.Load(t.weights.Path())
		return err
	})
	if err != nil {
		return nil, entity.FailureConstruction, err
	}
	if seg == nil {
		return nil, entity.FailureConstruction, fmt.Errorf("loader returned no segmenter")
	}

	err = guard(func() error {
		detections, err := seg.Segment(ctx, sanityImage())
		if err == nil {
			log.Printf("Sanity inference passed: %d detections on blank image", len(detections))
		}
		return err
	})
	if err != nil {
		_ = seg.Close()
		return nil, entity.FailureInference, fmt.Errorf("sanity inference: %w", err)
	}

	return seg, entity.FailureNone, nil
}

// Status возвращает снимок состояния. Наличие весов на диске проверяется при каждом вызове.
func (t *ModelTracker) Status() entity.ModelState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return entity.ModelState{
		Phase:               t.phase,
		Failure:             t.failure,
		FailureReason:       t.reason,
		DependencyAvailable: t.loader.DependencyAvailable(),
		WeightsExist:        t.weights.Exists(),
		WeightsPath:         t.weights.Path(),
		Threshold:           t.threshold,
		Classes:             entity.ClassNames(),
		Device:              entity.DeviceCPU,
	}
}

// Segmenter возвращает модель; nil, если модель не готова.
func (t *ModelTracker) Segmenter() port.Segmenter {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.phase != entity.PhaseReady {
		return nil
	}
	return t.segmenter
}

// Demote переводит готовую модель в unavailable после повторяющихся сбоев инференса.
func (t *ModelTracker) Demote(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != entity.PhaseReady {
		return
	}
	t.phase = entity.PhaseUnavailable
	t.failure = entity.FailureInference
	t.reason = reason
	log.Printf("Model demoted to unavailable: %s", reason)
}

// Close освобождает модель.
func (t *ModelTracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.segmenter == nil {
		return nil
	}
	err := t.segmenter.Close()
	t.segmenter = nil
	return err
}

func (t *ModelTracker) setPhase(phase entity.ModelPhase) {
	t.mu.Lock()
	t.phase = phase
	t.mu.Unlock()
}

// guard превращает панику шага загрузки в ошибку этого шага.
func guard(step func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return step()
}

func sanityImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, sanitySide, sanitySide))
	gray := color.NRGBA{R: sanityGray, G: sanityGray, B: sanityGray, A: 255}
	for y := 0; y < sanitySide; y++ {
		for x := 0; x < sanitySide; x++ {
			img.SetNRGBA(x, y, gray)
		}
	}
	return img
}
