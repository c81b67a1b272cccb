package app

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
)

type fakeSegmenter struct {
	detections []entity.Detection
	err        error
	panicMsg   string
	delay      time.Duration
	calls      atomic.Int32
	closed     atomic.Bool
}

func (f *fakeSegmenter) Segment(ctx context.Context, img *image.NRGBA) ([]entity.Detection, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.detections, nil
}

func (f *fakeSegmenter) Close() error {
	f.closed.Store(true)
	return nil
}

type fakeLoader struct {
	available bool
	segmenter port.Segmenter
	err       error
	panicMsg  string
	loads     int
}

func (f *fakeLoader) DependencyAvailable() bool {
	return f.available
}

func (f *fakeLoader) Load(weightsPath string) (port.Segmenter, error) {
	f.loads++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.segmenter, nil
}

type fakeWeights struct {
	path      string
	exists    bool
	ensureErr error
	ensures   int
}

func (f *fakeWeights) Path() string {
	return f.path
}

func (f *fakeWeights) Exists() bool {
	return f.exists
}

func (f *fakeWeights) Ensure(ctx context.Context) error {
	f.ensures++
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.exists = true
	return nil
}

// fakeModel ModelSource с ручным управлением состоянием
type fakeModel struct {
	mu        sync.Mutex
	phase     entity.ModelPhase
	segmenter port.Segmenter
	demoted   string
}

func readyModel(seg port.Segmenter) *fakeModel {
	return &fakeModel{phase: entity.PhaseReady, segmenter: seg}
}

func unavailableModel() *fakeModel {
	return &fakeModel{phase: entity.PhaseUnavailable}
}

func (f *fakeModel) Status() entity.ModelState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return entity.ModelState{Phase: f.phase, Device: entity.DeviceCPU}
}

func (f *fakeModel) Segmenter() port.Segmenter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase != entity.PhaseReady {
		return nil
	}
	return f.segmenter
}

func (f *fakeModel) Demote(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phase = entity.PhaseUnavailable
	f.demoted = reason
}

type memoryCache struct {
	mu      sync.Mutex
	reports map[string]entity.DiseaseReport
	err     error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{reports: make(map[string]entity.DiseaseReport)}
}

func (c *memoryCache) Get(ctx context.Context, key string) (*entity.DiseaseReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	report, ok := c.reports[key]
	if !ok {
		return nil, nil
	}
	return &report, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, report *entity.DiseaseReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.reports[key] = *report
	return nil
}

func uniformImage(c color.NRGBA, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

var (
	leafGreen = color.NRGBA{R: 60, G: 160, B: 60, A: 255}
	leafBrown = color.NRGBA{R: 139, G: 69, B: 19, A: 255}
)
