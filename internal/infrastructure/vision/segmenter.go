//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
)

// Размер строки выхода: image_id, class_id, score, x1, y1, x2, y2 (координаты нормированы).
const detectionRowSize = 7

// DNNLoader строит сегментатор на OpenCV DNN.
type DNNLoader struct {
	Config SegmenterConfig
}

// NewDNNLoader создаёт загрузчик модели.
func NewDNNLoader(cfg SegmenterConfig) *DNNLoader {
	return &DNNLoader{Config: cfg}
}

// DependencyAvailable бинарник собран с OpenCV.
func (l *DNNLoader) DependencyAvailable() bool {
	return true
}

// Load читает веса и настраивает сеть на CPU.
func (l *DNNLoader) Load(weightsPath string) (port.Segmenter, error) {
	net := gocv.ReadNet(weightsPath, l.Config.ConfigPath)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("read net %s: empty network", weightsPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("set backend: %w", err)
	}
	// Устройство фиксировано: CPU.
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("set target: %w", err)
	}

	log.Printf("Segmenter loaded from %s (classes=%d, threshold=%.2f, device=%s)",
		weightsPath, l.Config.NumClasses, l.Config.Threshold, l.Config.Device)

	return &DNNSegmenter{net: net, cfg: l.Config}, nil
}

// DNNSegmenter модель instance-сегментации на OpenCV DNN.
// gocv.Net не потокобезопасен, поэтому вызовы сериализуются.
type DNNSegmenter struct {
	mu  sync.Mutex
	net gocv.Net
	cfg SegmenterConfig
}

// Segment прогоняет изображение через сеть и возвращает находки не ниже порога.
func (s *DNNSegmenter) Segment(ctx context.Context, img *image.NRGBA) ([]entity.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("empty image")
	}

	mat, err := nrgbaToBGR(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	size := s.cfg.InputSize
	blob := gocv.BlobFromImage(mat, 1.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	// пока ждали сеть, запрос мог истечь
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.net.SetInput(blob, "")
	out := s.net.Forward(s.cfg.OutputLayer)
	defer out.Close()
	if out.Empty() {
		return nil, errors.New("empty network output")
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read network output: %w", err)
	}

	w := float64(mat.Cols())
	h := float64(mat.Rows())
	detections := make([]entity.Detection, 0)
	for i := 0; i+detectionRowSize <= len(data); i += detectionRowSize {
		score := float64(data[i+2])
		if math.IsNaN(score) || math.IsInf(score, 0) || score < s.cfg.Threshold {
			continue
		}
		detections = append(detections, entity.Detection{
			ClassIndex: int(data[i+1]),
			Confidence: score,
			Box: entity.NewBoundingBox(
				clamp01(float64(data[i+3]))*w,
				clamp01(float64(data[i+4]))*h,
				clamp01(float64(data[i+5]))*w,
				clamp01(float64(data[i+6]))*h,
			),
		})
	}

	return detections, nil
}

// Close освобождает сеть.
func (s *DNNSegmenter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Close()
}

// nrgbaToBGR переводит каноническое RGB изображение в BGR Mat для OpenCV.
func nrgbaToBGR(img *image.NRGBA) (gocv.Mat, error) {
	b := img.Bounds()
	if img.Stride != b.Dx()*4 {
		img = cloneContiguous(img)
	}

	rgba, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, img.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("wrap image: %w", err)
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}

func cloneContiguous(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var (
	_ port.SegmenterLoader = (*DNNLoader)(nil)
	_ port.Segmenter       = (*DNNSegmenter)(nil)
)
