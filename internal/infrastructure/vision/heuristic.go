package vision

import (
	"context"
	"image"
	"log"
	"math"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
)

// HSVRange диапазон в пространстве HSV: тон в градусах [0,360), насыщенность и яркость в [0,1].
// Тон проверяется как HueMin <= h < HueMax.
type HSVRange struct {
	HueMin, HueMax float64
	SatMin, SatMax float64
	ValMin, ValMax float64
}

// Contains проверяет попадание цвета в диапазон.
func (r HSVRange) Contains(h, s, v float64) bool {
	return h >= r.HueMin && h < r.HueMax &&
		s >= r.SatMin && s <= r.SatMax &&
		v >= r.ValMin && v <= r.ValMax
}

// ColorRanges три непересекающихся диапазона цветовой эвристики
type ColorRanges struct {
	Green  HSVRange // здоровая листва
	Yellow HSVRange // ранний признак болезни
	Brown  HSVRange // некроз
}

// DefaultColorRanges диапазоны по умолчанию. Диапазоны не пересекаются по тону.
func DefaultColorRanges() ColorRanges {
	return ColorRanges{
		Brown:  HSVRange{HueMin: 0, HueMax: 40, SatMin: 0.20, SatMax: 1, ValMin: 0.08, ValMax: 0.78},
		Yellow: HSVRange{HueMin: 40, HueMax: 70, SatMin: 0.16, SatMax: 1, ValMin: 0.16, ValMax: 1},
		Green:  HSVRange{HueMin: 70, HueMax: 170, SatMin: 0.16, SatMax: 1, ValMin: 0.16, ValMax: 1},
	}
}

// Пороги таблицы решений
const (
	healthyGreenMin    = 0.60
	healthyYellowBelow = 0.15
	healthyBrownBelow  = 0.10
	anthracnoseBrown   = 0.20
	powderyYellow      = 0.25
	downyBrown         = 0.10
	downyYellow        = 0.15

	healthyCap       = 0.90
	anthracnoseCap   = 0.85
	powderyCap       = 0.80
	downyConfidence  = 0.70
	uncertainHealthy = 0.75
	errorConfidence  = 0.50
)

// HeuristicClassifier классификатор по цветовой статистике, без модели
type HeuristicClassifier struct {
	Ranges ColorRanges
	// MaxSide 0 - подсчёт в полном разрешении. Иначе пиксели прореживаются
	// ближайшим соседом, цвета не смешиваются.
	MaxSide int
}

// NewHeuristicClassifier создаёт классификатор с диапазонами по умолчанию.
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{
		Ranges: DefaultColorRanges(),
	}
}

// Classify всегда возвращает ровно одну находку без прямоугольника и никогда не возвращает ошибку.
func (h *HeuristicClassifier) Classify(ctx context.Context, img *image.NRGBA) (result *entity.Classification, err error) {
	_ = ctx
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Color analysis failed: %v", r)
			result = errorClassification()
			err = nil
		}
	}()

	stats, ok := h.Measure(img)
	if !ok {
		return errorClassification(), nil
	}

	index, confidence, method := Decide(stats)
	return &entity.Classification{
		Method:     method,
		Detections: []entity.Detection{{ClassIndex: index, Confidence: confidence}},
		Colors:     &stats,
	}, nil
}

// Measure считает доли пикселей в диапазонах. ok=false для пустого изображения.
func (h *HeuristicClassifier) Measure(img *image.NRGBA) (entity.ColorStats, bool) {
	if img == nil || img.Bounds().Dx() <= 0 || img.Bounds().Dy() <= 0 {
		return entity.ColorStats{}, false
	}

	src := img
	if h.MaxSide > 0 && (img.Bounds().Dx() > h.MaxSide || img.Bounds().Dy() > h.MaxSide) {
		src = imaging.Fit(img, h.MaxSide, h.MaxSide, imaging.NearestNeighbor)
	}

	b := src.Bounds()
	total := b.Dx() * b.Dy()
	if total <= 0 {
		return entity.ColorStats{}, false
	}

	var green, yellow, brown int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := src.PixOffset(x, y)
			c := colorful.Color{
				R: float64(src.Pix[i]) / 255,
				G: float64(src.Pix[i+1]) / 255,
				B: float64(src.Pix[i+2]) / 255,
			}
			hue, sat, val := c.Hsv()
			switch {
			case h.Ranges.Green.Contains(hue, sat, val):
				green++
			case h.Ranges.Yellow.Contains(hue, sat, val):
				yellow++
			case h.Ranges.Brown.Contains(hue, sat, val):
				brown++
			}
		}
	}

	n := float64(total)
	stats := entity.ColorStats{
		Green:  float64(green) / n,
		Yellow: float64(yellow) / n,
		Brown:  float64(brown) / n,
	}
	if math.IsNaN(stats.Green) || math.IsNaN(stats.Yellow) || math.IsNaN(stats.Brown) {
		return entity.ColorStats{}, false
	}
	return stats, true
}

// Decide таблица решений эвристики. Правила проверяются по порядку, побеждает первое совпавшее.
func Decide(s entity.ColorStats) (classIndex int, confidence float64, method entity.Method) {
	switch {
	case s.Green >= healthyGreenMin && s.Yellow < healthyYellowBelow && s.Brown < healthyBrownBelow:
		return entity.ClassHealthy, math.Min(healthyCap, 0.70+s.Green*0.20), entity.MethodColorAnalysis
	case s.Brown >= anthracnoseBrown:
		return entity.ClassAnthracnose, math.Min(anthracnoseCap, 0.60+s.Brown*0.25), entity.MethodColorAnalysis
	case s.Yellow >= powderyYellow:
		return entity.ClassPowderyMildew, math.Min(powderyCap, 0.60+s.Yellow*0.20), entity.MethodColorAnalysis
	case s.Brown >= downyBrown || s.Yellow >= downyYellow:
		return entity.ClassDownyMildew, downyConfidence, entity.MethodColorAnalysis
	default:
		return entity.ClassHealthy, uncertainHealthy, entity.MethodColorAnalysisUncertain
	}
}

func errorClassification() *entity.Classification {
	return &entity.Classification{
		Method:     entity.MethodColorAnalysisError,
		Detections: []entity.Detection{{ClassIndex: entity.ClassHealthy, Confidence: errorConfidence}},
	}
}

var _ port.Classifier = (*HeuristicClassifier)(nil)
