package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"log"
	"time"

	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
)

// Границы выборки истории
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// DiagnoseRequest входные данные одного запроса. Достаточно одного источника изображения.
type DiagnoseRequest struct {
	Image             string // base64 или data URI
	ImageURL          string
	File              []byte
	IncludeDetections bool
}

// DiagnosisService связывает декодирование, оркестратор, кэш и историю.
type DiagnosisService struct {
	images    port.ImageSource
	predictor *PredictionService
	cache     port.ReportCache      // может быть nil
	history   port.ReportRepository // может быть nil
}

// NewDiagnosisService создаёт сервис диагностики. cache и history необязательны.
func NewDiagnosisService(images port.ImageSource, predictor *PredictionService, cache port.ReportCache, history port.ReportRepository) *DiagnosisService {
	return &DiagnosisService{
		images:    images,
		predictor: predictor,
		cache:     cache,
		history:   history,
	}
}

// Diagnose декодирует изображение и возвращает отчёт.
// Сбои кэша и истории только логируются.
func (s *DiagnosisService) Diagnose(ctx context.Context, req DiagnoseRequest) (*entity.DiseaseReport, error) {
	started := time.Now()
	img, raw, err := s.decode(ctx, req)
	if err != nil {
		return nil, err
	}

	method := s.predictor.ActiveMethod()
	key := s.cacheKey(method, raw, req.IncludeDetections)
	if cached := s.lookup(ctx, key); cached != nil {
		return s.predictor.Restamp(cached, started), nil
	}

	report, err := s.predictor.Predict(ctx, img, req.IncludeDetections)
	if err != nil {
		return nil, err
	}

	if report.IsError() {
		return report, nil
	}

	if s.history != nil {
		if err := s.history.Save(ctx, report); err != nil {
			log.Printf("Failed to save report %s: %v", report.RequestID, err)
		}
	}
	// отчёт разового fallback при готовой модели в кэш не попадает
	if s.cache != nil && report.Method.IsHeuristic() == method.IsHeuristic() {
		if err := s.cache.Set(ctx, key, report); err != nil {
			log.Printf("Failed to cache report %s: %v", report.RequestID, err)
		}
	}

	return report, nil
}

// History последние отчёты, новые первыми.
func (s *DiagnosisService) History(ctx context.Context, limit int) ([]*entity.DiseaseReport, error) {
	if s.history == nil {
		return []*entity.DiseaseReport{}, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.history.Recent(ctx, limit)
}

// Status снимок состояния модели.
func (s *DiagnosisService) Status() entity.ModelState {
	return s.predictor.Status()
}

// FallbackEnabled включён ли переход на цветовую эвристику.
func (s *DiagnosisService) FallbackEnabled() bool {
	return s.predictor.FallbackEnabled()
}

func (s *DiagnosisService) decode(ctx context.Context, req DiagnoseRequest) (*image.NRGBA, []byte, error) {
	switch {
	case len(req.File) > 0:
		img, err := s.images.FromBytes(req.File)
		return img, req.File, err
	case req.Image != "":
		return s.images.FromBase64(req.Image)
	case req.ImageURL != "":
		return s.images.FromURL(ctx, req.ImageURL)
	default:
		return nil, nil, fmt.Errorf("%w: no image provided", entity.ErrInvalidImage)
	}
}

// cacheKey ключ из активного метода, sha256 изображения и флага находок.
func (s *DiagnosisService) cacheKey(method entity.Method, raw []byte, includeDetections bool) string {
	if s.cache == nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("report:%s:%s:%t", method, hex.EncodeToString(sum[:]), includeDetections)
}

func (s *DiagnosisService) lookup(ctx context.Context, key string) *entity.DiseaseReport {
	if s.cache == nil {
		return nil
	}
	report, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Printf("Report cache lookup failed: %v", err)
		return nil
	}
	if report == nil {
		return nil
	}
	report.Cached = true
	return report
}
