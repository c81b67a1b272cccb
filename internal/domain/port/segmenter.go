package port

import (
	"context"
	"image"

	"grapeguard/internal/domain/entity"
)

// Segmenter предобученная модель instance-сегментации
type Segmenter interface {
	// Segment возвращает находки модели с уверенностью не ниже порога
	Segment(ctx context.Context, img *image.NRGBA) ([]entity.Detection, error)

	// Close освобождает ресурсы модели
	Close() error
}

// SegmenterLoader строит Segmenter из файла весов
type SegmenterLoader interface {
	// DependencyAvailable сообщает, собран ли бинарник с библиотекой инференса
	DependencyAvailable() bool

	// Load создаёт модель из файла весов
	Load(weightsPath string) (Segmenter, error)
}

// WeightsProvider отвечает за файл весов на диске
type WeightsProvider interface {
	// Path путь к файлу весов
	Path() string

	// Exists проверяет наличие файла весов правдоподобного размера
	Exists() bool

	// Ensure скачивает веса, если их нет на диске
	Ensure(ctx context.Context) error
}
