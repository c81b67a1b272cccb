package port

import (
	"context"
	"image"

	"grapeguard/internal/domain/entity"
)

// Classifier интерфейс классификатора листа
type Classifier interface {
	// Classify анализирует изображение (RGB) и возвращает сырые находки
	Classify(ctx context.Context, img *image.NRGBA) (*entity.Classification, error)
}
