package port

import (
	"context"
	"image"
)

// ImageSource приводит входные данные к каноническому RGB-изображению
type ImageSource interface {
	FromBase64(payload string) (*image.NRGBA, []byte, error)
	FromBytes(data []byte) (*image.NRGBA, error)
	FromURL(ctx context.Context, url string) (*image.NRGBA, []byte, error)
}
