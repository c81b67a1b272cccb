// Package imageio приводит входные изображения к каноническому виду.
//
// Канонический вид: *image.NRGBA, порядок каналов RGB, uint8, альфа всегда 255.
// В BGR изображение переводится только на границе с OpenCV (пакет vision).
package imageio

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
)

// Decoder декодирует base64, байты и изображения по URL
type Decoder struct {
	MaxBytes int64
	client   *http.Client
}

// NewDecoder создаёт декодер с лимитом размера и таймаутом загрузки по URL.
func NewDecoder(maxBytes int64, fetchTimeout time.Duration) *Decoder {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Decoder{
		MaxBytes: maxBytes,
		client:   &http.Client{Timeout: fetchTimeout},
	}
}

// FromBase64 принимает base64 строку, в том числе с префиксом data:<mime>;base64,
// Возвращает изображение и декодированные байты.
func (d *Decoder) FromBase64(payload string) (*image.NRGBA, []byte, error) {
	data, err := DecodeBase64(payload)
	if err != nil {
		return nil, nil, err
	}
	img, err := d.FromBytes(data)
	if err != nil {
		return nil, nil, err
	}
	return img, data, nil
}

// FromBytes декодирует байты изображения.
func (d *Decoder) FromBytes(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", entity.ErrInvalidImage)
	}
	if int64(len(data)) > d.MaxBytes {
		return nil, fmt.Errorf("%w: payload is larger than %d bytes", entity.ErrInvalidImage, d.MaxBytes)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidImage, err)
	}
	return Normalize(img)
}

// FromURL скачивает изображение и возвращает его вместе с исходными байтами.
func (d *Decoder) FromURL(ctx context.Context, rawURL string) (*image.NRGBA, []byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, nil, fmt.Errorf("%w: unsupported image url", entity.ErrInvalidImage)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", entity.ErrInvalidImage, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: fetch image: %v", entity.ErrInvalidImage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, fmt.Errorf("%w: fetch image: status %d", entity.ErrInvalidImage, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.MaxBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read image: %v", entity.ErrInvalidImage, err)
	}

	img, err := d.FromBytes(data)
	if err != nil {
		return nil, nil, err
	}
	return img, data, nil
}

// DecodeBase64 снимает data URI префикс и декодирует base64 в любом из распространённых алфавитов.
func DecodeBase64(payload string) ([]byte, error) {
	s := strings.TrimSpace(payload)
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ",")
		if idx < 0 {
			return nil, fmt.Errorf("%w: malformed data uri", entity.ErrInvalidImage)
		}
		s = s[idx+1:]
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty payload", entity.ErrInvalidImage)
	}

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: base64: %v", entity.ErrInvalidImage, lastErr)
}

// Normalize переводит любое image.Image (палитра, серое, RGBA, CMYK) в непрозрачный NRGBA.
func Normalize(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", entity.ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: zero-size image", entity.ErrInvalidImage)
	}

	// imaging.Clone всегда возвращает NRGBA с началом в (0,0).
	out := imaging.Clone(img)
	// Альфу отбрасываем так же, как конвертация в RGB: цвет не премультиплицирован.
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out, nil
}

var _ port.ImageSource = (*Decoder)(nil)
