package vision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
)

// ObjectSource объектное хранилище, из которого можно взять веса (s3://bucket/key)
type ObjectSource interface {
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// WeightsFile файл весов на диске с однократной загрузкой по URL.
type WeightsFile struct {
	path    string
	url     string
	minSize int64
	client  *http.Client
	objects ObjectSource
}

// NewWeightsFile создаёт провайдер весов. objects может быть nil, если s3:// не используется.
func NewWeightsFile(path, downloadURL string, minSize int64, objects ObjectSource) *WeightsFile {
	return &WeightsFile{
		path:    path,
		url:     downloadURL,
		minSize: minSize,
		client:  &http.Client{Timeout: 10 * time.Minute},
		objects: objects,
	}
}

// Path путь к файлу весов
func (w *WeightsFile) Path() string {
	return w.path
}

// Exists файл есть и не меньше минимального правдоподобного размера.
func (w *WeightsFile) Exists() bool {
	info, err := os.Stat(w.path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Size() >= w.minSize
}

// Ensure скачивает веса, если их нет. Недокачанный файл не остаётся на диске.
func (w *WeightsFile) Ensure(ctx context.Context) error {
	if w.Exists() {
		return nil
	}
	if w.url == "" {
		return fmt.Errorf("%w: %s not found and no download url configured", entity.ErrDownload, w.path)
	}

	log.Printf("Weights not found at %s, downloading from %s", w.path, redactURL(w.url))

	body, err := w.open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrDownload, err)
	}
	defer body.Close()

	if err := w.writeAtomically(body); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrDownload, err)
	}

	log.Printf("Weights downloaded to %s", w.path)
	return nil
}

func (w *WeightsFile) open(ctx context.Context) (io.ReadCloser, error) {
	u, err := url.Parse(w.url)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		resp, err := w.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("download: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("download: status %d", resp.StatusCode)
		}
		return resp.Body, nil

	case "s3":
		if w.objects == nil {
			return nil, errors.New("s3 url configured but object storage is not")
		}
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("invalid s3 url %q", w.url)
		}
		return w.objects.Open(ctx, u.Host, key)

	default:
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

func (w *WeightsFile) writeAtomically(r io.Reader) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write weights: %w", err)
	}
	if n < w.minSize {
		return fmt.Errorf("downloaded %d bytes, expected at least %d", n, w.minSize)
	}

	return os.Rename(tmpName, w.path)
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}

var _ port.WeightsProvider = (*WeightsFile)(nil)
