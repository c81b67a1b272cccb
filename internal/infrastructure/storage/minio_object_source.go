package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig параметры подключения к объектному хранилищу
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
	Region    string
}

// MinioObjectSource отдаёт объекты из MinIO/S3 как потоки
type MinioObjectSource struct {
	client *minio.Client
}

// NewMinioObjectSource создаёт клиента MinIO. Схема в адресе допускается и отбрасывается.
func NewMinioObjectSource(cfg MinioConfig) (*MinioObjectSource, error) {
	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	if strings.HasPrefix(endpoint, "https://") {
		endpoint = strings.TrimPrefix(endpoint, "https://")
		cfg.Secure = true
	}
	endpoint = strings.TrimSuffix(endpoint, "/")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	return &MinioObjectSource{client: client}, nil
}

// Open открывает объект на чтение. Отсутствие объекта обнаруживается сразу, а не при первом чтении.
func (s *MinioObjectSource) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucket, key, err)
	}

	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("failed to stat object %s/%s: %w", bucket, key, err)
	}
	if info.Size == 0 {
		_ = obj.Close()
		return nil, fmt.Errorf("object %s/%s is empty", bucket, key)
	}

	return obj, nil
}
