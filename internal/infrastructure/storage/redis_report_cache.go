package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
)

// DefaultReportTTL время жизни отчёта в кэше
const DefaultReportTTL = 10 * time.Minute

// RedisReportCache кэш отчётов в Redis
type RedisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisReportCache(client *redis.Client, ttl time.Duration) *RedisReportCache {
	if ttl <= 0 {
		ttl = DefaultReportTTL
	}
	return &RedisReportCache{client: client, ttl: ttl}
}

// Get возвращает nil, nil при промахе
func (c *RedisReportCache) Get(ctx context.Context, key string) (*entity.DiseaseReport, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached report: %w", err)
	}

	var report entity.DiseaseReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached report: %w", err)
	}
	return &report, nil
}

func (c *RedisReportCache) Set(ctx context.Context, key string, report *entity.DiseaseReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}

// Проверка реализации интерфейса
var _ port.ReportCache = (*RedisReportCache)(nil)
