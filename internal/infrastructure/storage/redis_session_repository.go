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

// DefaultSessionTTL сколько живёт неактивная сессия чата
const DefaultSessionTTL = 24 * time.Hour

// RedisSessionRepository сессии чата в Redis, переживают перезапуск бота
type RedisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) *RedisSessionRepository {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionRepository{client: client, ttl: ttl}
}

// Get возвращает сессию, создаёт новую если не найдена
func (r *RedisSessionRepository) Get(ctx context.Context, userID, chatID int64) (*entity.ChatSession, error) {
	session, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	session = entity.NewChatSession(userID, chatID)
	if err := r.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Save сохраняет сессию и продлевает её срок жизни
func (r *RedisSessionRepository) Save(ctx context.Context, session *entity.ChatSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(session.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// UpdateState обновляет состояние диалога существующей сессии
func (r *RedisSessionRepository) UpdateState(ctx context.Context, userID int64, state entity.ChatState) error {
	session, err := r.load(ctx, userID)
	if err != nil || session == nil {
		return err
	}

	session.SetState(state)
	return r.Save(ctx, session)
}

func (r *RedisSessionRepository) load(ctx context.Context, userID int64) (*entity.ChatSession, error) {
	data, err := r.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session entity.ChatSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

// Проверка реализации интерфейса
var _ port.SessionRepository = (*RedisSessionRepository)(nil)
