package storage

import (
	"context"
	"sync"

	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
)

// MemorySessionRepository in-memory хранилище сессий чата
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]*entity.ChatSession
}

// NewMemorySessionRepository создаёт новое in-memory хранилище
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[int64]*entity.ChatSession),
	}
}

// Get возвращает сессию по ID пользователя, создаёт новую если не найдена
func (r *MemorySessionRepository) Get(ctx context.Context, userID, chatID int64) (*entity.ChatSession, error) {
	r.mu.RLock()
	session, exists := r.sessions[userID]
	r.mu.RUnlock()

	if exists {
		copied := *session
		return &copied, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if session, exists = r.sessions[userID]; !exists {
		session = entity.NewChatSession(userID, chatID)
		r.sessions[userID] = session
	}

	copied := *session
	return &copied, nil
}

// Save сохраняет состояние сессии
func (r *MemorySessionRepository) Save(ctx context.Context, session *entity.ChatSession) error {
	copied := *session

	r.mu.Lock()
	r.sessions[session.UserID] = &copied
	r.mu.Unlock()

	return nil
}

// UpdateState обновляет состояние диалога
func (r *MemorySessionRepository) UpdateState(ctx context.Context, userID int64, state entity.ChatState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, exists := r.sessions[userID]; exists {
		session.SetState(state)
	}

	return nil
}

// Проверка реализации интерфейса
var _ port.SessionRepository = (*MemorySessionRepository)(nil)
