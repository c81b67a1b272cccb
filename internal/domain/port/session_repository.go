package port

import (
	"context"

	"grapeguard/internal/domain/entity"
)

// SessionRepository интерфейс хранилища сессий чата
type SessionRepository interface {
	// Get возвращает сессию, создаёт новую если не найдена
	Get(ctx context.Context, userID, chatID int64) (*entity.ChatSession, error)

	// Save сохраняет состояние сессии
	Save(ctx context.Context, session *entity.ChatSession) error

	// UpdateState обновляет состояние диалога
	UpdateState(ctx context.Context, userID int64, state entity.ChatState) error
}
