package app

import (
	"context"

	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
)

// SessionService сценарий диалога с ботом
type SessionService struct {
	repo port.SessionRepository
}

func NewSessionService(repo port.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

func (s *SessionService) Get(ctx context.Context, userID, chatID int64) (*entity.ChatSession, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *SessionService) SetState(ctx context.Context, userID, chatID int64, state entity.ChatState) (*entity.ChatSession, error) {
	session, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	session.SetState(state)
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *SessionService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.ChatSession, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

func (s *SessionService) BeginProcessing(ctx context.Context, userID, chatID int64) (*entity.ChatSession, error) {
	return s.SetState(ctx, userID, chatID, entity.StateProcessing)
}

func (s *SessionService) Cancel(ctx context.Context, userID, chatID int64) (*entity.ChatSession, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// ToggleLanguage переключает язык ответов и сохраняет сессию.
func (s *SessionService) ToggleLanguage(ctx context.Context, userID, chatID int64) (*entity.ChatSession, error) {
	session, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	session.ToggleLanguage()
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}
