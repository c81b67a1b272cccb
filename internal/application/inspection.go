package app

import (
	"context"
	"errors"

	"grapeguard/internal/domain/entity"
)

// InspectionService проверка листа по фото из чата.
type InspectionService struct {
	sessions  *SessionService
	diagnosis *DiagnosisService
}

// InspectionOutput содержит отчёт и сессию после проверки.
type InspectionOutput struct {
	Report  *entity.DiseaseReport
	Session *entity.ChatSession
}

// NewInspectionService создаёт сервис, который управляет проверкой листа в чате.
func NewInspectionService(sessions *SessionService, diagnosis *DiagnosisService) *InspectionService {
	return &InspectionService{
		sessions:  sessions,
		diagnosis: diagnosis,
	}
}

// InspectPhoto скачивает фото по ссылке, ставит диагноз и возвращает пользователя в главное меню.
func (s *InspectionService) InspectPhoto(ctx context.Context, userID, chatID int64, photoURL string) (*InspectionOutput, error) {
	if s.diagnosis == nil {
		return nil, errors.New("diagnosis is not configured")
	}

	if _, err := s.sessions.BeginProcessing(ctx, userID, chatID); err != nil {
		return nil, err
	}

	report, diagErr := s.diagnosis.Diagnose(ctx, DiagnoseRequest{ImageURL: photoURL})

	// Сессия возвращается в меню и при ошибке диагностики.
	session, err := s.sessions.Cancel(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if diagErr != nil {
		return nil, diagErr
	}

	return &InspectionOutput{Report: report, Session: session}, nil
}
