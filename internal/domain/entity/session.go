package entity

// ChatState состояние диалога в Telegram
type ChatState string

const (
	StateMainMenu      ChatState = "main_menu"      // В главном меню
	StateAwaitingPhoto ChatState = "awaiting_photo" // Ожидание фото листа
	StateProcessing    ChatState = "processing"     // Обработка изображения
)

// Language язык ответов бота
type Language string

const (
	LangEnglish Language = "en"
	LangMarathi Language = "mr"
)

// ChatSession состояние одного чата с ботом
type ChatSession struct {
	UserID   int64     // Telegram User ID
	ChatID   int64     // Telegram Chat ID
	State    ChatState // Текущее состояние диалога
	Language Language  // Язык ответов
}

// NewChatSession создаёт сессию с начальным состоянием
func NewChatSession(userID, chatID int64) *ChatSession {
	return &ChatSession{
		UserID:   userID,
		ChatID:   chatID,
		State:    StateMainMenu,
		Language: LangEnglish,
	}
}

// SetState обновляет состояние диалога
func (s *ChatSession) SetState(state ChatState) {
	s.State = state
}

// ToggleLanguage переключает язык между английским и маратхи.
func (s *ChatSession) ToggleLanguage() Language {
	if s.Language == LangMarathi {
		s.Language = LangEnglish
	} else {
		s.Language = LangMarathi
	}
	return s.Language
}
