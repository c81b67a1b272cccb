package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "grapeguard/internal/application"
	"grapeguard/internal/domain/entity"
)

// texts сообщения бота на одном языке
type texts struct {
	Start           string
	Help            string
	AwaitingPhoto   string
	Cancelled       string
	SendPhoto       string
	UnknownCommand  string
	Processing      string
	ProcessingError string
	LanguageSet     string
	Disease         string
	Confidence      string
	Severity        string
	Method          string
	Recommendations string
	Cached          string
}

var messages = map[entity.Language]texts{
	entity.LangEnglish: {
		Start: `👋 Hello! I check grape leaves for diseases.

📸 Send me a photo of a single leaf and I will tell you what I see.

📋 Commands:
/check — start a leaf check
/lang — switch language (English / मराठी)
/help — help
/cancel — cancel the current operation`,
		Help: `ℹ️ How to use the bot:

1️⃣ Send a photo of one grape leaf
2️⃣ The bot analyses the image
3️⃣ You get the disease, severity and what to do next

💡 Tips:
• Shoot in daylight
• Fill the frame with the leaf
• Keep the photo sharp

📋 Commands:
/check — start a check
/lang — switch language
/cancel — cancel the operation`,
		AwaitingPhoto:   "📸 Send a photo of the leaf to check.",
		Cancelled:       "❌ Operation cancelled. Send /check to start a new check.",
		SendPhoto:       "📸 Please send a photo of the leaf to check.",
		UnknownCommand:  "❓ Unknown command. Use /help.",
		Processing:      "⏳ Analysing the image...",
		ProcessingError: "⚠️ Could not process the image. Please try another photo.",
		LanguageSet:     "🌐 Language: English",
		Disease:         "Diagnosis",
		Confidence:      "Confidence",
		Severity:        "Severity",
		Method:          "Method",
		Recommendations: "What to do",
		Cached:          "same photo was checked recently",
	},
	entity.LangMarathi: {
		Start: `👋 नमस्कार! मी द्राक्षाच्या पानांवरील रोग तपासतो.

📸 एका पानाचा फोटो पाठवा.

📋 आदेश:
/check — तपासणी सुरू करा
/lang — भाषा बदला (English / मराठी)
/help — मदत
/cancel — रद्द करा`,
		Help: `ℹ️ वापर कसा करावा:

1️⃣ द्राक्षाच्या एका पानाचा फोटो पाठवा
2️⃣ बॉट फोटो तपासतो
3️⃣ तुम्हाला रोग, तीव्रता आणि उपाय मिळतात

📋 आदेश:
/check — तपासणी सुरू करा
/lang — भाषा बदला
/cancel — रद्द करा`,
		AwaitingPhoto:   "📸 तपासणीसाठी पानाचा फोटो पाठवा.",
		Cancelled:       "❌ रद्द केले. नवीन तपासणीसाठी /check पाठवा.",
		SendPhoto:       "📸 कृपया पानाचा फोटो पाठवा.",
		UnknownCommand:  "❓ अज्ञात आदेश. /help वापरा.",
		Processing:      "⏳ फोटो तपासत आहे...",
		ProcessingError: "⚠️ फोटो तपासता आला नाही. दुसरा फोटो पाठवा.",
		LanguageSet:     "🌐 भाषा: मराठी",
		Disease:         "निदान",
		Confidence:      "खात्री",
		Severity:        "तीव्रता",
		Method:          "पद्धत",
		Recommendations: "उपाय",
		Cached:          "हाच फोटो नुकताच तपासला होता",
	},
}

func textsFor(lang entity.Language) texts {
	if t, ok := messages[lang]; ok {
		return t
	}
	return messages[entity.LangEnglish]
}

// Bot представляет Telegram-бота
type Bot struct {
	api        *tgbotapi.BotAPI
	sessions   *app.SessionService
	inspection *app.InspectionService
}

// NewBot создаёт нового бота
func NewBot(token string, sessions *app.SessionService, inspection *app.InspectionService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:        api,
		sessions:   sessions,
		inspection: inspection,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	session, err := b.sessions.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		log.Printf("Error getting session: %v", err)
		return
	}
	t := textsFor(session.Language)

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, session)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, session)
		return
	}

	b.sendMessage(msg.Chat.ID, t.SendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, session *entity.ChatSession) {
	t := textsFor(session.Language)

	switch msg.Command() {
	case "start":
		b.setState(ctx, msg, b.sessions.Cancel)
		b.sendMessage(msg.Chat.ID, t.Start)

	case "help":
		b.sendMessage(msg.Chat.ID, t.Help)

	case "check":
		b.setState(ctx, msg, b.sessions.BeginCheck)
		b.sendMessage(msg.Chat.ID, t.AwaitingPhoto)

	case "cancel":
		b.setState(ctx, msg, b.sessions.Cancel)
		b.sendMessage(msg.Chat.ID, t.Cancelled)

	case "lang":
		updated, err := b.sessions.ToggleLanguage(ctx, msg.From.ID, msg.Chat.ID)
		if err != nil {
			log.Printf("Error switching language: %v", err)
			return
		}
		b.sendMessage(msg.Chat.ID, textsFor(updated.Language).LanguageSet)

	default:
		b.sendMessage(msg.Chat.ID, t.UnknownCommand)
	}
}

// handlePhoto обрабатывает входящее фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, session *entity.ChatSession) {
	t := textsFor(session.Language)
	b.sendMessage(msg.Chat.ID, t.Processing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	fileURL, err := b.api.GetFileDirectURL(photo.FileID)
	if err != nil {
		log.Printf("Error getting photo link: %v", err)
		b.sendMessage(msg.Chat.ID, t.ProcessingError)
		return
	}

	out, err := b.inspection.InspectPhoto(ctx, msg.From.ID, msg.Chat.ID, fileURL)
	if err != nil {
		log.Printf("Error inspecting photo from user %d: %v", msg.From.ID, redactToken(err, b.api.Token))
		b.sendMessage(msg.Chat.ID, t.ProcessingError)
		return
	}

	log.Printf("Report %s for user %d: %s (%.1f%%, %s)",
		out.Report.RequestID, msg.From.ID, out.Report.Disease, out.Report.Confidence, out.Report.Method)
	b.sendMessage(msg.Chat.ID, formatReport(out.Report, session.Language))
}

func (b *Bot) setState(ctx context.Context, msg *tgbotapi.Message, transition func(context.Context, int64, int64) (*entity.ChatSession, error)) {
	if _, err := transition(ctx, msg.From.ID, msg.Chat.ID); err != nil {
		log.Printf("Error saving session: %v", err)
	}
}

// formatReport текст отчёта на языке чата
func formatReport(report *entity.DiseaseReport, lang entity.Language) string {
	t := textsFor(lang)
	if report.IsError() {
		return t.ProcessingError
	}

	name := report.Disease
	if lang == entity.LangMarathi && report.Marathi != "" {
		name = report.Marathi
	}

	icon := "🦠"
	if report.ClassID == entity.HealthyClass().ID {
		icon = "✅"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s: %s\n", icon, t.Disease, name)
	fmt.Fprintf(&sb, "📊 %s: %.1f%%\n", t.Confidence, report.Confidence)
	if report.Severity != "" {
		fmt.Fprintf(&sb, "⚠️ %s: %s\n", t.Severity, report.Severity)
	}
	fmt.Fprintf(&sb, "🔬 %s: %s", t.Method, report.Method)
	if report.Cached {
		fmt.Fprintf(&sb, " (%s)", t.Cached)
	}
	sb.WriteString("\n")

	if len(report.Recommendations) > 0 {
		fmt.Fprintf(&sb, "\n💡 %s:\n", t.Recommendations)
		for _, r := range report.Recommendations {
			fmt.Fprintf(&sb, "• %s\n", r)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// redactToken убирает токен бота из текста ошибки со ссылкой на файл
func redactToken(err error, token string) string {
	if token == "" {
		return err.Error()
	}
	return strings.ReplaceAll(err.Error(), token, "<token>")
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
