package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/kisanmitra/advisory/internal/models"
	"github.com/kisanmitra/advisory/internal/service"
	"go.uber.org/zap"
)

const recentLimit = 5

// Advisory is the pipeline the bot forwards questions to.
type Advisory interface {
	Ask(ctx context.Context, query, language string) (*service.Result, error)
	Stats(ctx context.Context) (models.Stats, error)
	Recent(ctx context.Context, limit int) ([]models.QueryRecord, error)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api      *tgbotapi.BotAPI
	sender   sender
	advisory Advisory
	logger   *zap.Logger
}

func New(token string, advisory Advisory, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:      api,
		sender:   api,
		advisory: advisory,
		logger:   logger,
	}, nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Telegram bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram update channel closed")
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}

	// Handle commands
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	// Get content from message
	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}

	correlationID := uuid.New().String()
	language := languageFor(message.From.LanguageCode)

	result, err := b.advisory.Ask(ctx, content, language)
	if errors.Is(err, service.ErrEmptyQuery) {
		b.sendMessage(message.Chat.ID, "Please send your farming question as text.")
		return
	}
	if err != nil {
		b.logger.Error("Failed to answer question",
			zap.Error(err),
			zap.String("correlation_id", correlationID),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't answer that. Please try again.")
		return
	}

	b.logger.Info("Answered Telegram question",
		zap.String("correlation_id", correlationID),
		zap.Int64("user_id", message.From.ID),
		zap.String("category", string(result.Category)),
		zap.String("source", result.Source))

	msg := tgbotapi.NewMessage(message.Chat.ID, formatAnswer(result))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyToMessageID = message.MessageID
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send answer",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "stats":
		b.handleStats(ctx, message)
	case "recent":
		b.handleRecent(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome to KisanMitra! 🌾
I answer farming questions about crops, pests, weather, fertilizers, market prices and government schemes.

Just send me your question. Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the bot
/help - Show this help message
/stats - Show how many questions have been answered
/recent - Show the latest questions

Send any question as a message. I reply in English, Malayalam, Hindi, Tamil or Telugu based on your Telegram language.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) {
	stats, err := b.advisory.Stats(ctx)
	if err != nil {
		b.logger.Error("Failed to read stats",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, statistics are unavailable right now.")
		return
	}

	b.sendMessage(message.Chat.ID, formatStats(stats))
}

func (b *Bot) handleRecent(ctx context.Context, message *tgbotapi.Message) {
	records, err := b.advisory.Recent(ctx, recentLimit)
	if err != nil {
		b.logger.Error("Failed to list recent questions",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't retrieve recent questions.")
		return
	}

	if len(records) == 0 {
		b.sendMessage(message.Chat.ID, "No questions have been asked yet.")
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, formatRecent(records))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send recent questions",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

// languageFor maps a Telegram IETF tag such as "ml-IN" onto a known code.
func languageFor(code string) string {
	code = strings.ToLower(code)
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	if models.KnownLanguage(code) {
		return code
	}
	return models.DefaultLanguage
}

func formatAnswer(result *service.Result) string {
	text := fmt.Sprintf("*Category:* %s\n\n%s", escapeMarkdown("#"+string(result.Category)), escapeMarkdown(result.Response))
	if result.IsDemo {
		text += "\n\n_" + escapeMarkdown("(demo answer)") + "_"
	}
	return text
}

func formatStats(stats models.Stats) string {
	return fmt.Sprintf("Questions answered: %d\nAI answers: %d\nDemo answers: %d\nToday: %d",
		stats.Total, stats.Remote, stats.Demo, stats.Today)
}

func formatRecent(records []models.QueryRecord) string {
	response := "*Recent questions:*\n\n"
	for _, r := range records {
		response += fmt.Sprintf("*%s*\n", escapeMarkdown("#"+string(r.Category)))
		response += fmt.Sprintf("_%s_\n\n", escapeMarkdown(r.QueryText))
	}
	return response
}

// escapeMarkdown escapes special characters for MarkdownV2
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
