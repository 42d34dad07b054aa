package bot

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"courtfetch/internal/domain"
	"courtfetch/internal/scraper"
)

// Searcher runs case searches on behalf of a caller.
type Searcher interface {
	SearchCaseFor(ctx context.Context, caller scraper.Caller, q domain.SearchQuery, captchaText string) domain.Outcome
}

// Handler holds dependencies for the Telegram bot handlers.
type Handler struct {
	bot    *tgbot.Bot
	search Searcher
	log    logrus.FieldLogger
}

// NewHandler creates a new bot handler instance.
func NewHandler(token string, search Searcher, logger logrus.FieldLogger) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")

	h := &Handler{search: search, log: log}

	b, err := tgbot.New(token, tgbot.WithDefaultHandler(h.defaultHandler))
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	h.bot = b

	h.registerHandlers()

	log.Info("Telegram bot handler initialized")
	return h, nil
}

// registerHandlers sets up the command and message handlers.
func (h *Handler) registerHandlers() {
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/help", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/types", tgbot.MatchTypeExact, h.typesHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/case", tgbot.MatchTypePrefix, h.caseHandler)
	h.log.Info("Registered /start, /help, /types and /case command handlers")
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

func (h *Handler) startHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.send(ctx, b, update.Message.Chat.ID, reply{Text: welcomeText})
}

func (h *Handler) typesHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.send(ctx, b, update.Message.Chat.ID, reply{Text: caseTypesText()})
}

func (h *Handler) caseHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	log := h.log.WithFields(logrus.Fields{
		"user_id": userID,
		"command": "/case",
	})
	log.Info("Received /case command")

	caller := scraper.Caller{
		Channel:   domain.ChannelBot,
		UserAgent: fmt.Sprintf("telegram:%d", userID),
	}
	h.send(ctx, b, msg.Chat.ID, h.answerCase(ctx, caller, msg.Text))
}

func (h *Handler) defaultHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.log.WithFields(logrus.Fields{
		"chat_id": update.Message.Chat.ID,
		"text":    update.Message.Text,
	}).Debug("Received unhandled message (default handler)")

	h.send(ctx, b, update.Message.Chat.ID, reply{Text: "Unknown command.\n\n" + usageText})
}

// answerCase runs one /case command and builds the reply. A CAPTCHA challenge is
// answered with the image; the user resends the command with the solution appended.
func (h *Handler) answerCase(ctx context.Context, caller scraper.Caller, text string) reply {
	cmd, err := parseCaseCommand(text, timeNow())
	if err != nil {
		return reply{Text: err.Error() + "\n\n" + usageText}
	}

	out := h.search.SearchCaseFor(ctx, caller, cmd.Query, cmd.Captcha)
	switch out.Kind {
	case domain.OutcomeCaptchaRequired:
		img, err := decodeDataURI(out.Captcha.Image)
		if err != nil {
			h.log.WithError(err).Warn("Could not decode CAPTCHA image")
			return reply{Text: "The court website asked for a CAPTCHA that could not be displayed. Please try again."}
		}
		q := cmd.Query
		return reply{
			Photo: img,
			Text: fmt.Sprintf("CAPTCHA required. Reply with:\n/case %s %s %d <captcha text>",
				q.CaseType, q.CaseNumber, q.FilingYear),
		}
	case domain.OutcomeSuccess:
		return reply{Text: formatOutcome(out)}
	default:
		return reply{Text: out.Message}
	}
}

// reply is what the bot sends back: a photo with caption when Photo is set, a text message otherwise.
type reply struct {
	Text  string
	Photo []byte
}

func (h *Handler) send(ctx context.Context, b *tgbot.Bot, chatID int64, r reply) {
	var err error
	if len(r.Photo) > 0 {
		_, err = b.SendPhoto(ctx, &tgbot.SendPhotoParams{
			ChatID:  chatID,
			Photo:   &models.InputFileUpload{Filename: "captcha.png", Data: bytes.NewReader(r.Photo)},
			Caption: r.Text,
		})
	} else {
		_, err = b.SendMessage(ctx, &tgbot.SendMessageParams{
			ChatID: chatID,
			Text:   r.Text,
		})
	}
	if err != nil {
		h.log.WithError(err).WithField("chat_id", chatID).Error("Failed to send reply")
	}
}

// decodeDataURI returns the bytes of a base64 data URI.
func decodeDataURI(uri string) ([]byte, error) {
	_, payload, ok := strings.Cut(uri, ";base64,")
	if !ok || !strings.HasPrefix(uri, "data:") {
		return nil, fmt.Errorf("not a base64 data URI")
	}
	return base64.StdEncoding.DecodeString(payload)
}
