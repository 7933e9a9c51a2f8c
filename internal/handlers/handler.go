// Package handlers drives the Telegram bot: photo uploads, the questionnaire
// keyboard, thumbnail delivery and chat refinement.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ai-thumbnail-pro/internal/generate"
	"ai-thumbnail-pro/internal/mediagroup"
	"ai-thumbnail-pro/internal/prompt"
	"ai-thumbnail-pro/internal/session"
	"ai-thumbnail-pro/internal/telegram"
	"ai-thumbnail-pro/internal/thumb"
)

// Messenger is the part of the Telegram client the bot talks through.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendTyping(chatID int64)
	SendPhoto(chatID int64, data []byte, mimeType, caption string) error
	SendTextWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) (int, error)
	EditTextWithKeyboard(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) error
	AnswerCallback(callbackID, text string, alert bool) error
	DownloadFile(ctx context.Context, fileID string) (telegram.File, error)
}

// Studio is the application service shared with the web API.
type Studio interface {
	Upload(ctx context.Context, sources []thumb.SourceImage) (string, []thumb.ChatMessage, error)
	Enhance(ctx context.Context, key string, a thumb.Answers) ([]string, error)
	Generate(ctx context.Context, key string, a thumb.Answers) (session.View, []thumb.ChatMessage, error)
	Select(key string, index int) error
	View(key string) (session.View, error)
	Refine(ctx context.Context, key, message string) (thumb.Thumbnail, []thumb.ChatMessage, error)
	History(ctx context.Context, key string) ([]thumb.ChatMessage, error)
	Clear(ctx context.Context, key string) error
}

type Options struct {
	Telegram Messenger
	Studio   Studio
	Logger   *zerolog.Logger
}

type Handler struct {
	tg         Messenger
	studio     Studio
	states     *stateStore
	logger     zerolog.Logger
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "bot").Logger()
	}

	return &Handler{
		tg:     opts.Telegram,
		studio: opts.Studio,
		states: newStateStore(),
		logger: logger,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

// PruneStates forgets questionnaires idle for longer than maxIdle.
func (h *Handler) PruneStates(maxIdle time.Duration) int {
	return h.states.Prune(maxIdle)
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, userID, msg)
	}

	if len(msg.Photo) > 0 {
		return h.handlePhoto(ctx, chatID, userID, msg)
	}

	if msg.Text != "" {
		return h.handleText(ctx, chatID, userID, msg.Text)
	}

	return nil
}

func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	if err := h.processPhotos(ctx, group.ChatID, group.UserID, group.Caption, group.Photos); err != nil {
		h.logger.Error().Err(err).Int64("chat", group.ChatID).Msg("media group processing failed")
	}
}

const helpText = "🖼 AI Thumbnail Pro\n\n" +
	"Send one or more photos. Add a caption to generate right away, for example:\n" +
	"  16:9 right gaming style=bold text=\"TOP 10\"\n" +
	"Without a caption the questionnaire opens.\n\n" +
	"After generation, send plain text to refine the selected thumbnail.\n\n" +
	"Commands:\n" +
	"/start - Welcome\n" +
	"/help - This help\n" +
	"/style - Open the questionnaire\n" +
	"/prompt - Show the compiled prompt\n" +
	"/pick N - Select thumbnail N\n" +
	"/history - Show the refinement chat\n" +
	"/cancel - Stop waiting for text\n" +
	"/clear - Forget the photos and thumbnails"

func (h *Handler) handleCommand(ctx context.Context, chatID, userID int64, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return h.tg.SendText(chatID, helpText)
	case "style", "styles":
		if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
			h.states.Update(chatID, userID, func(st *chatState) {
				st.Answers = prompt.ParseArgs(args, st.Answers)
			})
		}
		return h.openWizard(chatID, userID)
	case "prompt":
		return h.tg.SendText(chatID, compiledPreview(h.states.Get(chatID, userID)))
	case "cancel":
		h.states.Update(chatID, userID, func(st *chatState) { st.Awaiting = awaitNone })
		return h.tg.SendText(chatID, "OK, cancelled.")
	case "pick":
		return h.pick(chatID, userID, msg.CommandArguments())
	case "history":
		return h.history(ctx, chatID, userID)
	case "clear":
		st := h.states.Get(chatID, userID)
		if st.SessionKey != "" {
			if err := h.studio.Clear(ctx, st.SessionKey); err != nil {
				h.logger.Error().Err(err).Str("session", st.SessionKey).Msg("clear session failed")
			}
		}
		h.states.Reset(chatID, userID)
		return h.tg.SendText(chatID, "✅ Photos, thumbnails and chat cleared.")
	default:
		return h.tg.SendText(chatID, "❌ Unknown command. Use /help.")
	}
}

func (h *Handler) handleText(ctx context.Context, chatID, userID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	st := h.states.Get(chatID, userID)
	switch classifyText(st) {
	case intentOverlayText:
		h.states.Update(chatID, userID, func(st *chatState) {
			st.Awaiting = awaitNone
			if isClearWord(text) {
				st.Answers.CustomText = ""
			} else {
				st.Answers.CustomText = text
			}
		})
		return h.renderWizard(chatID, userID, 0, false)
	case intentCustomPrompt:
		h.states.Update(chatID, userID, func(st *chatState) {
			st.Awaiting = awaitNone
			st.Answers.ProMode = true
			st.Answers.CustomPrompt = text
			st.Answers.EnhancedPrompts = nil
		})
		return h.renderWizard(chatID, userID, 0, false)
	case intentAnswers:
		h.states.Update(chatID, userID, func(st *chatState) {
			st.Answers = prompt.ParseArgs(text, st.Answers)
		})
		return h.renderWizard(chatID, userID, 0, false)
	case intentRefine:
		return h.refine(ctx, chatID, st.SessionKey, text)
	default:
		return h.tg.SendText(chatID, "📷 Send one or more photos first. /help shows how.")
	}
}

func (h *Handler) handlePhoto(ctx context.Context, chatID, userID int64, msg *tgbotapi.Message) error {
	largest := msg.Photo[len(msg.Photo)-1]
	photo := mediagroup.Photo{
		FileID:       largest.FileID,
		FileUniqueID: largest.FileUniqueID,
		Size:         largest.FileSize,
	}

	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			UserID:       userID,
			Username:     msg.From.UserName,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			Photo:        photo,
		})
		return nil
	}

	return h.processPhotos(ctx, chatID, userID, msg.Caption, []mediagroup.Photo{photo})
}

// processPhotos downloads an upload set, registers it and either generates
// straight away (caption present) or opens the questionnaire.
func (h *Handler) processPhotos(ctx context.Context, chatID, userID int64, caption string, photos []mediagroup.Photo) error {
	h.tg.SendTyping(chatID)

	sources := make([]thumb.SourceImage, len(photos))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, p := range photos {
		eg.Go(func() error {
			file, err := h.tg.DownloadFile(egCtx, p.FileID)
			if err != nil {
				return err
			}
			sources[i] = thumb.SourceImage{
				FileName: sourceName(p, file, i),
				MimeType: file.MimeType,
				Size:     int64(len(file.Data)),
				Data:     file.Data,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		h.logger.Error().Err(err).Int64("chat", chatID).Msg("photo download failed")
		return h.tg.SendText(chatID, "❌ Could not download the photo. Please send it again.")
	}

	key, history, err := h.studio.Upload(ctx, sources)
	if err != nil {
		h.logger.Error().Err(err).Int64("chat", chatID).Msg("upload failed")
		return h.tg.SendText(chatID, "❌ Could not register the photos.")
	}

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.FileName
	}

	caption = strings.TrimSpace(caption)
	h.states.Update(chatID, userID, func(st *chatState) {
		if st.SessionKey != key {
			st.Generated = false
		}
		st.SessionKey = key
		st.FileNames = names
		st.Awaiting = awaitNone
		if caption != "" {
			st.Answers = prompt.ParseArgs(caption, st.Answers)
		}
	})

	if view, err := h.studio.View(key); err == nil && len(view.Thumbnails) > 0 {
		h.states.Update(chatID, userID, func(st *chatState) { st.Generated = true })
		_ = h.tg.SendText(chatID, fmt.Sprintf("♻️ Welcome back. These photos already have %d thumbnails and %d chat messages. Send text to keep refining or press Generate for new ones.", len(view.Thumbnails), len(history)))
	}

	if caption == "" {
		return h.openWizard(chatID, userID)
	}
	return h.generate(ctx, chatID, userID)
}

// sourceName keeps file names stable across re-uploads of the same photo so
// the session key, and with it the stored chat, survives.
func sourceName(p mediagroup.Photo, file telegram.File, idx int) string {
	ext := ".jpg"
	if i := strings.LastIndexByte(file.Name, '.'); i >= 0 {
		ext = file.Name[i:]
	}
	if p.FileUniqueID != "" {
		return p.FileUniqueID + ext
	}
	if file.Name != "" {
		return file.Name
	}
	return fmt.Sprintf("photo-%d%s", idx+1, ext)
}

func (h *Handler) enhance(ctx context.Context, chatID, userID int64) error {
	st := h.states.Get(chatID, userID)
	if st.SessionKey == "" {
		return h.tg.SendText(chatID, "📷 Send one or more photos first.")
	}
	if strings.TrimSpace(st.Answers.CustomPrompt) == "" {
		return h.tg.SendText(chatID, "📝 Write your idea first (Idea button).")
	}

	h.tg.SendTyping(chatID)
	ideas, err := h.studio.Enhance(ctx, st.SessionKey, st.Answers)
	if err != nil {
		h.logger.Error().Err(err).Str("session", st.SessionKey).Msg("enhance failed")
		return h.tg.SendText(chatID, "❌ Could not enhance the idea. Try again or generate as is.")
	}

	h.states.Update(chatID, userID, func(st *chatState) {
		st.Answers.ProMode = true
		st.Answers.EnhancedPrompts = ideas
	})

	var b strings.Builder
	b.WriteString("✨ AI ideas (Generate uses all three):\n")
	for i, idea := range ideas {
		fmt.Fprintf(&b, "\n%d) %s\n", i+1, idea)
	}
	return h.tg.SendText(chatID, b.String())
}

func (h *Handler) generate(ctx context.Context, chatID, userID int64) error {
	st := h.states.Get(chatID, userID)

	h.tg.SendTyping(chatID)
	_ = h.tg.SendText(chatID, fmt.Sprintf("🎨 Generating %d thumbnails (%s), please wait...", variantCount(st.Answers), st.Answers.AspectRatio.Colon()))

	view, history, err := h.studio.Generate(ctx, st.SessionKey, st.Answers)
	if err != nil {
		if errors.Is(err, thumb.ErrBusy) {
			return h.tg.SendText(chatID, "⏳ Still working on the previous change. Please wait.")
		}
		h.logger.Error().Err(err).Str("session", st.SessionKey).Msg("generation failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return h.tg.SendText(chatID, "⌛ Generation took too long. Please try again.")
		}
		return h.tg.SendText(chatID, "❌ Failed to generate thumbnails: "+err.Error())
	}

	h.states.Update(chatID, userID, func(st *chatState) { st.Generated = true })

	for i, t := range view.Thumbnails {
		caption := fmt.Sprintf("%d) %s", i+1, t.Label)
		if i == view.Active {
			caption += " ✅"
		}
		if err := h.tg.SendPhoto(chatID, t.Data, t.MimeType, caption); err != nil {
			return err
		}
	}

	welcome := thumb.WelcomeMessage
	if len(history) > 0 {
		welcome = history[len(history)-1].Text
	}
	return h.tg.SendText(chatID, welcome+"\n\nUse /pick N to select, then send text to refine.")
}

func (h *Handler) pick(chatID, userID int64, args string) error {
	st := h.states.Get(chatID, userID)
	view, err := h.studio.View(st.SessionKey)
	if err != nil || len(view.Thumbnails) == 0 {
		return h.tg.SendText(chatID, "No thumbnails yet. Send photos and generate first.")
	}

	idx, ok := parsePick(args, len(view.Thumbnails))
	if !ok {
		return h.tg.SendText(chatID, fmt.Sprintf("Usage: /pick N (1-%d)", len(view.Thumbnails)))
	}
	if err := h.studio.Select(st.SessionKey, idx); err != nil {
		return h.tg.SendText(chatID, "❌ "+err.Error())
	}
	return h.tg.SendText(chatID, fmt.Sprintf("✅ Selected %d) %s. Send text to refine it.", idx+1, view.Thumbnails[idx].Label))
}

// variantCount is how many thumbnails a submission will produce.
func variantCount(a thumb.Answers) int {
	if a.UsesEnhancedPrompts() {
		return min(len(a.EnhancedPrompts), generate.VariantCount)
	}
	return generate.VariantCount
}

func (h *Handler) refine(ctx context.Context, chatID int64, key, text string) error {
	h.tg.SendTyping(chatID)

	updated, history, err := h.studio.Refine(ctx, key, text)
	switch {
	case errors.Is(err, thumb.ErrBusy):
		return h.tg.SendText(chatID, "⏳ Still working on the previous change. Please wait.")
	case errors.Is(err, session.ErrUnknownSession), errors.Is(err, session.ErrNoThumbnails):
		return h.tg.SendText(chatID, "No thumbnails to refine. Send photos and generate first.")
	case err != nil:
		h.logger.Warn().Err(err).Str("session", key).Msg("refine failed")
		if len(history) > 0 {
			return h.tg.SendText(chatID, history[len(history)-1].Text)
		}
		return h.tg.SendText(chatID, thumb.ApologyMessage(err))
	}

	return h.tg.SendPhoto(chatID, updated.Data, updated.MimeType, thumb.UpdatedMessage)
}

func (h *Handler) history(ctx context.Context, chatID, userID int64) error {
	st := h.states.Get(chatID, userID)
	if st.SessionKey == "" {
		return h.tg.SendText(chatID, "No photos yet.")
	}

	history, err := h.studio.History(ctx, st.SessionKey)
	if err != nil {
		return h.tg.SendText(chatID, "❌ Could not load the chat history.")
	}

	var b strings.Builder
	for _, m := range history {
		who := "🤖"
		if m.Sender == thumb.SenderUser {
			who = "🧑"
		}
		fmt.Fprintf(&b, "%s %s\n", who, m.Text)
	}
	return h.tg.SendText(chatID, strings.TrimSpace(b.String()))
}
