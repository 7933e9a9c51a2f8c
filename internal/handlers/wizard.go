package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-thumbnail-pro/internal/prompt"
	"ai-thumbnail-pro/internal/thumb"
)

const wizardCallbackPrefix = "tq"

func (h *Handler) openWizard(chatID, userID int64) error {
	h.states.Update(chatID, userID, func(st *chatState) {
		st.Menu = menuMain
		st.Awaiting = awaitNone
	})
	return h.renderWizard(chatID, userID, 0, false)
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil || q.From == nil {
		return nil
	}
	data := strings.TrimSpace(q.Data)
	if !strings.HasPrefix(data, wizardCallbackPrefix+":") {
		return nil
	}

	parts := strings.Split(data, ":")
	if len(parts) < 3 {
		return nil
	}

	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	if ownerID != q.From.ID {
		_ = h.tg.AnswerCallback(q.ID, "This menu belongs to someone else.", true)
		return nil
	}

	action := parts[2]
	var arg int
	if len(parts) > 3 {
		arg, _ = strconv.Atoi(parts[3])
	}
	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID

	updated := h.states.Update(chatID, ownerID, func(st *chatState) {
		st.MessageID = msgID
		applyWizardAction(st, action, arg)
	})
	if action == "reset" {
		updated = h.states.Reset(chatID, ownerID)
	}

	switch action {
	case "text":
		_ = h.tg.AnswerCallback(q.ID, "Send the overlay text.", false)
		_ = h.tg.SendText(chatID, "✏️ Send the text to put on the thumbnail (send - to remove it, /cancel to stop).")
	case "prompt":
		_ = h.tg.AnswerCallback(q.ID, "Send your idea.", false)
		_ = h.tg.SendText(chatID, "📝 Describe your idea for the thumbnail (/cancel to stop).")
	case "show":
		_ = h.tg.AnswerCallback(q.ID, "Sending prompt…", false)
		_ = h.tg.SendText(chatID, compiledPreview(updated))
	case "enhance":
		_ = h.tg.AnswerCallback(q.ID, "Enhancing…", false)
		if err := h.enhance(ctx, chatID, ownerID); err != nil {
			return err
		}
	case "generate":
		_ = h.tg.AnswerCallback(q.ID, "Generating…", false)
		if updated.SessionKey == "" {
			return h.tg.SendText(chatID, "📷 Send one or more photos first.")
		}
		return h.generate(ctx, chatID, ownerID)
	case "close":
		_ = h.tg.AnswerCallback(q.ID, "Closed", false)
		return nil
	default:
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
	}

	return h.renderWizard(chatID, ownerID, msgID, true)
}

func applyWizardAction(st *chatState, action string, arg int) {
	switch action {
	case "menu":
		menus := []string{menuMain, menuType, menuStyle, menuPlacement, menuRatio}
		if arg >= 0 && arg < len(menus) {
			st.Menu = menus[arg]
		}
	case "type":
		if v, ok := nth(thumb.VideoTypes(), arg); ok {
			st.Answers.VideoType = v
		}
		st.Menu = menuMain
	case "style":
		if v, ok := nth(thumb.Styles(), arg); ok {
			st.Answers.Style = v
		}
		st.Menu = menuMain
	case "place":
		if v, ok := nth(thumb.Placements(), arg); ok {
			st.Answers.Placement = v
		}
		st.Menu = menuMain
	case "ratio":
		if v, ok := nth(thumb.AspectRatios(), arg); ok {
			st.Answers.AspectRatio = v
		}
		st.Menu = menuMain
	case "pro":
		st.Answers.ProMode = !st.Answers.ProMode
		if !st.Answers.ProMode {
			st.Answers.EnhancedPrompts = nil
		}
		st.Menu = menuMain
	case "text":
		st.Awaiting = awaitText
	case "prompt":
		st.Awaiting = awaitPrompt
	case "close":
		st.Awaiting = awaitNone
		st.Menu = menuMain
	}
}

func nth[T any](values []T, idx int) (T, bool) {
	var zero T
	if idx < 0 || idx >= len(values) {
		return zero, false
	}
	return values[idx], true
}

func (h *Handler) renderWizard(chatID, userID int64, messageID int, edit bool) error {
	st := h.states.Get(chatID, userID)
	if messageID == 0 {
		messageID = st.MessageID
	}

	text := wizardText(st)
	kb := wizardKeyboard(userID, st)

	if edit && messageID != 0 {
		if err := h.tg.EditTextWithKeyboard(chatID, messageID, text, kb); err == nil {
			return nil
		}
	}

	msgID, err := h.tg.SendTextWithKeyboard(chatID, text, kb)
	if err != nil {
		return err
	}
	h.states.Update(chatID, userID, func(st *chatState) { st.MessageID = msgID })
	return nil
}

func wizardText(st chatState) string {
	a := st.Answers

	var b strings.Builder
	b.WriteString("🖼 Thumbnail questionnaire\n\n")
	if len(st.FileNames) == 0 {
		b.WriteString("Photos: (none)\n")
	} else {
		fmt.Fprintf(&b, "Photos: %d (%s)\n", len(st.FileNames), strings.Join(st.FileNames, ", "))
	}
	fmt.Fprintf(&b, "Video type: %s\n", a.VideoType)
	fmt.Fprintf(&b, "Style: %s\n", a.Style)
	fmt.Fprintf(&b, "Placement: %s\n", a.Placement)
	fmt.Fprintf(&b, "Aspect ratio: %s\n", a.AspectRatio.Label())
	if strings.TrimSpace(a.CustomText) == "" {
		b.WriteString("Text: (none)\n")
	} else {
		fmt.Fprintf(&b, "Text: %q\n", a.CustomText)
	}
	fmt.Fprintf(&b, "Pro mode: %s\n", onOff(a.ProMode))
	if a.ProMode {
		if strings.TrimSpace(a.CustomPrompt) != "" {
			b.WriteString("Idea: " + truncateLine(a.CustomPrompt, 120) + "\n")
		}
		if len(a.EnhancedPrompts) > 0 {
			fmt.Fprintf(&b, "AI ideas: %d ready\n", len(a.EnhancedPrompts))
		}
	}

	switch {
	case st.Awaiting == awaitText:
		b.WriteString("\n✏️ Now send the overlay text.\n")
	case st.Awaiting == awaitPrompt:
		b.WriteString("\n📝 Now send your idea.\n")
	case st.SessionKey == "":
		b.WriteString("\n📷 Send one or more photos to start.\n")
	default:
		b.WriteString("\n🎨 Press Generate when ready.\n")
	}

	return strings.TrimSpace(b.String())
}

func wizardKeyboard(ownerID int64, st chatState) tgbotapi.InlineKeyboardMarkup {
	a := st.Answers
	switch st.Menu {
	case menuType:
		return optionKeyboard(ownerID, "type", thumb.VideoTypes(), a.VideoType)
	case menuStyle:
		return optionKeyboard(ownerID, "style", thumb.Styles(), a.Style)
	case menuPlacement:
		return optionKeyboard(ownerID, "place", thumb.Placements(), a.Placement)
	case menuRatio:
		ratios := thumb.AspectRatios()
		labels := make([]string, len(ratios))
		for i, r := range ratios {
			labels[i] = r.Label()
		}
		return optionKeyboard(ownerID, "ratio", labels, a.AspectRatio.Label())
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("Video type", cb(ownerID, "menu", 1)),
			tgbotapi.NewInlineKeyboardButtonData("Style", cb(ownerID, "menu", 2)),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("Placement", cb(ownerID, "menu", 3)),
			tgbotapi.NewInlineKeyboardButtonData("Ratio", cb(ownerID, "menu", 4)),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("✏️ Text", cb(ownerID, "text")),
			tgbotapi.NewInlineKeyboardButtonData("Pro: "+onOff(a.ProMode), cb(ownerID, "pro")),
		},
	}
	if a.ProMode {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("📝 Idea", cb(ownerID, "prompt")),
			tgbotapi.NewInlineKeyboardButtonData("✨ Enhance", cb(ownerID, "enhance")),
		})
	}
	rows = append(rows,
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("📄 Prompt", cb(ownerID, "show")),
			tgbotapi.NewInlineKeyboardButtonData("🎨 Generate", cb(ownerID, "generate")),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("Reset", cb(ownerID, "reset")),
			tgbotapi.NewInlineKeyboardButtonData("Close", cb(ownerID, "close")),
		},
	)

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func optionKeyboard(ownerID int64, action string, names []string, selected string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for i, name := range names {
		label := name
		if name == selected {
			label = "✅ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, action, i)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅ Back", cb(ownerID, "menu", 0)),
	})

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// cb builds callback data. Telegram caps it at 64 bytes, so options travel
// as catalog indexes.
func cb(ownerID int64, action string, args ...int) string {
	parts := []string{wizardCallbackPrefix, strconv.FormatInt(ownerID, 10), action}
	for _, a := range args {
		parts = append(parts, strconv.Itoa(a))
	}
	return strings.Join(parts, ":")
}

func compiledPreview(st chatState) string {
	names := st.FileNames
	if len(names) == 0 {
		names = []string{"photo.jpg"}
	}
	a := st.Answers
	if a.UsesEnhancedPrompts() {
		a.CustomPrompt = a.EnhancedPrompts[0]
	}
	return prompt.Compile(a, names)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func truncateLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
