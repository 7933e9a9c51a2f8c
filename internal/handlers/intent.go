package handlers

import (
	"strconv"
	"strings"
)

type textIntent int

const (
	intentNeedPhoto textIntent = iota
	intentOverlayText
	intentCustomPrompt
	intentAnswers
	intentRefine
)

// classifyText decides what a plain chat message means for the current
// state. A pending questionnaire field wins over everything else; after a
// generation the message is a refinement request.
func classifyText(st chatState) textIntent {
	switch st.Awaiting {
	case awaitText:
		return intentOverlayText
	case awaitPrompt:
		return intentCustomPrompt
	}

	switch {
	case st.SessionKey == "":
		return intentNeedPhoto
	case st.Generated:
		return intentRefine
	default:
		return intentAnswers
	}
}

// parsePick reads a 1-based thumbnail number.
func parsePick(args string, count int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(args), "#")))
	if err != nil || n < 1 || n > count {
		return 0, false
	}
	return n - 1, true
}

func isClearWord(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "-", "none", "clear", "off":
		return true
	}
	return false
}
