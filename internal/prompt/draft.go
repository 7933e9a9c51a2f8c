package prompt

import (
	"strings"

	"ai-thumbnail-pro/internal/thumb"
)

// DraftFields are the questionnaire fields the pro-mode draft is built from.
type DraftFields struct {
	VideoType  string `json:"videoType"`
	Style      string `json:"style"`
	Placement  string `json:"placement"`
	CustomText string `json:"customText"`
}

func FieldsOf(a thumb.Answers) DraftFields {
	return DraftFields{
		VideoType:  a.VideoType,
		Style:      a.Style,
		Placement:  a.Placement,
		CustomText: a.CustomText,
	}
}

// DerivePrompt builds the auto-populated pro-mode prompt from the form fields.
func DerivePrompt(f DraftFields) string {
	var parts []string
	if f.VideoType != "" {
		parts = append(parts, `A thumbnail for a "`+f.VideoType+`" video.`)
	}
	if f.Style != "" {
		parts = append(parts, `The style should be "`+f.Style+`".`)
	}
	if f.Placement != "" {
		parts = append(parts, "The main subject is on the "+f.Placement+" side.")
	}
	if f.CustomText != "" {
		parts = append(parts, `It includes the text: "`+f.CustomText+`".`)
	}
	return strings.Join(parts, " ")
}

// Draft is the pro-mode custom prompt. It follows the form fields until the
// user edits it by hand.
type Draft struct {
	Text              string `json:"text"`
	UserHasOverridden bool   `json:"userHasOverridden"`
}

// Refresh recomputes the draft from f unless the user has overridden it.
func (d Draft) Refresh(f DraftFields) Draft {
	if d.UserHasOverridden {
		return d
	}
	return Draft{Text: DerivePrompt(f)}
}

// Edit records a manual edit; later field changes no longer touch the text.
func (d Draft) Edit(text string) Draft {
	return Draft{Text: text, UserHasOverridden: true}
}

// Stale reports whether the fields changed since enhanced prompts were
// produced from enhancedFrom.
func Stale(enhancedFrom, current DraftFields) bool {
	return enhancedFrom != current
}
