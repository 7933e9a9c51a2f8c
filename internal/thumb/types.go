// Package thumb holds the domain types shared by the normalizer, the prompt
// compiler and the generation pipeline.
package thumb

import (
	"fmt"
	"strings"
)

// Answers is the style questionnaire. Exactly one aspect ratio is active per
// request.
type Answers struct {
	VideoType       string      `json:"videoType"`
	Style           string      `json:"style"`
	Placement       string      `json:"placement"`
	CustomText      string      `json:"customText"`
	AspectRatio     AspectRatio `json:"aspectRatio"`
	ProMode         bool        `json:"proMode"`
	CustomPrompt    string      `json:"customPrompt"`
	EnhancedPrompts []string    `json:"enhancedPrompts,omitempty"`
}

// DefaultAnswers mirrors the questionnaire's initial form state.
func DefaultAnswers() Answers {
	return Answers{
		VideoType:   videoTypeOrder[0].Name,
		Style:       styleOrder[0].Name,
		Placement:   PlacementCenter,
		AspectRatio: Ratio16x9,
	}
}

// UsesEnhancedPrompts reports whether the submission should run one task per
// enhanced prompt instead of the style spread.
func (a Answers) UsesEnhancedPrompts() bool {
	return a.ProMode && len(a.EnhancedPrompts) > 0
}

// SourceImage is an uploaded photo. It is never modified after upload.
type SourceImage struct {
	FileName string
	MimeType string
	Size     int64
	Data     []byte
}

type NormalizedImage struct {
	FileName string
	MimeType string
	Width    int
	Height   int
	Data     []byte
}

// Thumbnail is one generated variant. Refinement swaps Data and MimeType in
// place; ID and AspectRatio stay fixed for its lifetime.
type Thumbnail struct {
	ID          string      `json:"id"`
	Label       string      `json:"label"`
	Style       string      `json:"style"`
	AspectRatio AspectRatio `json:"aspectRatio"`
	MimeType    string      `json:"mimeType"`
	Data        []byte      `json:"-"`
	Revision    int         `json:"revision"`
}

func Label(style string, ratio AspectRatio) string {
	return fmt.Sprintf("%s (%s)", style, ratio)
}

// FileName is the download name used for a thumbnail.
func (t *Thumbnail) FileName() string {
	ext := ".png"
	switch strings.ToLower(t.MimeType) {
	case "image/jpeg", "image/jpg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	}
	return "thumbnail-" + strings.Replace(string(t.AspectRatio), "/", "x", 1) + ext
}

const (
	SenderUser = "user"
	SenderAI   = "ai"
)

type ChatMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

const (
	WelcomeMessage = "Here are your generated thumbnails! Click one to select it, then use the chat to refine it."
	UpdatedMessage = "Here's the updated version. What else would you like to change?"
)

func ApologyMessage(err error) string {
	return "Sorry, I couldn't make that change. Error: " + err.Error()
}
