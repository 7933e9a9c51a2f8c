package thumb

import "strings"

type NamedOption struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

const (
	StyleBold         = "Bold & Punchy"
	StyleMinimalist   = "Minimalist & Clean"
	StyleEnergetic    = "Energetic & Dynamic"
	StyleMysterious   = "Mysterious & Intriguing"
	StyleProfessional = "Professional & Corporate"
	StyleArtistic     = "Artistic & Creative"
)

const (
	PlacementLeft   = "Left"
	PlacementCenter = "Center"
	PlacementRight  = "Right"
)

var styleOrder = []NamedOption{
	{Key: "bold", Name: StyleBold},
	{Key: "minimalist", Name: StyleMinimalist},
	{Key: "energetic", Name: StyleEnergetic},
	{Key: "mysterious", Name: StyleMysterious},
	{Key: "professional", Name: StyleProfessional},
	{Key: "artistic", Name: StyleArtistic},
}

var videoTypeOrder = []NamedOption{
	{Key: "tutorial", Name: "Tutorial"},
	{Key: "vlog", Name: "Vlog"},
	{Key: "gaming", Name: "Gaming"},
	{Key: "review", Name: "Review"},
	{Key: "unboxing", Name: "Unboxing"},
	{Key: "comedy", Name: "Comedy Sketch"},
	{Key: "educational", Name: "Educational"},
	{Key: "documentary", Name: "Documentary"},
}

var placementOrder = []NamedOption{
	{Key: "left", Name: PlacementLeft},
	{Key: "center", Name: PlacementCenter},
	{Key: "right", Name: PlacementRight},
}

// Styles returns the style catalog names in display order.
func Styles() []string {
	return names(styleOrder)
}

func StyleOptions() []NamedOption {
	return append([]NamedOption(nil), styleOrder...)
}

func VideoTypes() []string {
	return names(videoTypeOrder)
}

func VideoTypeOptions() []NamedOption {
	return append([]NamedOption(nil), videoTypeOrder...)
}

func Placements() []string {
	return names(placementOrder)
}

func PlacementOptions() []NamedOption {
	return append([]NamedOption(nil), placementOrder...)
}

// LookupStyle resolves a style by key or by (case-insensitive) name.
func LookupStyle(value string) (string, bool) {
	return lookup(styleOrder, value)
}

func LookupVideoType(value string) (string, bool) {
	return lookup(videoTypeOrder, value)
}

func LookupPlacement(value string) (string, bool) {
	return lookup(placementOrder, value)
}

func lookup(options []NamedOption, value string) (string, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", false
	}
	for _, opt := range options {
		if opt.Key == value || strings.ToLower(opt.Name) == value {
			return opt.Name, true
		}
	}
	return "", false
}

func names(options []NamedOption) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		out = append(out, opt.Name)
	}
	return out
}
