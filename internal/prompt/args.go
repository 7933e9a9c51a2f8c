package prompt

import (
	"strings"

	"ai-thumbnail-pro/internal/thumb"
)

// ParseArgs reads a free-form caption such as
//
//	16:9 right style=minimalist type=gaming text="TOP 10 TIPS" make it glow
//
// on top of defaults. Unrecognised words become the pro-mode custom prompt.
func ParseArgs(raw string, defaults thumb.Answers) thumb.Answers {
	a := defaults
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return a
	}

	var custom []string
	for _, tok := range splitArgs(raw) {
		key, value, hasValue := strings.Cut(tok, "=")
		lower := strings.ToLower(key)

		if hasValue {
			switch lower {
			case "style", "s":
				if style, ok := thumb.LookupStyle(value); ok {
					a.Style = style
				} else if strings.TrimSpace(value) != "" {
					a.Style = strings.TrimSpace(value)
				}
				continue
			case "type", "video":
				if vt, ok := thumb.LookupVideoType(value); ok {
					a.VideoType = vt
				} else if strings.TrimSpace(value) != "" {
					a.VideoType = strings.TrimSpace(value)
				}
				continue
			case "place", "placement":
				if p, ok := thumb.LookupPlacement(value); ok {
					a.Placement = p
				}
				continue
			case "ar", "aspect", "ratio":
				if ar, err := thumb.ParseAspectRatio(value); err == nil {
					a.AspectRatio = ar
				}
				continue
			case "text":
				a.CustomText = value
				continue
			case "pro", "prompt":
				a.ProMode = true
				a.CustomPrompt = value
				continue
			}
		}

		if lower == "pro" {
			a.ProMode = true
			continue
		}
		if p, ok := thumb.LookupPlacement(lower); ok {
			a.Placement = p
			continue
		}
		if ar, err := thumb.ParseAspectRatio(lower); err == nil {
			a.AspectRatio = ar
			continue
		}
		if style, ok := thumb.LookupStyle(lower); ok {
			a.Style = style
			continue
		}
		if vt, ok := thumb.LookupVideoType(lower); ok {
			a.VideoType = vt
			continue
		}

		custom = append(custom, tok)
	}

	if len(custom) > 0 {
		a.ProMode = true
		a.CustomPrompt = strings.TrimSpace(strings.Join(custom, " "))
	}
	return a
}

// splitArgs splits on whitespace, keeping double-quoted runs together and
// dropping the quotes.
func splitArgs(raw string) []string {
	var (
		out     []string
		cur     strings.Builder
		quoted  bool
		pending bool
	)
	for _, r := range raw {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case !quoted && (r == ' ' || r == '\t' || r == '\n'):
			if pending {
				out = append(out, cur.String())
				cur.Reset()
				pending = false
			}
		default:
			cur.WriteRune(r)
			pending = true
		}
	}
	if pending {
		out = append(out, cur.String())
	}
	return out
}
