package thumb

import (
	"fmt"
	"strings"
)

// AspectRatio is the canonical ratio tag, written the way it appears in
// prompts and labels ("16/9").
type AspectRatio string

const (
	Ratio16x9 AspectRatio = "16/9"
	Ratio9x16 AspectRatio = "9/16"
	Ratio1x1  AspectRatio = "1/1"
	Ratio4x3  AspectRatio = "4/3"
	Ratio3x4  AspectRatio = "3/4"
)

type ratioSpec struct {
	Label  string
	Width  int
	Height int
}

var ratioSpecs = map[AspectRatio]ratioSpec{
	Ratio16x9: {Label: "YouTube (16:9)", Width: 1920, Height: 1080},
	Ratio9x16: {Label: "Shorts (9:16)", Width: 1080, Height: 1920},
	Ratio1x1:  {Label: "Instagram Square (1:1)", Width: 1080, Height: 1080},
	Ratio4x3:  {Label: "Traditional (4:3)", Width: 1440, Height: 1080},
	Ratio3x4:  {Label: "Portrait (3:4)", Width: 1080, Height: 1440},
}

var ratioOrder = []AspectRatio{Ratio16x9, Ratio9x16, Ratio1x1, Ratio4x3, Ratio3x4}

// ParseAspectRatio accepts "16:9", "16/9" and "16x9" spellings.
func ParseAspectRatio(raw string) (AspectRatio, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.NewReplacer(":", "/", "x", "/", " ", "").Replace(value)

	ar := AspectRatio(value)
	if _, ok := ratioSpecs[ar]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedRatio, raw)
	}
	return ar, nil
}

func (r AspectRatio) Valid() bool {
	_, ok := ratioSpecs[r]
	return ok
}

// Dimensions returns the canonical pixel size for the ratio.
func (r AspectRatio) Dimensions() (width, height int, err error) {
	spec, ok := ratioSpecs[r]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnsupportedRatio, string(r))
	}
	return spec.Width, spec.Height, nil
}

func (r AspectRatio) Label() string {
	if spec, ok := ratioSpecs[r]; ok {
		return spec.Label
	}
	return string(r)
}

// Colon renders the ratio as "16:9".
func (r AspectRatio) Colon() string {
	return strings.Replace(string(r), "/", ":", 1)
}

func (r AspectRatio) String() string {
	return string(r)
}

// AspectRatios lists the supported ratios in display order.
func AspectRatios() []AspectRatio {
	return append([]AspectRatio(nil), ratioOrder...)
}
