package prompt

import (
	"strings"

	"ai-thumbnail-pro/internal/thumb"
)

type directive struct {
	Label string
	Text  string
}

type styleTemplate struct {
	Heading    string
	Directives []directive
}

var styleTemplates = map[string]styleTemplate{
	thumb.StyleBold: {
		Heading: "BOLD & PUNCHY",
		Directives: []directive{
			{"Colors", "Use highly saturated, vibrant colors. Think bright reds, electric yellows, and deep blues. Create extreme contrast."},
			{"Lighting", "Make it dramatic. Use hard light, rim lighting, or strong highlights to make the subject pop from the background."},
			{"Effects", "Add a thick, hard outline or a strong drop shadow to the main subject to ensure maximum separation from the background. Use subtle zoom blurs or radial blurs on the background to create focus and energy."},
			{"Overall Mood", "High energy, exciting, unmissable. Like a movie poster for a summer blockbuster. This is about grabbing attention instantly."},
		},
	},
	thumb.StyleMinimalist: {
		Heading: "MINIMALIST & CLEAN",
		Directives: []directive{
			{"Composition", "Embrace negative space. The background should be extremely simple, possibly a solid color or a very subtle, clean gradient. Remove all clutter."},
			{"Colors", "Use a limited and sophisticated color palette (2-3 colors max). Often monochromatic with one single, soft accent color."},
			{"Lighting", "Soft, even, and clean lighting. Avoid harsh shadows."},
			{"Subject", "The subject should be the sole focus. Ensure they are perfectly and cleanly isolated from the background."},
			{"Overall Mood", "Professional, modern, calm, and high-end. Focus on clarity and simplicity."},
		},
	},
	thumb.StyleEnergetic: {
		Heading: "ENERGETIC & DYNAMIC",
		Directives: []directive{
			{"Composition", `Use diagonal lines and tilted angles ("dutch angle") to create a sense of motion and excitement.`},
			{"Colors", "Use bright neon colors, vibrant glows, and energetic gradients. Think cyberpunk or gaming aesthetics."},
			{"Effects", "Incorporate motion trails, particle effects (sparks, dust), lens flares, and speed lines. The background should feel alive and in motion."},
			{"Overall Mood", "Action-packed, exciting, fast-paced. Perfect for gaming, tech, or high-energy content."},
		},
	},
	thumb.StyleMysterious: {
		Heading: "MYSTERIOUS & INTRIGUING",
		Directives: []directive{
			{"Colors", "Use a heavily desaturated color palette with deep shadows and rich blacks. Introduce one single, symbolic pop of color (e.g., a splash of red or an electric blue)."},
			{"Lighting", "Use low-key lighting (chiaroscuro). Let shadows obscure parts of the scene or subject. Add a strong vignette effect to darken the edges."},
			{"Atmosphere", "Introduce elements like fog, smoke, atmospheric dust, or faint, cryptic symbols in the background. The background should be dark and perhaps slightly out of focus."},
			{"Overall Mood", `Suspenseful, dramatic, thought-provoking. Make the viewer ask "what is happening here?".`},
		},
	},
	thumb.StyleProfessional: {
		Heading: "PROFESSIONAL & CORPORATE",
		Directives: []directive{
			{"Composition", "Clean, balanced, and organized layout. Often uses grids or simple geometric shapes as overlays or framing elements."},
			{"Colors", "Use a defined, often more muted or brand-aligned color scheme. Avoid overly bright, clashing colors. Think blues, grays, and whites."},
			{"Lighting", "Bright, clean, even lighting. Mimic a professional photo studio or a well-lit modern office environment."},
			{"Background", "Should be non-distracting. A clean office space (blurry), a subtle abstract graphic pattern, or a simple, professional gradient."},
			{"Overall Mood", "Trustworthy, informative, polished, and credible."},
		},
	},
	thumb.StyleArtistic: {
		Heading: "ARTISTIC & CREATIVE",
		Directives: []directive{
			{"Composition", "Unconventional framing and unique layouts are encouraged. Break the rules of thirds. Play with scale."},
			{"Effects", "Blend photography with illustrative or painterly elements. Add textures like paper, canvas, or paint splatters. Consider using double exposure effects or creative collages with geometric shapes."},
			{"Colors", "Use a unique and deliberate color palette. It could be vintage-toned, pastel, or highly stylized with duotones or tritones."},
			{"Overall Mood", "Imaginative, unique, and expressive. This style should look like a piece of digital art, not just a thumbnail."},
		},
	},
}

func writeStyle(b *strings.Builder, style string) {
	tpl, ok := styleTemplates[style]
	if !ok {
		b.WriteString(`The desired visual style is "` + style + `". Enhance colors, contrast, and add elements that fit this style perfectly.` + "\n")
		return
	}

	b.WriteString("\nSTYLE GUIDELINES: " + tpl.Heading + "\n")
	for _, d := range tpl.Directives {
		b.WriteString("- **" + d.Label + ":** " + d.Text + "\n")
	}
}

// HasStyleTemplate reports whether style has a detailed template rather than
// the generic fallback line.
func HasStyleTemplate(style string) bool {
	_, ok := styleTemplates[style]
	return ok
}
