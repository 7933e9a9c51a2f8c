// Package prompt turns questionnaire answers into the edit instructions sent
// to the image model. Everything here is pure string assembly: the same input
// always yields the same bytes.
package prompt

import (
	"fmt"
	"strings"

	"ai-thumbnail-pro/internal/thumb"
)

const roleFraming = "Act as a professional YouTube thumbnail designer. The primary goal is to create a viral, click-worthy YouTube thumbnail that grabs attention and entices viewers to click. Every decision should serve this goal.\n"

const closing = "Return only the final, edited image. Do not return text."

const noTextOverlay = "Do NOT add any text overlays.\n"

// Compile renders the full edit instruction for one generation task.
func Compile(a thumb.Answers, fileNames []string) string {
	var b strings.Builder
	b.Grow(4096)

	b.WriteString(roleFraming)
	writeSources(&b, fileNames)
	b.WriteString(`The video is a "` + a.VideoType + `".` + "\n")
	writeStyle(&b, a.Style)
	writeConstraints(&b, a)
	writeTextOverlay(&b, a)
	writeProMode(&b, a)
	b.WriteString(closing)

	return b.String()
}

// CompileFollowUp renders the instruction for a chat refinement turn. The
// previously generated image is sent as the only source.
func CompileFollowUp(refinement string, ratio thumb.AspectRatio) string {
	return fmt.Sprintf(
		`Taking the provided image as the new starting point, apply this follow-up change: "%s". `+
			`The goal is to refine this image into an even more viral, click-worthy YouTube thumbnail. `+
			`Maintain the original aspect ratio of %s. `+
			`Preserve other elements as much as possible unless specified otherwise.`,
		refinement, ratio)
}

func writeSources(b *strings.Builder, fileNames []string) {
	if len(fileNames) > 1 {
		fmt.Fprintf(b,
			"\nCRITICAL TASK: You have been given %d images (%s). Your primary goal is to creatively merge them into a single, cohesive image. "+
				"The first image should be treated as the main subject, and elements from the other images should be incorporated as background, accents, or complementary features. "+
				"Blend them seamlessly.\n",
			len(fileNames), strings.Join(fileNames, ", "))
		return
	}

	name := "image"
	if len(fileNames) == 1 {
		name = fileNames[0]
	}
	b.WriteString("\nEdit the provided image named \"" + name + "\" to create a viral, eye-catching YouTube thumbnail.")
}

func writeConstraints(b *strings.Builder, a thumb.Answers) {
	b.WriteString("\nCRITICAL REQUIREMENT: The final output image's aspect ratio MUST BE EXACTLY " + string(a.AspectRatio) +
		". You must crop, expand the background, or use generative fill to achieve this precise aspect ratio. Do not stretch or distort the main subject.\n")

	b.WriteString("\nNON-NEGOTIABLE PLACEMENT: The main subject (the person or key focus) from the first photo MUST be positioned on the \"" + a.Placement +
		"\" side of the thumbnail. This is the most important rule. " +
		"For example, if placement is \"Left\", the subject must occupy the left third of the frame, leaving the other two-thirds more open.\n")

	b.WriteString("\nMake the subject pop from the background using techniques appropriate for the chosen style.\n")
}

func writeTextOverlay(b *strings.Builder, a thumb.Answers) {
	if strings.TrimSpace(a.CustomText) == "" {
		b.WriteString(noTextOverlay)
		return
	}

	b.WriteString("TEXT OVERLAY: This is the most critical part of the thumbnail's success. Add the following text: \"" + a.CustomText + "\".\n")
	b.WriteString("Apply professional graphic design principles to the text. The text is the hero element. It MUST be:\n")
	b.WriteString("1.  **Extremely Readable:** Use a bold, sans-serif font that is instantly readable, even when the thumbnail is viewed at a very small size on a mobile device. Think fonts like 'Montserrat Bold', 'Impact', or 'Anton'. Avoid thin or script fonts.\n")
	b.WriteString("2.  **High Contrast & Pops Out:** The text must have maximum contrast with the background. Do not just place text on the image. Use one of these professional techniques:\n")
	for _, technique := range []string{
		"A thick, contrasting outline (e.g., white text with a black outline, or yellow text with a dark blue outline).",
		"A solid color block behind the text (e.g., a red rectangle with white text on top).",
		"A strong, hard drop shadow to lift the text off the background.",
		"A glow effect that makes the text luminous.",
	} {
		b.WriteString("    - " + technique + "\n")
	}
	b.WriteString("3.  **Stylistically Integrated:** The font, colors, and effects must match the overall style and \"" + a.VideoType + "\" theme, but readability and contrast are the top priority.\n")
	b.WriteString("4.  **Strategically Placed:** Position the text in the area with the least visual clutter, OPPOSITE the main subject's placement. For example, if the subject is on the left, the text should be on the right. It MUST NOT cover the subject's face or any key focal point of the image.\n")
	b.WriteString("The text should be the first thing a viewer's eye is drawn to. Make it unmissable.\n")
}

func writeProMode(b *strings.Builder, a thumb.Answers) {
	if !a.ProMode || strings.TrimSpace(a.CustomPrompt) == "" {
		return
	}

	b.WriteString("PRO MODE INSTRUCTIONS:\n")
	b.WriteString("The user has provided a custom creative direction. Follow it closely, while still respecting all the critical requirements above (aspect ratio, placement, text design):\n")
	b.WriteString("\"" + a.CustomPrompt + "\"\n")
}
