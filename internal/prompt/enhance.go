package prompt

import (
	"fmt"
	"strings"

	"ai-thumbnail-pro/internal/thumb"
)

// EnhancementInstruction asks the text model for three editing prompts that
// build on the user's draft.
func EnhancementInstruction(a thumb.Answers, numFiles int) string {
	overlay := strings.TrimSpace(a.CustomText)
	if overlay == "" {
		overlay = "None"
	}

	var b strings.Builder
	b.Grow(4096)

	b.WriteString("You are an expert AI prompt engineer specializing in creating instructions for image *editing*. ")
	b.WriteString("Your task is to take a user's basic idea for a YouTube thumbnail and enhance it into three distinct, professional, and detailed editing prompts.\n\n")

	b.WriteString("**CRITICAL RULE: The enhanced prompts MUST be instructions to EDIT the user's provided image, not create a new one from scratch. ")
	b.WriteString("The main subject from the user's photo (e.g., a person, a product) MUST be kept, enhanced, and integrated into the final thumbnail.** ")
	b.WriteString("You are adding to and improving the scene, not replacing it.\n\n")

	b.WriteString("**Context from User's Form:**\n")
	fmt.Fprintf(&b, "- Video Type: \"%s\"\n", a.VideoType)
	fmt.Fprintf(&b, "- Desired Style: \"%s\"\n", a.Style)
	fmt.Fprintf(&b, "- Main Subject Placement: \"%s\"\n", a.Placement)
	fmt.Fprintf(&b, "- Aspect Ratio: \"%s\"\n", a.AspectRatio)
	fmt.Fprintf(&b, "- Text Overlay: \"%s\"\n", overlay)
	fmt.Fprintf(&b, "- Number of source images: %d\n\n", numFiles)

	b.WriteString("**User's Core Idea (this is the starting point to build upon):**\n")
	b.WriteString("\"" + a.CustomPrompt + "\"\n\n")

	b.WriteString("**Your Task:**\n")
	b.WriteString("1.  Read the user's core idea and the form context.\n")
	b.WriteString("2.  Brainstorm three unique creative directions that *build upon* the user's idea and *incorporate the subject from their uploaded photo*.\n")
	b.WriteString("3.  For each direction, write a detailed set of editing instructions. Describe specific visual elements like:\n")
	b.WriteString("    - **Lighting:** (e.g., \"Add dramatic rim lighting to the subject,\" \"Introduce volumetric light rays from the top left.\")\n")
	b.WriteString("    - **Color Grading:** (e.g., \"Grade the image with a cinematic teal and orange look,\" \"Boost color saturation for a vibrant feel.\")\n")
	b.WriteString("    - **Background Elements:** (e.g., \"Replace the background with a futuristic cityscape at night,\" \"Add subtle, glowing particle effects behind the subject.\")\n")
	b.WriteString("    - **Effects:** (e.g., \"Apply a slight motion blur to the background,\" \"Add a clean, white outline to the subject to make them pop.\")\n")
	b.WriteString("4.  Format each of the three creative directions as a list of bullet points using markdown (e.g., \"- Detail 1\").\n")
	b.WriteString("5.  Return a JSON array containing exactly three strings. Each string is a complete, enhanced prompt formatted with markdown bullet points, ready to be used to edit the user's photo.\n\n")

	b.WriteString("**Example of a good enhancement:**\n")
	b.WriteString("- User Idea: \"make it look cool\"\n")
	b.WriteString("- Good Enhanced Bullet Point Prompt:\n")
	b.WriteString("  - \"- Edit the provided photo to have a cinematic, cyberpunk feel.\"\n")
	b.WriteString("  - \"- Grade the entire image with a neon color palette, emphasizing blues and magentas.\"\n")
	b.WriteString("  - \"- Add a subtle, glowing digital grid pattern to the background.\"\n")
	b.WriteString("  - \"- Enhance the lighting on the person to include a bright neon rim light, making them pop from the dark background.\"\n\n")

	b.WriteString("Do not use templates. Create the prompts based on the user's input and the principles of good thumbnail design. ")
	b.WriteString("Ensure the output is a JSON array of three strings.")

	return b.String()
}
