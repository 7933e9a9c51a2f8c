package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ai-thumbnail-pro/internal/imageprep"
	"ai-thumbnail-pro/internal/logging"
	"ai-thumbnail-pro/internal/prompt"
	"ai-thumbnail-pro/internal/thumb"
)

func newNormalizeCmd() *cobra.Command {
	var (
		ratio   string
		quality int
		output  string
	)

	cmd := &cobra.Command{
		Use:   "normalize <image>",
		Short: "Fit a photo onto a white canvas of the given ratio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ar, err := thumb.ParseAspectRatio(ratio)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			level, _ := cmd.Flags().GetString("log-level")
			logger := logging.NewWithWriter(cmd.ErrOrStderr(), level, "console")

			n := imageprep.New(imageprep.Options{Quality: quality, Logger: &logger})
			out, err := n.Normalize(thumb.SourceImage{
				FileName: filepath.Base(args[0]),
				MimeType: http.DetectContentType(data),
				Size:     int64(len(data)),
				Data:     data,
			}, ar)
			if err != nil {
				return err
			}

			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "-" + strings.Replace(string(ar), "/", "x", 1) + ".jpg"
			}
			if err := os.WriteFile(output, out.Data, 0o644); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %dx%d %d bytes\n", output, out.Width, out.Height, len(out.Data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&ratio, "ratio", "r", "16:9", "Aspect ratio (16:9, 9:16, 1:1, 4:3, 3:4)")
	cmd.Flags().IntVarP(&quality, "quality", "q", imageprep.DefaultQuality, "JPEG quality (1-100)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default <input>-<ratio>.jpg)")
	return cmd
}

func newPromptCmd() *cobra.Command {
	var (
		rawArgs   string
		videoType string
		style     string
		placement string
		ratio     string
		text      string
		pro       string
		followUp  string
	)

	cmd := &cobra.Command{
		Use:   "prompt [file names...]",
		Short: "Print the edit instruction sent to the image model",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := prompt.ParseArgs(rawArgs, thumb.DefaultAnswers())

			if cmd.Flags().Changed("type") {
				if vt, ok := thumb.LookupVideoType(videoType); ok {
					a.VideoType = vt
				} else {
					a.VideoType = videoType
				}
			}
			if cmd.Flags().Changed("style") {
				if s, ok := thumb.LookupStyle(style); ok {
					a.Style = s
				} else {
					a.Style = style
				}
			}
			if cmd.Flags().Changed("placement") {
				p, ok := thumb.LookupPlacement(placement)
				if !ok {
					return fmt.Errorf("unknown placement %q", placement)
				}
				a.Placement = p
			}
			if cmd.Flags().Changed("ratio") {
				ar, err := thumb.ParseAspectRatio(ratio)
				if err != nil {
					return err
				}
				a.AspectRatio = ar
			}
			if cmd.Flags().Changed("text") {
				a.CustomText = text
			}
			if cmd.Flags().Changed("pro") {
				a.ProMode = true
				a.CustomPrompt = pro
			}

			if followUp != "" {
				fmt.Fprintln(cmd.OutOrStdout(), prompt.CompileFollowUp(followUp, a.AspectRatio))
				return nil
			}

			names := make([]string, len(args))
			for i, p := range args {
				names[i] = filepath.Base(p)
			}
			if len(names) == 0 {
				names = []string{"photo.jpg"}
			}

			fmt.Fprintln(cmd.OutOrStdout(), prompt.Compile(a, names))
			return nil
		},
	}

	cmd.Flags().StringVar(&rawArgs, "args", "", `Caption-style arguments, e.g. '16:9 right gaming text="TOP 10"'`)
	cmd.Flags().StringVar(&videoType, "type", "", "Video type")
	cmd.Flags().StringVar(&style, "style", "", "Visual style")
	cmd.Flags().StringVar(&placement, "placement", "", "Subject placement (left, center, right)")
	cmd.Flags().StringVar(&ratio, "ratio", "", "Aspect ratio")
	cmd.Flags().StringVar(&text, "text", "", "Text overlay")
	cmd.Flags().StringVar(&pro, "pro", "", "Pro-mode custom prompt")
	cmd.Flags().StringVar(&followUp, "follow-up", "", "Print the refinement instruction for this chat message instead")
	return cmd
}

func newStylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List styles, video types, placements and ratios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			fmt.Fprintln(w, "STYLES")
			for _, o := range thumb.StyleOptions() {
				fmt.Fprintf(w, "  %s\t%s\n", o.Key, o.Name)
			}
			fmt.Fprintln(w, "VIDEO TYPES")
			for _, o := range thumb.VideoTypeOptions() {
				fmt.Fprintf(w, "  %s\t%s\n", o.Key, o.Name)
			}
			fmt.Fprintln(w, "PLACEMENTS")
			for _, o := range thumb.PlacementOptions() {
				fmt.Fprintf(w, "  %s\t%s\n", o.Key, o.Name)
			}
			fmt.Fprintln(w, "RATIOS")
			for _, r := range thumb.AspectRatios() {
				width, height, _ := r.Dimensions()
				fmt.Fprintf(w, "  %s\t%s\t%dx%d\n", r.Colon(), r.Label(), width, height)
			}
			return w.Flush()
		},
	}
}
