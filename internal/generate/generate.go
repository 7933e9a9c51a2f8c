// Package generate runs a submission: normalize the uploads once, compile one
// instruction per variant and fan the edits out concurrently.
package generate

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ai-thumbnail-pro/internal/gemini"
	"ai-thumbnail-pro/internal/prompt"
	"ai-thumbnail-pro/internal/thumb"
)

// VariantCount is the number of thumbnails produced per submission.
const VariantCount = 3

type Editor interface {
	EditImage(ctx context.Context, images []gemini.Image, instruction string) (gemini.Image, error)
}

type Normalizer interface {
	NormalizeAll(ctx context.Context, sources []thumb.SourceImage, ratio thumb.AspectRatio) ([]thumb.NormalizedImage, error)
}

type Options struct {
	Editor     Editor
	Normalizer Normalizer
	// Rand drives the style spread. Defaults to a time-seeded PCG.
	Rand   *rand.Rand
	NewID  func() string
	Logger *zerolog.Logger
}

type Generator struct {
	editor     Editor
	normalizer Normalizer
	newID      func() string
	logger     zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func New(opts Options) *Generator {
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "generate").Logger()
	}

	return &Generator{
		editor:     opts.Editor,
		normalizer: opts.Normalizer,
		newID:      newID,
		logger:     logger,
		rng:        rng,
	}
}

// SelectStyles returns the chosen style followed by two distinct styles
// drawn from the rest of the catalog.
func SelectStyles(chosen string, rng *rand.Rand) []string {
	pool := make([]string, 0, len(thumb.Styles()))
	for _, s := range thumb.Styles() {
		if s != chosen {
			pool = append(pool, s)
		}
	}

	out := []string{chosen}
	for _, i := range rng.Perm(len(pool))[:VariantCount-1] {
		out = append(out, pool[i])
	}
	return out
}

type task struct {
	answers thumb.Answers
	style   string
}

func (g *Generator) plan(a thumb.Answers) []task {
	if a.UsesEnhancedPrompts() {
		prompts := a.EnhancedPrompts
		if len(prompts) > VariantCount {
			prompts = prompts[:VariantCount]
		}
		tasks := make([]task, 0, len(prompts))
		for i, p := range prompts {
			ta := a
			ta.CustomPrompt = p
			tasks = append(tasks, task{answers: ta, style: fmt.Sprintf("AI Idea %d", i+1)})
		}
		return tasks
	}

	g.mu.Lock()
	styles := SelectStyles(a.Style, g.rng)
	g.mu.Unlock()

	tasks := make([]task, 0, len(styles))
	for _, s := range styles {
		ta := a
		ta.Style = s
		tasks = append(tasks, task{answers: ta, style: s})
	}
	return tasks
}

// Generate produces the variants for one submission. Any task failure fails
// the whole call and no thumbnails are returned.
func (g *Generator) Generate(ctx context.Context, a thumb.Answers, sources []thumb.SourceImage) ([]*thumb.Thumbnail, error) {
	if len(sources) == 0 {
		return nil, thumb.ErrNoSources
	}
	if !a.AspectRatio.Valid() {
		return nil, fmt.Errorf("%w: %q", thumb.ErrUnsupportedRatio, string(a.AspectRatio))
	}

	normalized, err := g.normalizer.NormalizeAll(ctx, sources, a.AspectRatio)
	if err != nil {
		return nil, err
	}

	images := make([]gemini.Image, 0, len(normalized))
	fileNames := make([]string, 0, len(normalized))
	for _, n := range normalized {
		images = append(images, gemini.Image{MimeType: n.MimeType, Data: n.Data})
		fileNames = append(fileNames, n.FileName)
	}

	tasks := g.plan(a)
	results := make([]*thumb.Thumbnail, len(tasks))

	start := time.Now()
	eg, egCtx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		eg.Go(func() error {
			instruction := prompt.Compile(t.answers, fileNames)
			img, err := g.editor.EditImage(egCtx, images, instruction)
			if err != nil {
				return fmt.Errorf("variant %q: %w", t.style, err)
			}
			results[i] = &thumb.Thumbnail{
				ID:          g.newID(),
				Label:       thumb.Label(t.style, a.AspectRatio),
				Style:       t.style,
				AspectRatio: a.AspectRatio,
				MimeType:    img.MimeType,
				Data:        img.Data,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		g.logger.Error().Err(err).Str("ratio", a.AspectRatio.String()).Msg("generation failed")
		return nil, err
	}

	g.logger.Info().
		Int("variants", len(results)).
		Int("sources", len(sources)).
		Str("ratio", a.AspectRatio.String()).
		Dur("duration", time.Since(start)).
		Msg("thumbnails generated")
	return results, nil
}

// Refine applies one follow-up edit to t using its current image as the only
// source. On success the image is replaced in place; ID and ratio are kept.
func (g *Generator) Refine(ctx context.Context, t *thumb.Thumbnail, refinement string) error {
	instruction := prompt.CompileFollowUp(refinement, t.AspectRatio)
	img, err := g.editor.EditImage(ctx, []gemini.Image{{MimeType: t.MimeType, Data: t.Data}}, instruction)
	if err != nil {
		g.logger.Warn().Err(err).Str("thumbnail", t.ID).Msg("refinement failed")
		return err
	}

	t.MimeType = img.MimeType
	t.Data = img.Data
	t.Revision++

	g.logger.Info().Str("thumbnail", t.ID).Int("revision", t.Revision).Msg("thumbnail refined")
	return nil
}
