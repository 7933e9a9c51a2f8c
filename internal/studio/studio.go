// Package studio is the application service behind both the web API and the
// Telegram bot: uploads, generation, selection and chat refinement.
package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ai-thumbnail-pro/internal/session"
	"ai-thumbnail-pro/internal/thumb"
)

var ErrEmptyMessage = errors.New("message is empty")

type Generator interface {
	Generate(ctx context.Context, a thumb.Answers, sources []thumb.SourceImage) ([]*thumb.Thumbnail, error)
	Refine(ctx context.Context, t *thumb.Thumbnail, refinement string) error
}

type Enhancer interface {
	Enhance(ctx context.Context, a thumb.Answers, numFiles int) ([]string, error)
}

type Options struct {
	Generator  Generator
	Enhancer   Enhancer
	Workspaces *session.Manager
	History    *session.History
	Logger     *zerolog.Logger
}

type Service struct {
	gen        Generator
	enhancer   Enhancer
	workspaces *session.Manager
	history    *session.History
	logger     zerolog.Logger
}

func New(opts Options) *Service {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "studio").Logger()
	}

	return &Service{
		gen:        opts.Generator,
		enhancer:   opts.Enhancer,
		workspaces: opts.Workspaces,
		history:    opts.History,
		logger:     logger,
	}
}

// Upload registers the photos and reattaches to any stored conversation for
// the same set.
func (s *Service) Upload(ctx context.Context, sources []thumb.SourceImage) (string, []thumb.ChatMessage, error) {
	if len(sources) == 0 {
		return "", nil, thumb.ErrNoSources
	}

	key := s.workspaces.Open(sources)
	history, err := s.history.Load(ctx, key)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info().Str("session", key).Int("files", len(sources)).Msg("upload registered")
	return key, history, nil
}

// Enhance asks for three richer variants of the pro-mode draft.
func (s *Service) Enhance(ctx context.Context, key string, a thumb.Answers) ([]string, error) {
	sources, err := s.workspaces.Sources(key)
	if err != nil {
		return nil, err
	}
	if s.enhancer == nil {
		return nil, errors.New("prompt enhancement is not configured")
	}
	return s.enhancer.Enhance(ctx, a, len(sources))
}

// Generate runs a submission. On failure the previous thumbnails are kept.
// A session with a refinement in flight rejects it with thumb.ErrBusy.
func (s *Service) Generate(ctx context.Context, key string, a thumb.Answers) (session.View, []thumb.ChatMessage, error) {
	sources, done, err := s.workspaces.BeginGenerate(key)
	if err != nil {
		return session.View{}, nil, err
	}
	defer done()

	thumbs, err := s.gen.Generate(ctx, a, sources)
	if err != nil {
		return session.View{}, nil, err
	}

	if err := s.workspaces.SetThumbnails(key, a, thumbs); err != nil {
		return session.View{}, nil, err
	}
	history, err := s.history.Reset(ctx, key)
	if err != nil {
		return session.View{}, nil, err
	}

	view, err := s.workspaces.View(key)
	return view, history, err
}

func (s *Service) Select(key string, index int) error {
	return s.workspaces.Select(key, index)
}

func (s *Service) View(key string) (session.View, error) {
	return s.workspaces.View(key)
}

func (s *Service) Thumbnail(key, id string) (thumb.Thumbnail, error) {
	return s.workspaces.Thumbnail(key, id)
}

func (s *Service) History(ctx context.Context, key string) ([]thumb.ChatMessage, error) {
	return s.history.Load(ctx, key)
}

// Refine applies a chat message to the active thumbnail. The user message is
// always recorded; a failure records an apology and still returns the error.
func (s *Service) Refine(ctx context.Context, key, message string) (thumb.Thumbnail, []thumb.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return thumb.Thumbnail{}, nil, ErrEmptyMessage
	}

	working, finish, err := s.workspaces.BeginRefine(key)
	if err != nil {
		return thumb.Thumbnail{}, nil, err
	}

	if _, err := s.history.Append(ctx, key, thumb.ChatMessage{Sender: thumb.SenderUser, Text: message}); err != nil {
		finish(nil)
		return thumb.Thumbnail{}, nil, err
	}

	refineErr := s.gen.Refine(ctx, working, message)
	if refineErr != nil {
		finish(nil)
		history, err := s.history.Append(ctx, key, thumb.ChatMessage{Sender: thumb.SenderAI, Text: thumb.ApologyMessage(refineErr)})
		if err != nil {
			s.logger.Error().Err(err).Str("session", key).Msg("record apology failed")
		}
		return thumb.Thumbnail{}, history, fmt.Errorf("refine: %w", refineErr)
	}
	finish(working)

	history, err := s.history.Append(ctx, key, thumb.ChatMessage{Sender: thumb.SenderAI, Text: thumb.UpdatedMessage})
	if err != nil {
		return *working, nil, err
	}
	return *working, history, nil
}

// Clear forgets the workspace and its conversation.
func (s *Service) Clear(ctx context.Context, key string) error {
	s.workspaces.Drop(key)
	_, err := s.history.Reset(ctx, key)
	return err
}
