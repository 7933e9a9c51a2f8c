package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"ai-thumbnail-pro/internal/kv"
	"ai-thumbnail-pro/internal/thumb"
)

type HistoryOptions struct {
	Store       kv.Store
	MaxMessages int
	Logger      *zerolog.Logger
}

// History is the append-only conversation per session key.
type History struct {
	store       kv.Store
	maxMessages int
	logger      zerolog.Logger

	mu sync.Mutex
}

func NewHistory(opts HistoryOptions) *History {
	maxMessages := opts.MaxMessages
	if maxMessages <= 0 {
		maxMessages = 200
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &History{
		store:       opts.Store,
		maxMessages: maxMessages,
		logger:      logger,
	}
}

func welcome() []thumb.ChatMessage {
	return []thumb.ChatMessage{{Sender: thumb.SenderAI, Text: thumb.WelcomeMessage}}
}

// Load returns the stored conversation, or a fresh one holding only the
// welcome message.
func (h *History) Load(ctx context.Context, key string) ([]thumb.ChatMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadLocked(ctx, key)
}

func (h *History) loadLocked(ctx context.Context, key string) ([]thumb.ChatMessage, error) {
	raw, ok, err := h.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if !ok {
		return welcome(), nil
	}

	var msgs []thumb.ChatMessage
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil || len(msgs) == 0 {
		h.logger.Warn().Err(err).Str("session", key).Msg("discarding unreadable history")
		return welcome(), nil
	}
	return msgs, nil
}

// Append adds msgs and persists the result. It returns the full history.
func (h *History) Append(ctx context.Context, key string, msgs ...thumb.ChatMessage) ([]thumb.ChatMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	history, err := h.loadLocked(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return history, nil
	}

	history = append(history, msgs...)
	if len(history) > h.maxMessages {
		history = history[len(history)-h.maxMessages:]
	}

	if err := h.saveLocked(ctx, key, history); err != nil {
		return nil, err
	}
	return history, nil
}

// Reset starts a new conversation for key.
func (h *History) Reset(ctx context.Context, key string) ([]thumb.ChatMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("reset history: %w", err)
	}
	return welcome(), nil
}

// saveLocked skips a conversation that is still just the welcome message.
func (h *History) saveLocked(ctx context.Context, key string, history []thumb.ChatMessage) error {
	if len(history) == 1 && history[0].Text == thumb.WelcomeMessage {
		return nil
	}

	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := h.store.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
