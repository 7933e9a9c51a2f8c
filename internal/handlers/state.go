package handlers

import (
	"slices"
	"sync"
	"time"

	"ai-thumbnail-pro/internal/thumb"
)

const (
	menuMain      = "main"
	menuType      = "type"
	menuStyle     = "style"
	menuPlacement = "placement"
	menuRatio     = "ratio"
)

const (
	awaitNone   = ""
	awaitText   = "text"
	awaitPrompt = "prompt"
)

// chatState is the questionnaire and upload a user is working on in one chat.
type chatState struct {
	Answers    thumb.Answers
	SessionKey string
	FileNames  []string
	Generated  bool

	MessageID int
	Menu      string
	Awaiting  string

	UpdatedAt time.Time
}

func (s chatState) clone() chatState {
	s.FileNames = slices.Clone(s.FileNames)
	s.Answers.EnhancedPrompts = slices.Clone(s.Answers.EnhancedPrompts)
	return s
}

type stateKey struct {
	ChatID int64
	UserID int64
}

type stateStore struct {
	mu  sync.Mutex
	m   map[stateKey]*chatState
	now func() time.Time
}

func newStateStore() *stateStore {
	return &stateStore{
		m:   make(map[stateKey]*chatState),
		now: time.Now,
	}
}

func (s *stateStore) Get(chatID, userID int64) chatState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrCreateLocked(chatID, userID).clone()
}

func (s *stateStore) Update(chatID, userID int64, fn func(*chatState)) chatState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreateLocked(chatID, userID)
	if fn != nil {
		fn(st)
	}
	if st.Menu == "" {
		st.Menu = menuMain
	}
	st.UpdatedAt = s.now()
	return st.clone()
}

// Reset drops everything except the questionnaire message id, so the open
// keyboard can still be edited in place.
func (s *stateStore) Reset(chatID, userID int64) chatState {
	return s.Update(chatID, userID, func(st *chatState) {
		msgID := st.MessageID
		*st = defaultState()
		st.MessageID = msgID
	})
}

// Prune forgets states idle for longer than maxIdle.
func (s *stateStore) Prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	removed := 0
	for key, st := range s.m {
		if st.UpdatedAt.Before(cutoff) {
			delete(s.m, key)
			removed++
		}
	}
	return removed
}

func (s *stateStore) getOrCreateLocked(chatID, userID int64) *chatState {
	key := stateKey{ChatID: chatID, UserID: userID}
	if st, ok := s.m[key]; ok {
		return st
	}
	st := defaultState()
	st.UpdatedAt = s.now()
	s.m[key] = &st
	return s.m[key]
}

func defaultState() chatState {
	return chatState{
		Answers: thumb.DefaultAnswers(),
		Menu:    menuMain,
	}
}
