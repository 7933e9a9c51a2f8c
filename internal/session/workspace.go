package session

import (
	"errors"
	"sync"
	"time"

	"ai-thumbnail-pro/internal/thumb"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrNoThumbnails   = errors.New("no thumbnails generated yet")
	ErrBadIndex       = errors.New("thumbnail index out of range")
	ErrUnknownThumb   = errors.New("unknown thumbnail")
)

// Workspace is the in-memory state of one upload set.
type Workspace struct {
	Key          string
	Sources      []thumb.SourceImage
	Answers      thumb.Answers
	Thumbnails   []*thumb.Thumbnail
	Active       int
	LastActivity time.Time

	refining   bool
	generating bool
}

// View is a copy of a workspace that is safe to read without the lock.
type View struct {
	Key        string            `json:"sessionKey"`
	Answers    thumb.Answers     `json:"answers"`
	Thumbnails []thumb.Thumbnail `json:"thumbnails"`
	Active     int               `json:"active"`
	Refining   bool              `json:"refining"`
}

type Manager struct {
	mu     sync.Mutex
	spaces map[string]*Workspace
	now    func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		spaces: make(map[string]*Workspace),
		now:    time.Now,
	}
}

// Open registers an upload set and returns its key. Uploading the same set
// again keeps the existing thumbnails.
func (m *Manager) Open(sources []thumb.SourceImage) string {
	key := Key(sources)

	m.mu.Lock()
	defer m.mu.Unlock()

	ws, ok := m.spaces[key]
	if !ok {
		ws = &Workspace{Key: key, Answers: thumb.DefaultAnswers()}
		m.spaces[key] = ws
	}
	ws.Sources = sources
	ws.LastActivity = m.now()
	return key
}

func (m *Manager) Sources(key string) ([]thumb.SourceImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, err := m.getLocked(key)
	if err != nil {
		return nil, err
	}
	return ws.Sources, nil
}

// BeginGenerate marks a submission in flight and returns the sources to work
// from. It fails with thumb.ErrBusy while a refinement or another submission
// is running. done must be called exactly once.
func (m *Manager) BeginGenerate(key string) (sources []thumb.SourceImage, done func(), err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, err := m.getLocked(key)
	if err != nil {
		return nil, nil, err
	}
	if ws.refining || ws.generating {
		return nil, nil, thumb.ErrBusy
	}
	ws.generating = true

	done = func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		ws.generating = false
		ws.LastActivity = m.now()
	}
	return ws.Sources, done, nil
}

// SetThumbnails replaces the variants after a successful generation and
// makes the first one active. It refuses while a refinement is running.
func (m *Manager) SetThumbnails(key string, a thumb.Answers, thumbs []*thumb.Thumbnail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, err := m.getLocked(key)
	if err != nil {
		return err
	}
	if ws.refining {
		return thumb.ErrBusy
	}
	ws.Answers = a
	ws.Thumbnails = thumbs
	ws.Active = 0
	return nil
}

func (m *Manager) Select(key string, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, err := m.getLocked(key)
	if err != nil {
		return err
	}
	if len(ws.Thumbnails) == 0 {
		return ErrNoThumbnails
	}
	if index < 0 || index >= len(ws.Thumbnails) {
		return ErrBadIndex
	}
	ws.Active = index
	return nil
}

func (m *Manager) View(key string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, err := m.getLocked(key)
	if err != nil {
		return View{}, err
	}

	v := View{
		Key:        ws.Key,
		Answers:    ws.Answers,
		Thumbnails: make([]thumb.Thumbnail, 0, len(ws.Thumbnails)),
		Active:     ws.Active,
		Refining:   ws.refining,
	}
	for _, t := range ws.Thumbnails {
		v.Thumbnails = append(v.Thumbnails, *t)
	}
	return v, nil
}

func (m *Manager) Thumbnail(key, id string) (thumb.Thumbnail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, err := m.getLocked(key)
	if err != nil {
		return thumb.Thumbnail{}, err
	}
	for _, t := range ws.Thumbnails {
		if t.ID == id {
			return *t, nil
		}
	}
	return thumb.Thumbnail{}, ErrUnknownThumb
}

// BeginRefine marks the session busy and hands out a working copy of the
// active thumbnail. finish must be called exactly once; a non-nil result is
// written back into the original thumbnail.
func (m *Manager) BeginRefine(key string) (working *thumb.Thumbnail, finish func(result *thumb.Thumbnail), err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, err := m.getLocked(key)
	if err != nil {
		return nil, nil, err
	}
	if len(ws.Thumbnails) == 0 {
		return nil, nil, ErrNoThumbnails
	}
	if ws.refining || ws.generating {
		return nil, nil, thumb.ErrBusy
	}
	ws.refining = true

	target := ws.Thumbnails[ws.Active]
	cp := *target

	finish = func(result *thumb.Thumbnail) {
		m.mu.Lock()
		defer m.mu.Unlock()

		ws.refining = false
		ws.LastActivity = m.now()
		if result != nil && result.ID == target.ID {
			*target = *result
		}
	}
	return &cp, finish, nil
}

func (m *Manager) Drop(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.spaces, key)
}

// Prune removes workspaces idle for longer than maxIdle and reports how many
// were dropped. Busy workspaces are kept.
func (m *Manager) Prune(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxIdle)
	dropped := 0
	for key, ws := range m.spaces {
		if !ws.refining && !ws.generating && ws.LastActivity.Before(cutoff) {
			delete(m.spaces, key)
			dropped++
		}
	}
	return dropped
}

func (m *Manager) getLocked(key string) (*Workspace, error) {
	ws, ok := m.spaces[key]
	if !ok {
		return nil, ErrUnknownSession
	}
	ws.LastActivity = m.now()
	return ws, nil
}
