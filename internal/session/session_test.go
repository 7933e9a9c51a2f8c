package session

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-thumbnail-pro/internal/kv"
	"ai-thumbnail-pro/internal/thumb"
)

func files(pairs ...any) []thumb.SourceImage {
	var out []thumb.SourceImage
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, thumb.SourceImage{FileName: pairs[i].(string), Size: int64(pairs[i+1].(int))})
	}
	return out
}

func TestKeyIsOrderIndependent(t *testing.T) {
	a := Key(files("b.png", 20, "a.jpg", 10))
	b := Key(files("a.jpg", 10, "b.png", 20))
	assert.Equal(t, "chatHistory-a.jpg-10-b.png-20", a)
	assert.Equal(t, a, b)
}

func TestKeySortsBySizeForSameName(t *testing.T) {
	assert.Equal(t, "chatHistory-x.png-1-x.png-2", Key(files("x.png", 2, "x.png", 1)))
	assert.NotEqual(t, Key(files("x.png", 1)), Key(files("x.png", 2)))
}

func TestValidKey(t *testing.T) {
	assert.True(t, ValidKey("chatHistory-a.png-1"))
	assert.False(t, ValidKey("chatHistory-"))
	assert.False(t, ValidKey("theme"))
}

func TestHistoryWelcomeNotPersisted(t *testing.T) {
	store := kv.NewMemory()
	h := NewHistory(HistoryOptions{Store: store})
	ctx := context.Background()

	msgs, err := h.Load(ctx, "chatHistory-a-1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, thumb.WelcomeMessage, msgs[0].Text)

	_, err = h.Append(ctx, "chatHistory-a-1")
	require.NoError(t, err)
	_, ok, _ := store.Get(ctx, "chatHistory-a-1")
	assert.False(t, ok)
}

func TestHistoryAppendPersists(t *testing.T) {
	store := kv.NewMemory()
	h := NewHistory(HistoryOptions{Store: store})
	ctx := context.Background()
	key := "chatHistory-a-1"

	got, err := h.Append(ctx, key,
		thumb.ChatMessage{Sender: thumb.SenderUser, Text: "make it red"},
		thumb.ChatMessage{Sender: thumb.SenderAI, Text: thumb.UpdatedMessage},
	)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, thumb.WelcomeMessage, got[0].Text)

	raw, ok, _ := store.Get(ctx, key)
	require.True(t, ok)
	var stored []thumb.ChatMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, got, stored)

	reloaded, err := NewHistory(HistoryOptions{Store: store}).Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, got, reloaded)
}

func TestHistoryCap(t *testing.T) {
	h := NewHistory(HistoryOptions{Store: kv.NewMemory(), MaxMessages: 3})
	ctx := context.Background()

	var got []thumb.ChatMessage
	var err error
	for i := range 5 {
		got, err = h.Append(ctx, "k", thumb.ChatMessage{Sender: thumb.SenderUser, Text: fmt.Sprint(i)})
		require.NoError(t, err)
	}
	require.Len(t, got, 3)
	assert.Equal(t, "4", got[2].Text)
}

func TestHistoryReset(t *testing.T) {
	store := kv.NewMemory()
	h := NewHistory(HistoryOptions{Store: store})
	ctx := context.Background()

	_, err := h.Append(ctx, "k", thumb.ChatMessage{Sender: thumb.SenderUser, Text: "hi"})
	require.NoError(t, err)

	msgs, err := h.Reset(ctx, "k")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	_, ok, _ := store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestHistoryUnreadableValue(t *testing.T) {
	store := kv.NewMemory()
	require.NoError(t, store.Set(context.Background(), "k", "{"))

	msgs, err := NewHistory(HistoryOptions{Store: store}).Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, thumb.WelcomeMessage, msgs[0].Text)
}

func seeded(t *testing.T) (*Manager, string) {
	t.Helper()
	m := NewManager()
	key := m.Open(files("cat.png", 100))
	thumbs := []*thumb.Thumbnail{
		{ID: "a", Data: []byte("1")},
		{ID: "b", Data: []byte("2")},
		{ID: "c", Data: []byte("3")},
	}
	require.NoError(t, m.SetThumbnails(key, thumb.DefaultAnswers(), thumbs))
	return m, key
}

func TestManagerSelect(t *testing.T) {
	m, key := seeded(t)

	require.NoError(t, m.Select(key, 2))
	v, err := m.View(key)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Active)

	assert.ErrorIs(t, m.Select(key, 3), ErrBadIndex)
	assert.ErrorIs(t, m.Select("nope", 0), ErrUnknownSession)
}

func TestManagerReopenKeepsThumbnails(t *testing.T) {
	m, key := seeded(t)
	again := m.Open(files("cat.png", 100))
	assert.Equal(t, key, again)

	v, err := m.View(key)
	require.NoError(t, err)
	assert.Len(t, v.Thumbnails, 3)
}

func TestManagerRefineGuard(t *testing.T) {
	m, key := seeded(t)
	require.NoError(t, m.Select(key, 1))

	working, finish, err := m.BeginRefine(key)
	require.NoError(t, err)
	assert.Equal(t, "b", working.ID)

	_, _, err = m.BeginRefine(key)
	assert.ErrorIs(t, err, thumb.ErrBusy)

	working.Data = []byte("refined")
	working.Revision = 1
	finish(working)

	got, err := m.Thumbnail(key, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("refined"), got.Data)
	assert.Equal(t, 1, got.Revision)

	_, finish, err = m.BeginRefine(key)
	require.NoError(t, err)
	finish(nil)

	got, _ = m.Thumbnail(key, "b")
	assert.Equal(t, []byte("refined"), got.Data)
}

func TestManagerGenerateGuard(t *testing.T) {
	m, key := seeded(t)

	_, finish, err := m.BeginRefine(key)
	require.NoError(t, err)

	_, _, err = m.BeginGenerate(key)
	assert.ErrorIs(t, err, thumb.ErrBusy)
	err = m.SetThumbnails(key, thumb.DefaultAnswers(), []*thumb.Thumbnail{{ID: "x"}})
	assert.ErrorIs(t, err, thumb.ErrBusy)
	finish(nil)

	sources, done, err := m.BeginGenerate(key)
	require.NoError(t, err)
	assert.Len(t, sources, 1)

	_, _, err = m.BeginRefine(key)
	assert.ErrorIs(t, err, thumb.ErrBusy)
	_, _, err = m.BeginGenerate(key)
	assert.ErrorIs(t, err, thumb.ErrBusy)
	assert.Zero(t, m.Prune(-time.Hour))

	done()
	_, finish, err = m.BeginRefine(key)
	require.NoError(t, err)
	finish(nil)
}

func TestManagerRefineWithoutThumbnails(t *testing.T) {
	m := NewManager()
	key := m.Open(files("cat.png", 1))
	_, _, err := m.BeginRefine(key)
	assert.ErrorIs(t, err, ErrNoThumbnails)
}

func TestManagerPrune(t *testing.T) {
	m, key := seeded(t)
	now := time.Now()
	m.now = func() time.Time { return now.Add(2 * time.Hour) }

	assert.Equal(t, 1, m.Prune(time.Hour))
	_, err := m.View(key)
	assert.ErrorIs(t, err, ErrUnknownSession)
}
