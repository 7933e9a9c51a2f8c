package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-thumbnail-pro/internal/auth"
	"ai-thumbnail-pro/internal/kv"
	"ai-thumbnail-pro/internal/prefs"
	"ai-thumbnail-pro/internal/session"
	"ai-thumbnail-pro/internal/studio"
	"ai-thumbnail-pro/internal/thumb"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "hunter2"
)

type stubGen struct {
	lastAnswers thumb.Answers
	refineErr   error
}

func (g *stubGen) Generate(_ context.Context, a thumb.Answers, sources []thumb.SourceImage) ([]*thumb.Thumbnail, error) {
	g.lastAnswers = a
	out := make([]*thumb.Thumbnail, 3)
	for i := range out {
		out[i] = &thumb.Thumbnail{
			ID:          fmt.Sprintf("t%d", i),
			Style:       a.Style,
			Label:       thumb.Label(a.Style, a.AspectRatio),
			AspectRatio: a.AspectRatio,
			MimeType:    "image/png",
			Data:        []byte(fmt.Sprintf("png-%d", i)),
		}
	}
	return out, nil
}

func (g *stubGen) Refine(_ context.Context, t *thumb.Thumbnail, refinement string) error {
	if g.refineErr != nil {
		return g.refineErr
	}
	t.Data = []byte("refined")
	t.Revision++
	return nil
}

type stubEnhancer struct{}

func (stubEnhancer) Enhance(_ context.Context, a thumb.Answers, _ int) ([]string, error) {
	if strings.TrimSpace(a.CustomPrompt) == "" {
		return nil, nil
	}
	return []string{"one", "two", "three"}, nil
}

type harness struct {
	srv *httptest.Server
	gen *stubGen
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := kv.NewMemory()
	gen := &stubGen{}
	svc := studio.New(studio.Options{
		Generator:  gen,
		Enhancer:   stubEnhancer{},
		Workspaces: session.NewManager(),
		History:    session.NewHistory(session.HistoryOptions{Store: store}),
	})
	s := New(Options{
		Studio: svc,
		Themes: prefs.NewThemes(store),
		Auth:   auth.NewChecker(auth.Credentials{Email: testEmail, Password: testPassword}),
	})
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return &harness{srv: srv, gen: gen}
}

func (h *harness) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, r)
	require.NoError(t, err)
	req.SetBasicAuth(testEmail, testPassword)
	resp, err := h.srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func (h *harness) upload(t *testing.T, names ...string) uploadResponse {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, n := range names {
		part, err := mw.CreateFormFile("images", n)
		require.NoError(t, err)
		_, err = part.Write(pngBytes(t))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, h.srv.URL+"/api/uploads", &body)
	require.NoError(t, err)
	req.Header.Set("content-type", mw.FormDataContentType())
	req.SetBasicAuth(testEmail, testPassword)

	resp, err := h.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[uploadResponse](t, resp)
}

func sessionPath(key string) string {
	return "/api/sessions/" + url.PathEscape(key)
}

func TestHealthIsPublic(t *testing.T) {
	h := newHarness(t)
	resp, err := http.Get(h.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	post := func(email, password string) int {
		raw, _ := json.Marshal(loginRequest{Email: email, Password: password})
		resp, err := http.Post(h.srv.URL+"/api/login", "application/json", bytes.NewReader(raw))
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, post(testEmail, testPassword))
	assert.Equal(t, http.StatusUnauthorized, post(testEmail, "wrong"))
}

func TestAPIRequiresAuth(t *testing.T) {
	h := newHarness(t)
	resp, err := http.Get(h.srv.URL + "/api/catalog")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCatalog(t *testing.T) {
	h := newHarness(t)
	resp := h.do(t, http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cat := decode[catalogResponse](t, resp)
	assert.Len(t, cat.Styles, 6)
	assert.Len(t, cat.VideoTypes, 8)
	require.Len(t, cat.AspectRatios, 5)
	assert.Equal(t, thumb.Ratio16x9, cat.AspectRatios[0].Value)
	assert.Equal(t, 1920, cat.AspectRatios[0].Width)
}

func TestUploadGenerateChatFlow(t *testing.T) {
	h := newHarness(t)
	up := h.upload(t, "cat.png")
	assert.True(t, strings.HasPrefix(up.SessionKey, "chatHistory-cat.png-"))
	require.Len(t, up.Files, 1)
	assert.Equal(t, "image/png", up.Files[0].MimeType)
	require.Len(t, up.History, 1)

	path := sessionPath(up.SessionKey)

	resp := h.do(t, http.MethodPost, path+"/generate", map[string]any{
		"style":       thumb.StyleMinimalist,
		"placement":   "right",
		"aspectRatio": "1:1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[viewResponse](t, resp)
	require.Len(t, view.Thumbnails, 3)
	assert.Equal(t, thumb.Ratio1x1, h.gen.lastAnswers.AspectRatio)
	assert.Equal(t, thumb.PlacementRight, h.gen.lastAnswers.Placement)
	assert.Equal(t, "Tutorial", h.gen.lastAnswers.VideoType)
	assert.Equal(t, "thumbnail-1x1.png", view.Thumbnails[0].FileName)

	resp = h.do(t, http.MethodPut, path+"/active", selectRequest{Index: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(t, http.MethodPost, path+"/chat", chatRequest{Message: "make it red"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	chat := decode[chatResponse](t, resp)
	assert.Equal(t, "t1", chat.Thumbnail.ID)
	assert.Equal(t, 1, chat.Thumbnail.Revision)
	require.Len(t, chat.History, 3)
	assert.Equal(t, thumb.UpdatedMessage, chat.History[2].Text)

	resp = h.do(t, http.MethodGet, chat.Thumbnail.URL+"?download=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "refined", string(body))
	assert.Equal(t, "image/png", resp.Header.Get("content-type"))
	assert.Contains(t, resp.Header.Get("content-disposition"), `attachment; filename="thumbnail-1x1.png"`)

	resp = h.do(t, http.MethodGet, path+"/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	hist := decode[map[string][]thumb.ChatMessage](t, resp)
	assert.Len(t, hist["history"], 3)
}

func TestChatFailureReturnsHistory(t *testing.T) {
	h := newHarness(t)
	up := h.upload(t, "cat.png")
	path := sessionPath(up.SessionKey)

	resp := h.do(t, http.MethodPost, path+"/generate", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	h.gen.refineErr = thumb.ErrNoImageReturned
	resp = h.do(t, http.MethodPost, path+"/chat", chatRequest{Message: "add a dragon"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	body := decode[apiError](t, resp)
	require.Len(t, body.History, 3)
	assert.True(t, strings.HasPrefix(body.History[2].Text, "Sorry, I couldn't make that change. Error: "))
}

func TestGenerateValidation(t *testing.T) {
	h := newHarness(t)
	up := h.upload(t, "cat.png")
	path := sessionPath(up.SessionKey)

	resp := h.do(t, http.MethodPost, path+"/generate", map[string]any{"aspectRatio": "21:9"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, http.MethodPost, path+"/generate", map[string]any{"placement": "top"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, http.MethodPost, sessionPath("chatHistory-ghost.png-1")+"/generate", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.do(t, http.MethodPut, path+"/active", selectRequest{Index: 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateAcceptsRatioList(t *testing.T) {
	h := newHarness(t)
	up := h.upload(t, "cat.png")
	path := sessionPath(up.SessionKey)

	resp := h.do(t, http.MethodPost, path+"/generate", map[string]any{"aspectRatios": []string{"9:16", "1:1"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, thumb.Ratio9x16, h.gen.lastAnswers.AspectRatio)

	resp = h.do(t, http.MethodPost, path+"/generate", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, thumb.Ratio16x9, h.gen.lastAnswers.AspectRatio)
}

func TestEnhance(t *testing.T) {
	h := newHarness(t)
	up := h.upload(t, "a.png", "b.png")
	path := sessionPath(up.SessionKey)

	resp := h.do(t, http.MethodPost, path+"/enhance", map[string]any{"proMode": true, "customPrompt": "neon"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"one", "two", "three"}, decode[map[string][]string](t, resp)["prompts"])

	resp = h.do(t, http.MethodPost, path+"/enhance", map[string]any{"customPrompt": ""})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[map[string][]string](t, resp)["prompts"])
}

func TestTheme(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/api/theme", nil)
	assert.Equal(t, prefs.ThemeDark, decode[themeBody](t, resp).Theme)

	resp = h.do(t, http.MethodPut, "/api/theme", themeBody{Theme: prefs.ThemeLight})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(t, http.MethodGet, "/api/theme", nil)
	assert.Equal(t, prefs.ThemeLight, decode[themeBody](t, resp).Theme)

	resp = h.do(t, http.MethodPut, "/api/theme", themeBody{Theme: "sepia"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDraft(t *testing.T) {
	h := newHarness(t)
	fields := map[string]string{"videoType": "Vlog", "style": "Bold & Punchy"}

	resp := h.do(t, http.MethodPost, "/api/prompt/draft", map[string]any{"fields": fields})
	d := decode[map[string]any](t, resp)
	assert.Equal(t, `A thumbnail for a "Vlog" video. The style should be "Bold & Punchy".`, d["text"])
	assert.Equal(t, false, d["userHasOverridden"])

	resp = h.do(t, http.MethodPost, "/api/prompt/draft", map[string]any{"fields": fields, "edit": "mine"})
	d = decode[map[string]any](t, resp)
	assert.Equal(t, "mine", d["text"])
	assert.Equal(t, true, d["userHasOverridden"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(thumb.ErrBusy))
	assert.Equal(t, http.StatusBadGateway, statusFor(fmt.Errorf("x: %w", thumb.ErrGenerationFailed)))
	assert.Equal(t, http.StatusBadGateway, statusFor(thumb.ErrInvalidEnhancementFormat))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusInternalServerError, statusFor(thumb.ErrCanvasAllocation))
}
