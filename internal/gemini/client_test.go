package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-thumbnail-pro/internal/thumb"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()})
}

func TestEditImageSendsImagesBeforeText(t *testing.T) {
	var got generateContentRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/"+DefaultImageModel+":generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(generateContentResponse{Candidates: []candidate{{
			Content: content{Parts: []part{
				{Text: "here you go"},
				{InlineData: &blob{MimeType: "image/png", Data: []byte("PNGDATA")}},
				{InlineData: &blob{MimeType: "image/png", Data: []byte("SECOND")}},
			}},
		}}})
	})

	img, err := c.EditImage(context.Background(), []Image{
		{MimeType: "image/jpeg", Data: []byte("one")},
		{MimeType: "image/jpeg", Data: []byte("two")},
	}, "make it pop")
	require.NoError(t, err)

	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, []byte("PNGDATA"), img.Data)

	require.Len(t, got.Contents, 1)
	parts := got.Contents[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, []byte("one"), parts[0].InlineData.Data)
	assert.Equal(t, []byte("two"), parts[1].InlineData.Data)
	assert.Equal(t, "make it pop", parts[2].Text)
	assert.Equal(t, []string{"IMAGE", "TEXT"}, got.GenerationConfig.ResponseModalities)
}

func TestEditImageTextOnlyReply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"I can't do that"}]}}]}`))
	})

	_, err := c.EditImage(context.Background(), []Image{{MimeType: "image/jpeg", Data: []byte("x")}}, "p")
	assert.ErrorIs(t, err, thumb.ErrNoImageReturned)
}

func TestEditImageHTTPFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota"}}`, http.StatusTooManyRequests)
	})

	_, err := c.EditImage(context.Background(), nil, "p")
	require.ErrorIs(t, err, thumb.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "429")
}

func TestEditImageTransportFailure(t *testing.T) {
	c := New(Options{BaseURL: "http://127.0.0.1:1"})
	_, err := c.EditImage(context.Background(), nil, "p")
	assert.ErrorIs(t, err, thumb.ErrGenerationFailed)
}

func TestEditImageMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})
	_, err := c.EditImage(context.Background(), nil, "p")
	assert.ErrorIs(t, err, thumb.ErrGenerationFailed)
}
