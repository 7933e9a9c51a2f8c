package web

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ai-thumbnail-pro/internal/prefs"
	"ai-thumbnail-pro/internal/prompt"
	"ai-thumbnail-pro/internal/session"
	"ai-thumbnail-pro/internal/thumb"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ratioOption struct {
	Value  thumb.AspectRatio `json:"value"`
	Label  string            `json:"label"`
	Width  int               `json:"width"`
	Height int               `json:"height"`
}

type catalogResponse struct {
	VideoTypes   []thumb.NamedOption `json:"videoTypes"`
	Styles       []thumb.NamedOption `json:"styles"`
	Placements   []thumb.NamedOption `json:"placements"`
	AspectRatios []ratioOption       `json:"aspectRatios"`
	Defaults     thumb.Answers       `json:"defaults"`
}

type uploadedFile struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

type uploadResponse struct {
	SessionKey string              `json:"sessionKey"`
	Files      []uploadedFile      `json:"files"`
	History    []thumb.ChatMessage `json:"history"`
}

type thumbnailDTO struct {
	thumb.Thumbnail
	URL      string `json:"url"`
	FileName string `json:"fileName"`
}

type viewResponse struct {
	SessionKey string              `json:"sessionKey"`
	Answers    thumb.Answers       `json:"answers"`
	Thumbnails []thumbnailDTO      `json:"thumbnails"`
	Active     int                 `json:"active"`
	Refining   bool                `json:"refining"`
	History    []thumb.ChatMessage `json:"history,omitempty"`
}

type selectRequest struct {
	Index int `json:"index"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Thumbnail thumbnailDTO        `json:"thumbnail"`
	History   []thumb.ChatMessage `json:"history"`
}

type themeBody struct {
	Theme prefs.Theme `json:"theme"`
}

type draftRequest struct {
	Fields prompt.DraftFields `json:"fields"`
	Draft  prompt.Draft       `json:"draft"`
	// Edit, when set, records a manual edit before refreshing.
	Edit *string `json:"edit,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !s.auth.Check(req.Email, req.Password) {
		s.logger.Warn().Str("email", req.Email).Msg("login rejected")
		writeJSON(w, http.StatusUnauthorized, apiError{Error: "Invalid email or password."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	resp := catalogResponse{
		VideoTypes: thumb.VideoTypeOptions(),
		Styles:     thumb.StyleOptions(),
		Placements: thumb.PlacementOptions(),
		Defaults:   thumb.DefaultAnswers(),
	}
	for _, ar := range thumb.AspectRatios() {
		width, height, _ := ar.Dimensions()
		resp.AspectRatios = append(resp.AspectRatios, ratioOption{Value: ar, Label: ar.Label(), Width: width, Height: height})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	sources, err := readUploads(r, s.maxUploadBytes)
	if err != nil {
		writeError(w, err)
		return
	}

	key, history, err := s.studio.Upload(r.Context(), sources)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := uploadResponse{SessionKey: key, History: history}
	for _, src := range sources {
		resp.Files = append(resp.Files, uploadedFile{Name: src.FileName, Size: src.Size, MimeType: src.MimeType})
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	draft := req.Draft
	if req.Edit != nil {
		draft = draft.Edit(*req.Edit)
	}
	writeJSON(w, http.StatusOK, draft.Refresh(req.Fields))
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := s.themes.Get(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("theme lookup failed")
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: theme})
}

func (s *Server) handlePutTheme(w http.ResponseWriter, r *http.Request) {
	var body themeBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := s.themes.Set(r.Context(), body.Theme); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}
	view, err := s.studio.View(key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toViewResponse(view, nil))
}

func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}
	a, err := decodeAnswers(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	prompts, err := s.studio.Enhance(ctx, key, a)
	if err != nil {
		writeError(w, err)
		return
	}
	if prompts == nil {
		prompts = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"prompts": prompts})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}
	a, err := decodeAnswers(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	view, history, err := s.studio.Generate(ctx, key, a)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toViewResponse(view, history))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.studio.Select(key, req.Index); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	t, history, err := s.studio.Refine(ctx, key, req.Message)
	if err != nil {
		writeJSON(w, statusFor(err), apiError{Error: err.Error(), History: history})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Thumbnail: toDTO(key, t), History: history})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}
	history, err := s.studio.History(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]thumb.ChatMessage{"history": history})
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	key, ok := s.sessionKey(w, r)
	if !ok {
		return
	}
	t, err := s.studio.Thumbnail(key, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	disposition := "inline"
	if r.URL.Query().Get("download") != "" {
		disposition = "attachment"
	}
	w.Header().Set("content-type", t.MimeType)
	w.Header().Set("content-length", strconv.Itoa(len(t.Data)))
	w.Header().Set("content-disposition", fmt.Sprintf("%s; filename=%q", disposition, t.FileName()))
	w.Header().Set("etag", fmt.Sprintf(`"%s-%d"`, t.ID, t.Revision))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(t.Data)
}

func (s *Server) sessionKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "key")
	key, err := url.PathUnescape(raw)
	if err != nil || !session.ValidKey(key) {
		writeError(w, session.ErrUnknownSession)
		return "", false
	}
	return key, true
}

// decodeAnswers fills unspecified fields from the defaults and canonicalises
// the ratio tag.
// answersRequest also accepts the older list form "aspectRatios"; only its
// first entry is used.
type answersRequest struct {
	thumb.Answers
	AspectRatios []string `json:"aspectRatios"`
}

func decodeAnswers(r *http.Request) (thumb.Answers, error) {
	req := answersRequest{Answers: thumb.DefaultAnswers()}
	req.AspectRatio = ""
	if err := decodeJSON(r, &req); err != nil {
		return thumb.Answers{}, err
	}
	a := req.Answers

	switch {
	case a.AspectRatio != "":
	case len(req.AspectRatios) > 0:
		a.AspectRatio = thumb.AspectRatio(req.AspectRatios[0])
	default:
		a.AspectRatio = thumb.DefaultAnswers().AspectRatio
	}

	ratio, err := thumb.ParseAspectRatio(string(a.AspectRatio))
	if err != nil {
		return thumb.Answers{}, err
	}
	a.AspectRatio = ratio

	if p, ok := thumb.LookupPlacement(a.Placement); ok {
		a.Placement = p
	} else {
		return thumb.Answers{}, fmt.Errorf("%w: unknown placement %q", errBadRequest, a.Placement)
	}
	a.VideoType = strings.TrimSpace(a.VideoType)
	a.Style = strings.TrimSpace(a.Style)
	return a, nil
}

func toDTO(key string, t thumb.Thumbnail) thumbnailDTO {
	return thumbnailDTO{
		Thumbnail: t,
		URL:       "/api/sessions/" + url.PathEscape(key) + "/thumbnails/" + url.PathEscape(t.ID),
		FileName:  t.FileName(),
	}
}

func toViewResponse(v session.View, history []thumb.ChatMessage) viewResponse {
	resp := viewResponse{
		SessionKey: v.Key,
		Answers:    v.Answers,
		Thumbnails: make([]thumbnailDTO, 0, len(v.Thumbnails)),
		Active:     v.Active,
		Refining:   v.Refining,
		History:    history,
	}
	for _, t := range v.Thumbnails {
		resp.Thumbnails = append(resp.Thumbnails, toDTO(v.Key, t))
	}
	return resp
}
