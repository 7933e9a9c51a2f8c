package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ai-thumbnail-pro/internal/prefs"
	"ai-thumbnail-pro/internal/session"
	"ai-thumbnail-pro/internal/studio"
	"ai-thumbnail-pro/internal/thumb"
)

type apiError struct {
	Error   string              `json:"error"`
	History []thumb.ChatMessage `json:"history,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), apiError{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, thumb.ErrUnsupportedRatio),
		errors.Is(err, thumb.ErrImageDecode),
		errors.Is(err, thumb.ErrNoSources),
		errors.Is(err, studio.ErrEmptyMessage),
		errors.Is(err, session.ErrBadIndex),
		errors.Is(err, session.ErrNoThumbnails),
		errors.Is(err, prefs.ErrInvalidTheme),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrUnknownSession),
		errors.Is(err, session.ErrUnknownThumb):
		return http.StatusNotFound
	case errors.Is(err, thumb.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, thumb.ErrNoImageReturned),
		errors.Is(err, thumb.ErrGenerationFailed),
		errors.Is(err, thumb.ErrInvalidEnhancementFormat):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
