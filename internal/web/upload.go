package web

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"ai-thumbnail-pro/internal/thumb"
)

const uploadField = "images"

func readUploads(r *http.Request, maxBytes int64) ([]thumb.SourceImage, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, fmt.Errorf("%w: invalid multipart form: %v", errBadRequest, err)
	}

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		return nil, thumb.ErrNoSources
	}

	sources := make([]thumb.SourceImage, 0, len(headers))
	for _, h := range headers {
		src, err := readPart(h)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func readPart(h *multipart.FileHeader) (thumb.SourceImage, error) {
	f, err := h.Open()
	if err != nil {
		return thumb.SourceImage{}, fmt.Errorf("%w: open %s: %v", errBadRequest, h.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return thumb.SourceImage{}, fmt.Errorf("%w: read %s: %v", errBadRequest, h.Filename, err)
	}

	mimeType := detectMime(h.Header.Get("Content-Type"), data)
	if !strings.HasPrefix(mimeType, "image/") {
		return thumb.SourceImage{}, fmt.Errorf("%w: %s is %s", thumb.ErrImageDecode, h.Filename, mimeType)
	}

	return thumb.SourceImage{
		FileName: h.Filename,
		MimeType: mimeType,
		Size:     h.Size,
		Data:     data,
	}, nil
}

// detectMime trusts the declared type unless it is missing or generic.
func detectMime(declared string, data []byte) string {
	mimeType := stripParams(declared)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = stripParams(http.DetectContentType(data))
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/jpeg"
	}
	return mimeType
}

func stripParams(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return strings.ToLower(mimeType)
}
