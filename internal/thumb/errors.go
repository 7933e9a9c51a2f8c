package thumb

import "errors"

var (
	ErrUnsupportedRatio         = errors.New("unsupported aspect ratio")
	ErrImageDecode              = errors.New("image decode failed")
	ErrCanvasAllocation         = errors.New("canvas allocation failed")
	ErrNoImageReturned          = errors.New("AI did not return an image. It might have refused the request")
	ErrInvalidEnhancementFormat = errors.New("AI returned an invalid format for prompt suggestions")
	ErrGenerationFailed         = errors.New("failed to generate image")

	ErrNoSources = errors.New("please upload an image first")
	ErrBusy      = errors.New("session is busy with another request")
)
