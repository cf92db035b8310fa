package models

import (
	"errors"
	"fmt"
)

// Application-wide standard errors
var (
	// Credits & payments
	ErrInsufficientCredits       = errors.New("insufficient credits")
	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")

	// Generation pipeline
	ErrGenerationFailed     = errors.New("generation failed")
	ErrGenerationInProgress = errors.New("generation is already in progress for this user")
	ErrNarrationUnavailable = errors.New("narration is unavailable")
	ErrRunNotFound          = errors.New("generation run not found")
	ErrRunNotCancelable     = errors.New("generation run is not cancelable in its current state")

	// Persistence
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStoryNotFound      = errors.New("story not found")

	// Auth
	ErrUnauthorized   = errors.New("unauthorized")
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("token is malformed")

	// General request errors
	ErrValidation = errors.New("invalid input data")
	ErrBadRequest = errors.New("bad request")
)

// GenerationError несёт этап (и страницу, если применимо), на котором
// упал пайплайн генерации. Оборачивает ErrGenerationFailed, так что
// errors.Is(err, ErrGenerationFailed) продолжает работать.
type GenerationError struct {
	Stage string // "portrait", "story", "scene", "image", "video"
	Page  int    // 0, если этап не постраничный
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("generation failed at stage %q (page %d): %v", e.Stage, e.Page, e.Err)
	}
	return fmt.Sprintf("generation failed at stage %q: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return ErrGenerationFailed }

// NewGenerationError создает GenerationError для этапа без привязки к странице.
func NewGenerationError(stage string, err error) *GenerationError {
	return &GenerationError{Stage: stage, Err: err}
}

// NewPageGenerationError создает GenerationError для постраничного этапа.
func NewPageGenerationError(stage string, page int, err error) *GenerationError {
	return &GenerationError{Stage: stage, Page: page, Err: err}
}
