package interfaces

import (
	"context"

	"storypals-server/internal/models"
)

// ImageGenerator produces illustrations via an external image model.
// Implementations normalize the provider's response shape into a plain URL
// at the boundary and fail fast on unexpected payloads.
type ImageGenerator interface {
	// TextToImage renders an image from a text prompt. A non-zero seed makes
	// regeneration reproducible for identical input.
	TextToImage(ctx context.Context, prompt string, width, height, seed int) (string, error)

	// ImageToImage transforms sourceImageURL guided by prompt. strength is the
	// 0..1 "how much to change" scale of the underlying model.
	ImageToImage(ctx context.Context, sourceImageURL, prompt string, strength float64) (string, error)
}

// VideoGenerator animates a still illustration into a short clip.
type VideoGenerator interface {
	ImageToVideo(ctx context.Context, sourceImageURL, motionPrompt string) (string, error)
}

// SpeechSynthesizer covers narration audio and the voice catalog.
type SpeechSynthesizer interface {
	// Synthesize converts text to speech audio with the given voice.
	// An empty voiceID selects the provider's default narrator voice.
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)

	// ListVoices returns the curated subset of built-in voices plus any
	// user-cloned voices.
	ListVoices(ctx context.Context) ([]models.Voice, error)

	// AddVoice clones a voice from an audio sample and returns its ID.
	AddVoice(ctx context.Context, name string, sample []byte, sampleFilename string) (string, error)

	// RemoveVoice deletes a cloned voice.
	RemoveVoice(ctx context.Context, voiceID string) error
}

// MediaStore durably stores generated media bytes and returns a publicly
// resolvable URL. Optional: the pipeline passes provider URLs through when
// no store is configured.
type MediaStore interface {
	Store(ctx context.Context, key string, contentType string, data []byte) (string, error)
}

// GenerationLocker serializes generation runs per user: the lock is held from
// credit reservation to the terminal state of the run.
type GenerationLocker interface {
	// Acquire takes the per-user lock. Returns false when another run holds it.
	Acquire(ctx context.Context, userID string) (bool, error)
	// Release frees the per-user lock.
	Release(ctx context.Context, userID string) error
}
