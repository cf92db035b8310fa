package interfaces

import (
	"context"

	"storypals-server/internal/models"
)

// StoryRepository persists assembled stories.
// A story's pages are written in a single statement: either the full set of
// pages exists, or the story does not exist in the repository.
type StoryRepository interface {
	// Save inserts a fully assembled story for the user.
	Save(ctx context.Context, userID string, story *models.CustomizedStory) error

	// GetByID retrieves a story owned by the user.
	// Returns models.ErrStoryNotFound if it does not exist.
	GetByID(ctx context.Context, userID, storyID string) (*models.CustomizedStory, error)

	// ListByUser retrieves the user's stories ordered by date_created descending.
	ListByUser(ctx context.Context, userID string) ([]*models.CustomizedStory, error)

	// Delete removes a story by story_id and user_id.
	// Returns models.ErrStoryNotFound when nothing matched.
	Delete(ctx context.Context, userID, storyID string) error
}

// ProcessedEventRepository records externally delivered event IDs so that
// webhook retries do not repeat their side effects.
type ProcessedEventRepository interface {
	// MarkProcessed records the event ID. Returns false when the event was
	// already recorded (duplicate delivery).
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
}
