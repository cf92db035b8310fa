package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"storypals-server/internal/interfaces"
	"storypals-server/internal/models"
)

// Compile-time check to ensure pgStoryRepository implements StoryRepository
var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgStoryRepository creates a new PostgreSQL-backed StoryRepository.
func NewPgStoryRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("PgStoryRepo"),
	}
}

// storyRow - строка таблицы stories. Character/Pages/Prompt хранятся как JSONB,
// история со всеми страницами пишется одним INSERT, частичной записи страниц
// не бывает.
type storyRow struct {
	StoryID     string          `db:"story_id"`
	UserID      string          `db:"user_id"`
	Title       string          `db:"title"`
	Character   json.RawMessage `db:"character"`
	Pages       json.RawMessage `db:"pages"`
	Prompt      json.RawMessage `db:"prompt"`
	DateCreated time.Time       `db:"date_created"`
}

func (row *storyRow) toModel() (*models.CustomizedStory, error) {
	story := &models.CustomizedStory{
		StoryID:     row.StoryID,
		Title:       row.Title,
		DateCreated: row.DateCreated,
	}
	if err := json.Unmarshal(row.Character, &story.Character); err != nil {
		return nil, fmt.Errorf("failed to unmarshal character: %w", err)
	}
	if err := json.Unmarshal(row.Pages, &story.Pages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pages: %w", err)
	}
	if len(row.Prompt) > 0 && string(row.Prompt) != "null" {
		story.Prompt = &models.StoryPrompt{}
		if err := json.Unmarshal(row.Prompt, story.Prompt); err != nil {
			return nil, fmt.Errorf("failed to unmarshal prompt: %w", err)
		}
	}
	return story, nil
}

// Save inserts the assembled story in a single statement.
func (r *pgStoryRepository) Save(ctx context.Context, userID string, story *models.CustomizedStory) error {
	characterJSON, err := json.Marshal(story.Character)
	if err != nil {
		return fmt.Errorf("failed to marshal character: %w", err)
	}
	pagesJSON, err := json.Marshal(story.Pages)
	if err != nil {
		return fmt.Errorf("failed to marshal pages: %w", err)
	}
	var promptJSON []byte
	if story.Prompt != nil {
		promptJSON, err = json.Marshal(story.Prompt)
		if err != nil {
			return fmt.Errorf("failed to marshal prompt: %w", err)
		}
	}

	title := story.Title
	if title == "" {
		title = "Untitled Story"
	}

	query := `
		INSERT INTO stories (story_id, user_id, title, character, pages, prompt, date_created)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.db.Exec(ctx, query,
		story.StoryID, userID, title, characterJSON, pagesJSON, promptJSON, story.DateCreated)
	if err != nil {
		r.logger.Error("Failed to save story",
			zap.Error(err), zap.String("userID", userID), zap.String("storyID", story.StoryID))
		return fmt.Errorf("%w: failed to save story: %v", models.ErrStorageUnavailable, err)
	}
	r.logger.Info("Story saved",
		zap.String("userID", userID), zap.String("storyID", story.StoryID), zap.Int("pages", len(story.Pages)))
	return nil
}

// GetByID retrieves a story owned by the user.
func (r *pgStoryRepository) GetByID(ctx context.Context, userID, storyID string) (*models.CustomizedStory, error) {
	query := `
		SELECT story_id, user_id, title, character, pages, prompt, date_created
		FROM stories WHERE story_id = $1 AND user_id = $2`
	row := &storyRow{}
	err := r.db.QueryRow(ctx, query, storyID, userID).Scan(
		&row.StoryID, &row.UserID, &row.Title, &row.Character, &row.Pages, &row.Prompt, &row.DateCreated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story", zap.Error(err), zap.String("storyID", storyID))
		return nil, fmt.Errorf("%w: failed to get story: %v", models.ErrStorageUnavailable, err)
	}
	return row.toModel()
}

// ListByUser retrieves the user's stories, newest first.
func (r *pgStoryRepository) ListByUser(ctx context.Context, userID string) ([]*models.CustomizedStory, error) {
	query := `
		SELECT story_id, user_id, title, character, pages, prompt, date_created
		FROM stories WHERE user_id = $1
		ORDER BY date_created DESC`
	var rows []*storyRow
	if err := pgxscan.Select(ctx, r.db, &rows, query, userID); err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err), zap.String("userID", userID))
		return nil, fmt.Errorf("%w: failed to list stories: %v", models.ErrStorageUnavailable, err)
	}
	stories := make([]*models.CustomizedStory, 0, len(rows))
	for _, row := range rows {
		story, err := row.toModel()
		if err != nil {
			r.logger.Error("Failed to decode stored story", zap.Error(err), zap.String("storyID", row.StoryID))
			return nil, err
		}
		stories = append(stories, story)
	}
	return stories, nil
}

// Delete removes a story by story_id and user_id.
func (r *pgStoryRepository) Delete(ctx context.Context, userID, storyID string) error {
	query := `DELETE FROM stories WHERE story_id = $1 AND user_id = $2`
	tag, err := r.db.Exec(ctx, query, storyID, userID)
	if err != nil {
		r.logger.Error("Failed to delete story", zap.Error(err), zap.String("storyID", storyID))
		return fmt.Errorf("%w: failed to delete story: %v", models.ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	r.logger.Info("Story deleted", zap.String("userID", userID), zap.String("storyID", storyID))
	return nil
}
