package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storypals-server/internal/config"
	"storypals-server/internal/mocks"
	"storypals-server/internal/models"
	"storypals-server/internal/service"
)

const testUserID = "user-1"

// testPipeline собирает оркестратор на моках внешних зависимостей.
type testPipeline struct {
	orch    *service.Orchestrator
	ai      *mocks.MockAIClient
	images  *mocks.MockImageGenerator
	videos  *mocks.MockVideoGenerator
	credits *mocks.MockCreditLedger
	locker  *mocks.MockGenerationLocker
	stories *mocks.MockStoryRepository
}

func newTestPipeline(t *testing.T, cfg *config.Config) *testPipeline {
	t.Helper()
	logger := zap.NewNop()

	p := &testPipeline{
		ai:      &mocks.MockAIClient{},
		images:  &mocks.MockImageGenerator{},
		videos:  &mocks.MockVideoGenerator{},
		credits: &mocks.MockCreditLedger{},
		locker:  &mocks.MockGenerationLocker{},
		stories: &mocks.MockStoryRepository{},
	}

	content := service.NewStoryContentGenerator(p.ai, logger)
	portrait := service.NewPortraitGenerator(p.images, cfg, logger)
	pageMedia := service.NewPageMediaGenerator(p.ai, p.images, p.videos, nil, cfg, logger)
	runs := service.NewRunStore(logger)
	p.orch = service.NewOrchestrator(p.credits, p.locker, content, portrait, pageMedia, p.stories, runs, cfg, logger)

	return p
}

func testConfig() *config.Config {
	return &config.Config{
		ImageWidth:      768,
		ImageHeight:     512,
		InferenceSteps:  30,
		GuidanceScale:   7.5,
		PlaceholderBase: "https://placeholder.example/storybook",
	}
}

func testCharacter() models.Character {
	return models.Character{
		Name:     "Мия",
		Gender:   models.GenderGirl,
		Age:      6,
		ArtStyle: models.ArtStyleStorybook,
	}
}

// storyText - два абзаца по 60 слов: пагинатор даст ровно две страницы.
func storyText() string {
	paragraph := strings.TrimSpace(strings.Repeat("слово ", 60))
	return paragraph + "\n\n" + paragraph
}

func isStoryPrompt(s string) bool { return strings.Contains(s, "story writer") }
func isScenePrompt(s string) bool { return strings.Contains(s, "describing scenes") }

func (p *testPipeline) expectHappyBase() {
	p.locker.On("Acquire", mock.Anything, testUserID).Return(true, nil).Once()
	p.locker.On("Release", mock.Anything, testUserID).Return(nil).Once()
	p.credits.On("ReserveOne", mock.Anything, testUserID).Return(4, nil).Once()

	// Портрет: персонаж без фото, text-to-image с фиксированным seed.
	p.images.On("TextToImage", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "portrait-style")
	}), 768, 512, 1000).Return("portrait-url", nil).Once()

	p.ai.On("GenerateText", mock.Anything, mock.MatchedBy(isStoryPrompt), mock.Anything, mock.Anything).
		Return(storyText(), nil).Once()
	p.ai.On("GenerateText", mock.Anything, mock.MatchedBy(isScenePrompt), mock.Anything, mock.Anything).
		Return("a scene description", nil).Twice()
}

func (p *testPipeline) waitForStage(t *testing.T, runID string, stage models.RunStage) models.RunProgress {
	t.Helper()
	var progress models.RunProgress
	require.Eventually(t, func() bool {
		snapshot, err := p.orch.Progress(runID, testUserID)
		if err != nil {
			return false
		}
		progress = snapshot
		return progress.Stage == stage
	}, 3*time.Second, 10*time.Millisecond)
	return progress
}

func TestOrchestrator_HappyPath(t *testing.T) {
	p := newTestPipeline(t, testConfig())
	p.expectHappyBase()

	p.images.On("ImageToImage", mock.Anything, "portrait-url", mock.Anything, 0.90).
		Return("img-1", nil).Once()
	p.images.On("ImageToImage", mock.Anything, "portrait-url", mock.Anything, 0.90).
		Return("img-2", nil).Once()
	p.videos.On("ImageToVideo", mock.Anything, "img-1", "a scene description").Return("vid-1", nil).Once()
	p.videos.On("ImageToVideo", mock.Anything, "img-2", "a scene description").Return("vid-2", nil).Once()
	p.stories.On("Save", mock.Anything, testUserID, mock.Anything).Return(nil).Once()

	runID, err := p.orch.Start(context.Background(), testUserID, testCharacter(), models.StoryPrompt{Theme: "дружба"})
	require.NoError(t, err)

	progress := p.waitForStage(t, runID, models.StageDone)
	require.NotNil(t, progress.Story)
	assert.False(t, progress.Unsaved)
	assert.Equal(t, "portrait-url", progress.Story.Character.StyledImage)

	require.Len(t, progress.Story.Pages, 2)
	for i, page := range progress.Story.Pages {
		assert.Equal(t, i+1, page.ID)
		require.NotNil(t, page.Video)
	}
	assert.Equal(t, "img-1", progress.Story.Pages[0].Image)
	assert.Equal(t, "img-2", progress.Story.Pages[1].Image)
	assert.Equal(t, "vid-1", *progress.Story.Pages[0].Video)
	assert.Equal(t, "vid-2", *progress.Story.Pages[1].Video)

	// Все страницы рисовались с одного и того же портретного референса.
	for _, call := range p.images.Calls {
		if call.Method == "ImageToImage" {
			assert.Equal(t, "portrait-url", call.Arguments.String(1))
		}
	}

	p.stories.AssertExpectations(t)
	p.locker.AssertExpectations(t)
}

func TestOrchestrator_InsufficientCredits_NoGenerationCalls(t *testing.T) {
	p := newTestPipeline(t, testConfig())
	p.locker.On("Acquire", mock.Anything, testUserID).Return(true, nil).Once()
	p.locker.On("Release", mock.Anything, testUserID).Return(nil).Once()
	p.credits.On("ReserveOne", mock.Anything, testUserID).
		Return(0, models.ErrInsufficientCredits).Once()

	runID, err := p.orch.Start(context.Background(), testUserID, testCharacter(), models.StoryPrompt{Theme: "дружба"})
	require.NoError(t, err)

	progress := p.waitForStage(t, runID, models.StageFailed)
	assert.Contains(t, progress.Error, "insufficient credits")

	// Ни одного платного вызова генерации не было.
	assert.Empty(t, p.ai.Calls)
	assert.Empty(t, p.images.Calls)
	assert.Empty(t, p.videos.Calls)
}

func TestOrchestrator_GenerationInProgress(t *testing.T) {
	p := newTestPipeline(t, testConfig())
	p.locker.On("Acquire", mock.Anything, testUserID).Return(false, nil).Once()

	_, err := p.orch.Start(context.Background(), testUserID, testCharacter(), models.StoryPrompt{Theme: "дружба"})
	assert.ErrorIs(t, err, models.ErrGenerationInProgress)
}

func TestOrchestrator_EmptyPromptRejectedBeforePaidCalls(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	_, err := p.orch.Start(context.Background(), testUserID, testCharacter(), models.StoryPrompt{})
	assert.ErrorIs(t, err, models.ErrValidation)

	// Ни лок, ни резервация кредита не затрагивались.
	assert.Empty(t, p.locker.Calls)
	p.credits.AssertNotCalled(t, "ReserveOne", mock.Anything, testUserID)
	assert.Empty(t, p.ai.Calls)
}

func TestOrchestrator_InvalidCharacterRejectedBeforeLock(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	character := testCharacter()
	character.Age = 99
	_, err := p.orch.Start(context.Background(), testUserID, character, models.StoryPrompt{Theme: "дружба"})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Empty(t, p.locker.Calls)
}

func TestOrchestrator_VideoFailureDegradesToImage(t *testing.T) {
	p := newTestPipeline(t, testConfig())
	p.expectHappyBase()

	p.images.On("ImageToImage", mock.Anything, "portrait-url", mock.Anything, 0.90).
		Return("img-1", nil).Twice()
	p.videos.On("ImageToVideo", mock.Anything, "img-1", mock.Anything).
		Return("", errors.New("video model overloaded")).Twice()
	p.stories.On("Save", mock.Anything, testUserID, mock.Anything).Return(nil).Once()

	runID, err := p.orch.Start(context.Background(), testUserID, testCharacter(), models.StoryPrompt{Theme: "дружба"})
	require.NoError(t, err)

	progress := p.waitForStage(t, runID, models.StageDone)
	require.NotNil(t, progress.Story)
	require.Len(t, progress.Story.Pages, 2)
	for _, page := range progress.Story.Pages {
		assert.Nil(t, page.Video)
		assert.Equal(t, "img-1", page.Image)
	}
}

func TestOrchestrator_ImageFailureAbortsKeepingEarlierPages(t *testing.T) {
	p := newTestPipeline(t, testConfig())
	p.expectHappyBase()

	p.images.On("ImageToImage", mock.Anything, "portrait-url", mock.Anything, 0.90).
		Return("img-1", nil).Once()
	p.images.On("ImageToImage", mock.Anything, "portrait-url", mock.Anything, 0.90).
		Return("", errors.New("image model down")).Once()
	p.videos.On("ImageToVideo", mock.Anything, "img-1", mock.Anything).Return("vid-1", nil).Once()

	runID, err := p.orch.Start(context.Background(), testUserID, testCharacter(), models.StoryPrompt{Theme: "дружба"})
	require.NoError(t, err)

	progress := p.waitForStage(t, runID, models.StageFailed)
	assert.Equal(t, "image", progress.FailedStage)
	assert.Equal(t, 2, progress.FailedPage)

	// Первая страница остаётся видимой.
	require.Len(t, progress.Pages, 1)
	assert.Equal(t, 1, progress.Pages[0].ID)
	assert.Equal(t, "img-1", progress.Pages[0].Image)

	// История не сохранялась.
	assert.Empty(t, p.stories.Calls)
}

func TestOrchestrator_RefundOnFailurePolicy(t *testing.T) {
	t.Run("enabled refunds the reserved credit", func(t *testing.T) {
		cfg := testConfig()
		cfg.RefundOnFailure = true
		p := newTestPipeline(t, cfg)

		p.locker.On("Acquire", mock.Anything, testUserID).Return(true, nil).Once()
		p.locker.On("Release", mock.Anything, testUserID).Return(nil).Once()
		p.credits.On("ReserveOne", mock.Anything, testUserID).Return(0, nil).Once()
		p.credits.On("Credit", mock.Anything, testUserID, 1).Return(1, nil).Once()
		p.images.On("TextToImage", mock.Anything, mock.Anything, 768, 512, 1000).Return("portrait-url", nil)
		p.ai.On("GenerateText", mock.Anything, mock.MatchedBy(isStoryPrompt), mock.Anything, mock.Anything).
			Return("", errors.New("model unavailable")).Once()

		runID, err := p.orch.Start(context.Background(), testUserID, testCharacter(), models.StoryPrompt{Theme: "дружба"})
		require.NoError(t, err)

		progress := p.waitForStage(t, runID, models.StageFailed)
		assert.Equal(t, "story", progress.FailedStage)
		p.credits.AssertCalled(t, "Credit", mock.Anything, testUserID, 1)
	})

	t.Run("disabled keeps the consumed credit", func(t *testing.T) {
		p := newTestPipeline(t, testConfig())

		p.locker.On("Acquire", mock.Anything, testUserID).Return(true, nil).Once()
		p.locker.On("Release", mock.Anything, testUserID).Return(nil).Once()
		p.credits.On("ReserveOne", mock.Anything, testUserID).Return(0, nil).Once()
		p.images.On("TextToImage", mock.Anything, mock.Anything, 768, 512, 1000).Return("portrait-url", nil)
		p.ai.On("GenerateText", mock.Anything, mock.MatchedBy(isStoryPrompt), mock.Anything, mock.Anything).
			Return("", errors.New("model unavailable")).Once()

		runID, err := p.orch.Start(context.Background(), testUserID, testCharacter(), models.StoryPrompt{Theme: "дружба"})
		require.NoError(t, err)

		p.waitForStage(t, runID, models.StageFailed)
		for _, call := range p.credits.Calls {
			assert.NotEqual(t, "Credit", call.Method)
		}
	})
}

func TestOrchestrator_CancelBetweenStages(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	p.locker.On("Acquire", mock.Anything, testUserID).Return(true, nil).Once()
	p.locker.On("Release", mock.Anything, testUserID).Return(nil).Once()
	p.credits.On("ReserveOne", mock.Anything, testUserID).Return(4, nil).Once()
	p.images.On("TextToImage", mock.Anything, mock.Anything, 768, 512, 1000).Return("portrait-url", nil)

	release := make(chan struct{})
	p.ai.On("GenerateText", mock.Anything, mock.MatchedBy(isStoryPrompt), mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(storyText(), nil).Once()

	runID, err := p.orch.Start(context.Background(), testUserID, testCharacter(), models.StoryPrompt{Theme: "дружба"})
	require.NoError(t, err)

	p.waitForStage(t, runID, models.StageGeneratingText)
	require.NoError(t, p.orch.Cancel(runID, testUserID))
	close(release)

	p.waitForStage(t, runID, models.StageFailed)

	// Пагинация и страницы после отмены не начинались.
	assert.Empty(t, p.images.Calls)

	// Терминальный ран повторно не отменяется.
	assert.ErrorIs(t, p.orch.Cancel(runID, testUserID), models.ErrRunNotCancelable)
}

func TestOrchestrator_PersistFailureKeepsStoryForRetry(t *testing.T) {
	cfg := testConfig()
	cfg.DebugFastMode = true // видео в этом сценарии не важно
	p := newTestPipeline(t, cfg)
	p.expectHappyBase()

	p.images.On("ImageToImage", mock.Anything, "portrait-url", mock.Anything, 0.90).
		Return("img-1", nil).Twice()

	storageErr := fmt.Errorf("%w: connection refused", models.ErrStorageUnavailable)
	p.stories.On("Save", mock.Anything, testUserID, mock.Anything).Return(storageErr).Twice()

	runID, err := p.orch.Start(context.Background(), testUserID, testCharacter(), models.StoryPrompt{Theme: "дружба"})
	require.NoError(t, err)

	progress := p.waitForStage(t, runID, models.StageDone)
	require.NotNil(t, progress.Story)
	assert.True(t, progress.Unsaved)
	assert.NotEmpty(t, progress.Error)

	// Повторное сохранение пишет ту же историю и снимает флаг.
	p.stories.On("Save", mock.Anything, testUserID, mock.Anything).Return(nil).Once()
	retried, err := p.orch.RetrySave(context.Background(), runID, testUserID)
	require.NoError(t, err)
	assert.False(t, retried.Unsaved)
	assert.Empty(t, retried.Error)

	p.stories.AssertExpectations(t)
}

func TestOrchestrator_RetrySaveRejectsSavedRun(t *testing.T) {
	cfg := testConfig()
	cfg.DebugFastMode = true
	p := newTestPipeline(t, cfg)
	p.expectHappyBase()

	p.images.On("ImageToImage", mock.Anything, "portrait-url", mock.Anything, 0.90).
		Return("img-1", nil).Twice()
	p.stories.On("Save", mock.Anything, testUserID, mock.Anything).Return(nil).Once()

	runID, err := p.orch.Start(context.Background(), testUserID, testCharacter(), models.StoryPrompt{Theme: "дружба"})
	require.NoError(t, err)
	p.waitForStage(t, runID, models.StageDone)

	_, err = p.orch.RetrySave(context.Background(), runID, testUserID)
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestOrchestrator_ProgressHiddenFromOtherUsers(t *testing.T) {
	cfg := testConfig()
	cfg.DebugFastMode = true
	p := newTestPipeline(t, cfg)
	p.expectHappyBase()

	p.images.On("ImageToImage", mock.Anything, "portrait-url", mock.Anything, 0.90).
		Return("img-1", nil).Twice()
	p.stories.On("Save", mock.Anything, testUserID, mock.Anything).Return(nil).Once()

	runID, err := p.orch.Start(context.Background(), testUserID, testCharacter(), models.StoryPrompt{Theme: "дружба"})
	require.NoError(t, err)
	p.waitForStage(t, runID, models.StageDone)

	_, err = p.orch.Progress(runID, "someone-else")
	assert.ErrorIs(t, err, models.ErrRunNotFound)
}
