package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"storypals-server/internal/config"
	"storypals-server/internal/interfaces"
	"storypals-server/internal/models"
)

// Orchestrator ведёт ран генерации истории через все этапы: списание
// кредита, портрет, текст, пагинация, постраничное медиа, сборка,
// сохранение. Этапы строго последовательны, один ран - одна горутина.
type Orchestrator struct {
	logger    *zap.Logger
	credits   interfaces.CreditLedger
	locker    interfaces.GenerationLocker
	content   *StoryContentGenerator
	portrait  *PortraitGenerator
	pageMedia *PageMediaGenerator
	stories   interfaces.StoryRepository
	runs      *RunStore

	refundOnFailure bool
}

// NewOrchestrator создает оркестратор генерации историй.
func NewOrchestrator(
	credits interfaces.CreditLedger,
	locker interfaces.GenerationLocker,
	content *StoryContentGenerator,
	portrait *PortraitGenerator,
	pageMedia *PageMediaGenerator,
	stories interfaces.StoryRepository,
	runs *RunStore,
	cfg *config.Config,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		logger:          logger.Named("Orchestrator"),
		credits:         credits,
		locker:          locker,
		content:         content,
		portrait:        portrait,
		pageMedia:       pageMedia,
		stories:         stories,
		runs:            runs,
		refundOnFailure: cfg.RefundOnFailure,
	}
}

// Start валидирует вход, берёт пользовательский лок и запускает ран в
// отдельной горутине. Возвращает идентификатор рана для поллинга/подписки.
// Ничего платного до выхода из Start не происходит.
func (o *Orchestrator) Start(ctx context.Context, userID string, character models.Character, prompt models.StoryPrompt) (string, error) {
	if err := character.Validate(); err != nil {
		return "", err
	}
	if prompt.IsEmpty() {
		return "", models.ErrValidation
	}

	acquired, err := o.locker.Acquire(ctx, userID)
	if err != nil {
		return "", err
	}
	if !acquired {
		return "", models.ErrGenerationInProgress
	}

	// Ран переживает HTTP-запрос, поэтому живёт на собственном контексте.
	runCtx, cancel := context.WithCancel(context.Background())
	runID := o.runs.Create(userID, cancel)

	o.logger.Info("Starting generation run",
		zap.String("run_id", runID),
		zap.String("user_id", userID),
		zap.String("character", character.Name),
	)
	go o.run(runCtx, runID, userID, character, prompt)

	return runID, nil
}

// Progress возвращает снимок прогресса рана.
func (o *Orchestrator) Progress(runID, userID string) (models.RunProgress, error) {
	return o.runs.Get(runID, userID)
}

// Subscribe открывает поток снимков прогресса рана.
func (o *Orchestrator) Subscribe(runID, userID string) (<-chan models.RunProgress, func(), error) {
	return o.runs.Subscribe(runID, userID)
}

// Cancel прерывает ран между этапами. Текущий внешний вызов дорабатывает
// или обрывается своим контекстом, новые этапы не начинаются.
func (o *Orchestrator) Cancel(runID, userID string) error {
	return o.runs.Cancel(runID, userID)
}

// RetrySave повторяет только сохранение уже собранной истории.
func (o *Orchestrator) RetrySave(ctx context.Context, runID, userID string) (models.RunProgress, error) {
	progress, err := o.runs.Get(runID, userID)
	if err != nil {
		return models.RunProgress{}, err
	}
	if !progress.Unsaved || progress.Story == nil {
		return models.RunProgress{}, models.ErrBadRequest
	}

	if _, err := retryOnce(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, o.stories.Save(ctx, userID, progress.Story)
	}); err != nil {
		o.logger.Error("Story save retry failed", zap.String("run_id", runID), zap.Error(err))
		return models.RunProgress{}, err
	}

	o.runs.Update(runID, func(p *models.RunProgress) {
		p.Unsaved = false
		p.Error = ""
	})
	progress, _ = o.runs.Get(runID, userID)
	return progress, nil
}

// run исполняет конечный автомат одного рана. Списание кредита
// happens-before любой генерации; отмена проверяется между этапами.
func (o *Orchestrator) run(ctx context.Context, runID, userID string, character models.Character, prompt models.StoryPrompt) {
	log := o.logger.With(zap.String("run_id", runID), zap.String("user_id", userID))
	defer func() {
		// Лок держится до терминального состояния рана.
		if err := o.locker.Release(context.Background(), userID); err != nil {
			log.Error("Failed to release generation lock", zap.Error(err))
		}
		o.runs.closeSubscribers(runID)
	}()

	o.setStage(runID, models.StageReservingCredit)
	remaining, err := retryOnce(ctx, func(ctx context.Context) (int, error) {
		return o.credits.ReserveOne(ctx, userID)
	})
	if err != nil {
		// Кредит не списан, возвращать нечего.
		o.fail(runID, userID, log, err, false)
		return
	}
	log.Info("Credit reserved", zap.Int("remaining", remaining))

	if o.canceled(ctx, runID, userID, log) {
		return
	}

	o.setStage(runID, models.StageGeneratingPortrait)
	character.StyledImage = o.portrait.Generate(ctx, character)

	if o.canceled(ctx, runID, userID, log) {
		return
	}

	o.setStage(runID, models.StageGeneratingText)
	storyText, err := o.content.Generate(ctx, character, prompt)
	if err != nil {
		o.fail(runID, userID, log, err, true)
		return
	}

	if o.canceled(ctx, runID, userID, log) {
		return
	}

	o.setStage(runID, models.StagePaginating)
	chunks := Paginate(storyText)
	if len(chunks) == 0 {
		o.fail(runID, userID, log, models.NewGenerationError("story", errors.New("story text is empty")), true)
		return
	}
	o.runs.Update(runID, func(p *models.RunProgress) {
		p.Stage = models.StageGeneratingPages
		p.PagesTotal = len(chunks)
	})

	pages := make([]models.StoryPage, 0, len(chunks))
	for i, chunk := range chunks {
		if o.canceled(ctx, runID, userID, log) {
			return
		}

		pageNumber := i + 1
		media, err := o.pageMedia.Generate(ctx, character, character.StyledImage, chunk, pageNumber)
		if err != nil {
			// Готовые страницы остаются видимыми в прогрессе.
			o.fail(runID, userID, log, err, true)
			return
		}

		pages = append(pages, models.StoryPage{
			ID:           pageNumber,
			Text:         chunk,
			Image:        media.ImageURL,
			Video:        media.VideoURL,
			Interactions: []models.Interaction{},
		})
		snapshot := make([]models.StoryPage, len(pages))
		copy(snapshot, pages)
		o.runs.Update(runID, func(p *models.RunProgress) {
			p.PagesDone = pageNumber
			p.Pages = snapshot
		})
	}

	if o.canceled(ctx, runID, userID, log) {
		return
	}

	o.setStage(runID, models.StageAssembling)
	promptCopy := prompt
	story := models.CustomizedStory{
		StoryID:     models.NewStoryID(),
		Character:   character,
		Pages:       pages,
		DateCreated: time.Now(),
		Prompt:      &promptCopy,
	}

	o.setStage(runID, models.StagePersisting)
	if _, err := retryOnce(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, o.stories.Save(ctx, userID, &story)
	}); err != nil {
		// История собрана и оплачена: держим её в сессии до явного
		// повторного сохранения, кредит не возвращаем.
		log.Error("Story persist failed, keeping story unsaved", zap.Error(err))
		o.runs.Update(runID, func(p *models.RunProgress) {
			p.Stage = models.StageDone
			p.Story = &story
			p.Unsaved = true
			p.Error = err.Error()
		})
		return
	}

	log.Info("Generation run finished", zap.String("story_id", story.StoryID), zap.Int("pages", len(pages)))
	o.runs.Update(runID, func(p *models.RunProgress) {
		p.Stage = models.StageDone
		p.Story = &story
	})
}

// setStage переводит ран на следующий этап.
func (o *Orchestrator) setStage(runID string, stage models.RunStage) {
	o.runs.Update(runID, func(p *models.RunProgress) {
		p.Stage = stage
	})
}

// canceled проверяет отмену рана между этапами.
func (o *Orchestrator) canceled(ctx context.Context, runID, userID string, log *zap.Logger) bool {
	if ctx.Err() == nil {
		return false
	}
	log.Info("Generation run canceled")
	o.fail(runID, userID, log, ctx.Err(), true)
	return true
}

// fail переводит ран в терминальное состояние Failed. reserved сообщает,
// был ли к этому моменту списан кредит - от этого зависит политика возврата.
func (o *Orchestrator) fail(runID, userID string, log *zap.Logger, cause error, reserved bool) {
	if reserved && o.refundOnFailure {
		o.refund(log, userID)
	}

	var genErr *models.GenerationError
	failedStage := ""
	failedPage := 0
	if errors.As(cause, &genErr) {
		failedStage = genErr.Stage
		failedPage = genErr.Page
	}

	log.Warn("Generation run failed", zap.Error(cause))
	o.runs.Update(runID, func(p *models.RunProgress) {
		p.Stage = models.StageFailed
		p.Error = cause.Error()
		p.FailedStage = failedStage
		p.FailedPage = failedPage
	})
}

// refund возвращает один кредит после сбоя оплаченного рана.
func (o *Orchestrator) refund(log *zap.Logger, userID string) {
	if _, err := retryOnce(context.Background(), func(ctx context.Context) (int, error) {
		return o.credits.Credit(ctx, userID, 1)
	}); err != nil {
		log.Error("Credit refund failed", zap.Error(err))
		return
	}
	log.Info("Credit refunded after failed run")
}
