package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storypals-server/internal/models"
)

func finishedRun(s *RunStore, userID string) string {
	runID := s.Create(userID, func() {})
	s.Update(runID, func(p *models.RunProgress) {
		p.Stage = models.StageDone
		p.Story = &models.CustomizedStory{StoryID: models.NewStoryID()}
	})
	s.closeSubscribers(runID)
	return runID
}

func TestRunStore_TerminalRunSurvivesRetentionWindow(t *testing.T) {
	s := NewRunStore(zap.NewNop())
	runID := finishedRun(s, "user-1")

	// Внутри retention-окна ран доступен для поллинга и повторного сохранения.
	progress, err := s.Get(runID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.StageDone, progress.Stage)
	require.NotNil(t, progress.Story)
}

func TestRunStore_EvictsTerminalRuns(t *testing.T) {
	s := NewRunStore(zap.NewNop())
	s.retention = 20 * time.Millisecond

	runID := finishedRun(s, "user-1")

	require.Eventually(t, func() bool {
		_, err := s.Get(runID, "user-1")
		return err != nil
	}, time.Second, 5*time.Millisecond)

	_, err := s.Get(runID, "user-1")
	assert.ErrorIs(t, err, models.ErrRunNotFound)
	assert.ErrorIs(t, s.Cancel(runID, "user-1"), models.ErrRunNotFound)
	_, _, err = s.Subscribe(runID, "user-1")
	assert.ErrorIs(t, err, models.ErrRunNotFound)
}

func TestRunStore_EvictionClosesLateSubscribers(t *testing.T) {
	s := NewRunStore(zap.NewNop())
	s.retention = 20 * time.Millisecond

	runID := s.Create("user-1", func() {})
	s.Update(runID, func(p *models.RunProgress) { p.Stage = models.StageDone })
	s.closeSubscribers(runID)

	// Подписка на терминальный ран внутри retention-окна всё ещё возможна.
	ch, unsubscribe, err := s.Subscribe(runID, "user-1")
	require.NoError(t, err)
	defer unsubscribe()

	// Первым приходит снимок, затем выселение закрывает канал.
	snapshot := <-ch
	assert.Equal(t, models.StageDone, snapshot.Stage)

	require.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
