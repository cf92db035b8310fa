package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storypals-server/internal/models"
)

// subscriberBuffer - размер буфера канала подписчика. Медленный подписчик
// теряет промежуточные снимки, но всегда получит последний.
const subscriberBuffer = 8

// runRetention - сколько терминальный ран остаётся в сторе после
// завершения. Окно покрывает поздний поллинг и повторное сохранение
// несохранённой истории, дальше ран вместе с собранной историей
// выбрасывается из памяти.
const runRetention = 30 * time.Minute

// runEntry - состояние одного рана внутри стора.
type runEntry struct {
	progress    models.RunProgress
	cancel      context.CancelFunc
	subscribers map[chan models.RunProgress]struct{}
}

// RunStore - сессионное хранилище ранов генерации. Раны живут в памяти
// процесса: после рестарта прогресс теряется, этого достаточно для
// интерактивного сценария.
type RunStore struct {
	logger    *zap.Logger
	retention time.Duration

	mu   sync.RWMutex
	runs map[string]*runEntry
}

// NewRunStore создает пустое хранилище ранов.
func NewRunStore(logger *zap.Logger) *RunStore {
	return &RunStore{
		logger:    logger.Named("RunStore"),
		retention: runRetention,
		runs:      make(map[string]*runEntry),
	}
}

// Create регистрирует новый ран пользователя и возвращает его идентификатор.
func (s *RunStore) Create(userID string, cancel context.CancelFunc) string {
	runID := uuid.NewString()
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[runID] = &runEntry{
		progress: models.RunProgress{
			RunID:     runID,
			UserID:    userID,
			Stage:     models.StageIdle,
			StartedAt: now,
			UpdatedAt: now,
		},
		cancel:      cancel,
		subscribers: make(map[chan models.RunProgress]struct{}),
	}
	return runID
}

// Get возвращает снимок прогресса рана. Чужой ран неотличим от
// несуществующего.
func (s *RunStore) Get(runID, userID string) (models.RunProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.runs[runID]
	if !ok || entry.progress.UserID != userID {
		return models.RunProgress{}, models.ErrRunNotFound
	}
	return entry.progress, nil
}

// Update применяет мутацию к прогрессу рана и рассылает снимок подписчикам.
func (s *RunStore) Update(runID string, mutate func(*models.RunProgress)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.runs[runID]
	if !ok {
		return
	}
	mutate(&entry.progress)
	entry.progress.UpdatedAt = time.Now()

	snapshot := entry.progress
	for ch := range entry.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Drain one stale snapshot so the latest always fits.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

// Subscribe подписывает на снимки прогресса рана. Возвращённая функция
// отписывает и закрывает канал; текущий снимок приходит первым.
func (s *RunStore) Subscribe(runID, userID string) (<-chan models.RunProgress, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.runs[runID]
	if !ok || entry.progress.UserID != userID {
		return nil, nil, models.ErrRunNotFound
	}

	ch := make(chan models.RunProgress, subscriberBuffer)
	ch <- entry.progress
	entry.subscribers[ch] = struct{}{}

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if e, ok := s.runs[runID]; ok {
			if _, subscribed := e.subscribers[ch]; subscribed {
				delete(e.subscribers, ch)
				close(ch)
			}
		}
	}
	return ch, unsubscribe, nil
}

// Cancel прерывает незавершённый ран пользователя.
func (s *RunStore) Cancel(runID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.runs[runID]
	if !ok || entry.progress.UserID != userID {
		return models.ErrRunNotFound
	}
	if entry.progress.Stage.Terminal() {
		return models.ErrRunNotCancelable
	}

	s.logger.Info("Canceling generation run",
		zap.String("run_id", runID),
		zap.String("stage", string(entry.progress.Stage)),
	)
	entry.cancel()
	return nil
}

// closeSubscribers закрывает все подписки рана и ставит его в очередь
// на выселение. Вызывается после достижения терминального состояния.
func (s *RunStore) closeSubscribers(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.runs[runID]
	if !ok {
		return
	}
	for ch := range entry.subscribers {
		delete(entry.subscribers, ch)
		close(ch)
	}

	time.AfterFunc(s.retention, func() { s.evict(runID) })
}

// evict удаляет терминальный ран из стора по истечении retention-окна.
func (s *RunStore) evict(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.runs[runID]
	if !ok {
		return
	}
	for ch := range entry.subscribers {
		delete(entry.subscribers, ch)
		close(ch)
	}
	delete(s.runs, runID)
	s.logger.Debug("Run evicted from session store", zap.String("run_id", runID))
}
