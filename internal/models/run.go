package models

import "time"

// RunStage - этап конечного автомата генерации истории.
type RunStage string

const (
	StageIdle               RunStage = "idle"
	StageReservingCredit    RunStage = "reserving_credit"
	StageGeneratingPortrait RunStage = "generating_portrait"
	StageGeneratingText     RunStage = "generating_text"
	StagePaginating         RunStage = "paginating"
	StageGeneratingPages    RunStage = "generating_pages"
	StageAssembling         RunStage = "assembling"
	StagePersisting         RunStage = "persisting"
	StageDone               RunStage = "done"
	StageFailed             RunStage = "failed"
)

// Terminal сообщает, что ран завершён (успешно или нет).
func (s RunStage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// RunProgress - снимок состояния одного рана генерации, отдаваемый
// презентационному слою (поллинг или websocket-подписка).
// Частично сгенерированные страницы остаются видимыми и после сбоя.
type RunProgress struct {
	RunID       string           `json:"runId"`
	UserID      string           `json:"userId"`
	Stage       RunStage         `json:"stage"`
	PagesDone   int              `json:"pagesDone"`
	PagesTotal  int              `json:"pagesTotal"` // 0, пока пагинация не прошла
	Pages       []StoryPage      `json:"pages,omitempty"`
	Story       *CustomizedStory `json:"story,omitempty"` // заполняется на Done
	Unsaved     bool             `json:"unsaved"`         // история собрана, но не сохранена
	Error       string           `json:"error,omitempty"`
	FailedStage string           `json:"failedStage,omitempty"`
	FailedPage  int              `json:"failedPage,omitempty"`
	StartedAt   time.Time        `json:"startedAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}
