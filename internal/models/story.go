package models

import (
	"time"

	"github.com/google/uuid"
)

// Gender - пол персонажа, как его выбирает пользователь в форме.
type Gender string

const (
	GenderBoy     Gender = "boy"
	GenderGirl    Gender = "girl"
	GenderNeutral Gender = "neutral"
)

// ArtStyle - художественный стиль иллюстраций истории.
type ArtStyle string

const (
	ArtStyleWatercolor ArtStyle = "watercolor"
	ArtStyleCartoon    ArtStyle = "cartoon"
	ArtStylePixar      ArtStyle = "pixar"
	ArtStyleAnime      ArtStyle = "anime"
	ArtStyleStorybook  ArtStyle = "storybook"
)

// Character описывает главного героя истории.
// StyledImage заполняется один раз генератором портрета и после этого
// не изменяется до конца сессии.
type Character struct {
	Name        string   `json:"name"`
	Gender      Gender   `json:"gender"`
	Age         int      `json:"age"`
	Photo       string   `json:"photo,omitempty"`
	StyledImage string   `json:"styledImage,omitempty"`
	ArtStyle    ArtStyle `json:"artStyle"`
}

// Validate проверяет обязательные поля персонажа до начала платных операций.
func (c *Character) Validate() error {
	if c.Name == "" {
		return ErrValidation
	}
	switch c.Gender {
	case GenderBoy, GenderGirl, GenderNeutral:
	default:
		return ErrValidation
	}
	if c.Age < 3 || c.Age > 10 {
		return ErrValidation
	}
	switch c.ArtStyle {
	case ArtStyleWatercolor, ArtStyleCartoon, ArtStylePixar, ArtStyleAnime, ArtStyleStorybook:
	default:
		return ErrValidation
	}
	return nil
}

// StoryPrompt - параметры сюжета, введённые пользователем.
// Используются либо направляющие поля (Theme/Setting/...), либо CustomPrompt -
// выбор делается переключателем в UI, поля не смешиваются.
type StoryPrompt struct {
	Theme        string   `json:"theme,omitempty"`
	Setting      string   `json:"setting,omitempty"`
	Characters   []string `json:"characters,omitempty"`
	PlotElements []string `json:"plotElements,omitempty"`
	CustomPrompt string   `json:"customPrompt,omitempty"`
	VoiceID      string   `json:"voiceId,omitempty"`
}

// IsEmpty сообщает, что ни направляющие поля, ни произвольный промпт не заполнены.
func (p *StoryPrompt) IsEmpty() bool {
	return p.Theme == "" && p.Setting == "" && p.CustomPrompt == "" &&
		len(p.Characters) == 0 && len(p.PlotElements) == 0
}

// InteractionType - тип интерактивного элемента на странице.
type InteractionType string

const (
	InteractionClick InteractionType = "click"
	InteractionHover InteractionType = "hover"
	InteractionDrag  InteractionType = "drag"
)

// InteractionAction - действие, выполняемое интерактивным элементом.
type InteractionAction string

const (
	ActionSound     InteractionAction = "sound"
	ActionAnimation InteractionAction = "animation"
	ActionReveal    InteractionAction = "reveal"
)

// Position - координаты интерактивного элемента на странице (проценты).
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Interaction - декоративный интерактивный элемент страницы.
// Пайплайн генерации его не заполняет, поле остаётся для пресетов и будущих версий.
type Interaction struct {
	ID            string            `json:"id"`
	Type          InteractionType   `json:"type"`
	TargetElement string            `json:"targetElement"`
	Action        InteractionAction `json:"action"`
	Content       string            `json:"content"`
	Position      *Position         `json:"position,omitempty"`
}

// StoryPage - одна страница собранной истории. Страницы создаются
// оркестратором по одной на чанк текста и после создания неизменяемы.
// Video всегда сериализуется (null, если видео не сгенерировано).
type StoryPage struct {
	ID           int           `json:"id"`
	Text         string        `json:"text"`
	Image        string        `json:"image"`
	Video        *string       `json:"video"`
	Interactions []Interaction `json:"interactions,omitempty"`
}

// CustomizedStory - собранная персонализированная история.
type CustomizedStory struct {
	StoryID     string       `json:"storyId"`
	Character   Character    `json:"character"`
	Pages       []StoryPage  `json:"pages"`
	DateCreated time.Time    `json:"dateCreated"`
	Title       string       `json:"title,omitempty"`
	Prompt      *StoryPrompt `json:"prompt,omitempty"`
}

// NewStoryID возвращает уникальный идентификатор истории.
func NewStoryID() string {
	return uuid.NewString()
}

// PresetStory - готовая история из каталога, доступная без генерации.
type PresetStory struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CoverImage  string `json:"coverImage"`
	AgeRange    string `json:"ageRange"`
	IsPreset    bool   `json:"isPreset"`
}
