package models

// VoiceCategory - категория голоса в каталоге провайдера озвучки.
type VoiceCategory string

const (
	VoiceCategoryPremade VoiceCategory = "premade"
	VoiceCategoryCloned  VoiceCategory = "cloned"
)

// Voice - голос из каталога провайдера озвучки.
type Voice struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Category VoiceCategory `json:"category"`
}
