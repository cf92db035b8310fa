// Package mocks содержит testify-моки интерфейсов для юнит-тестов.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storypals-server/internal/interfaces"
	"storypals-server/internal/models"
	"storypals-server/internal/service"
)

// MockAIClient is a mock type for the service.AIClient type
type MockAIClient struct {
	mock.Mock
}

var _ service.AIClient = (*MockAIClient)(nil)

func (m *MockAIClient) GenerateText(ctx context.Context, systemPrompt, userPrompt string, params service.GenerationParams) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt, params)
	return args.String(0), args.Error(1)
}

// MockImageGenerator is a mock type for the interfaces.ImageGenerator type
type MockImageGenerator struct {
	mock.Mock
}

var _ interfaces.ImageGenerator = (*MockImageGenerator)(nil)

func (m *MockImageGenerator) TextToImage(ctx context.Context, prompt string, width, height, seed int) (string, error) {
	args := m.Called(ctx, prompt, width, height, seed)
	return args.String(0), args.Error(1)
}

func (m *MockImageGenerator) ImageToImage(ctx context.Context, sourceImageURL, prompt string, strength float64) (string, error) {
	args := m.Called(ctx, sourceImageURL, prompt, strength)
	return args.String(0), args.Error(1)
}

// MockVideoGenerator is a mock type for the interfaces.VideoGenerator type
type MockVideoGenerator struct {
	mock.Mock
}

var _ interfaces.VideoGenerator = (*MockVideoGenerator)(nil)

func (m *MockVideoGenerator) ImageToVideo(ctx context.Context, sourceImageURL, motionPrompt string) (string, error) {
	args := m.Called(ctx, sourceImageURL, motionPrompt)
	return args.String(0), args.Error(1)
}

// MockSpeechSynthesizer is a mock type for the interfaces.SpeechSynthesizer type
type MockSpeechSynthesizer struct {
	mock.Mock
}

var _ interfaces.SpeechSynthesizer = (*MockSpeechSynthesizer)(nil)

func (m *MockSpeechSynthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	args := m.Called(ctx, text, voiceID)
	var audio []byte
	if args.Get(0) != nil {
		audio = args.Get(0).([]byte)
	}
	return audio, args.Error(1)
}

func (m *MockSpeechSynthesizer) ListVoices(ctx context.Context) ([]models.Voice, error) {
	args := m.Called(ctx)
	var voices []models.Voice
	if args.Get(0) != nil {
		voices = args.Get(0).([]models.Voice)
	}
	return voices, args.Error(1)
}

func (m *MockSpeechSynthesizer) AddVoice(ctx context.Context, name string, sample []byte, sampleFilename string) (string, error) {
	args := m.Called(ctx, name, sample, sampleFilename)
	return args.String(0), args.Error(1)
}

func (m *MockSpeechSynthesizer) RemoveVoice(ctx context.Context, voiceID string) error {
	args := m.Called(ctx, voiceID)
	return args.Error(0)
}

// MockCreditLedger is a mock type for the interfaces.CreditLedger type
type MockCreditLedger struct {
	mock.Mock
}

var _ interfaces.CreditLedger = (*MockCreditLedger)(nil)

func (m *MockCreditLedger) GetBalance(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockCreditLedger) ReserveOne(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockCreditLedger) Credit(ctx context.Context, userID string, amount int) (int, error) {
	args := m.Called(ctx, userID, amount)
	return args.Int(0), args.Error(1)
}

// MockStoryRepository is a mock type for the interfaces.StoryRepository type
type MockStoryRepository struct {
	mock.Mock
}

var _ interfaces.StoryRepository = (*MockStoryRepository)(nil)

func (m *MockStoryRepository) Save(ctx context.Context, userID string, story *models.CustomizedStory) error {
	args := m.Called(ctx, userID, story)
	return args.Error(0)
}

func (m *MockStoryRepository) GetByID(ctx context.Context, userID, storyID string) (*models.CustomizedStory, error) {
	args := m.Called(ctx, userID, storyID)
	var story *models.CustomizedStory
	if args.Get(0) != nil {
		story = args.Get(0).(*models.CustomizedStory)
	}
	return story, args.Error(1)
}

func (m *MockStoryRepository) ListByUser(ctx context.Context, userID string) ([]*models.CustomizedStory, error) {
	args := m.Called(ctx, userID)
	var stories []*models.CustomizedStory
	if args.Get(0) != nil {
		stories = args.Get(0).([]*models.CustomizedStory)
	}
	return stories, args.Error(1)
}

func (m *MockStoryRepository) Delete(ctx context.Context, userID, storyID string) error {
	args := m.Called(ctx, userID, storyID)
	return args.Error(0)
}

// MockGenerationLocker is a mock type for the interfaces.GenerationLocker type
type MockGenerationLocker struct {
	mock.Mock
}

var _ interfaces.GenerationLocker = (*MockGenerationLocker)(nil)

func (m *MockGenerationLocker) Acquire(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGenerationLocker) Release(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockMediaStore is a mock type for the interfaces.MediaStore type
type MockMediaStore struct {
	mock.Mock
}

var _ interfaces.MediaStore = (*MockMediaStore)(nil)

func (m *MockMediaStore) Store(ctx context.Context, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}

// MockProcessedEventRepository is a mock type for the interfaces.ProcessedEventRepository type
type MockProcessedEventRepository struct {
	mock.Mock
}

var _ interfaces.ProcessedEventRepository = (*MockProcessedEventRepository)(nil)

func (m *MockProcessedEventRepository) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}
