package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storypals-server/internal/config"
	"storypals-server/internal/models"
)

func elevenLabsTestConfig(baseURL string) *config.Config {
	return &config.Config{
		ElevenLabsBaseURL: baseURL,
		ElevenLabsAPIKey:  "xi-test-key",
		ElevenLabsTimeout: 5 * time.Second,
		DefaultVoiceID:    "default-voice",
	}
}

func TestElevenLabsClient_Synthesize(t *testing.T) {
	t.Run("posts text and returns audio", func(t *testing.T) {
		var captured ttsRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/text-to-speech/voice-7", r.URL.Path)
			assert.Equal(t, "xi-test-key", r.Header.Get("xi-api-key"))
			assert.Equal(t, "audio/mpeg", r.Header.Get("Accept"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			w.Write([]byte("mp3-bytes"))
		}))
		defer srv.Close()

		c := NewElevenLabsClient(elevenLabsTestConfig(srv.URL), zap.NewNop())
		audio, err := c.Synthesize(context.Background(), "Once upon a time", "voice-7")
		require.NoError(t, err)
		assert.Equal(t, []byte("mp3-bytes"), audio)

		assert.Equal(t, "Once upon a time", captured.Text)
		assert.Equal(t, "eleven_monolingual_v1", captured.ModelID)
		assert.Equal(t, 0.5, captured.VoiceSettings.Stability)
		assert.Equal(t, 0.75, captured.VoiceSettings.SimilarityBoost)
	})

	t.Run("falls back to the default voice", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/text-to-speech/default-voice", r.URL.Path)
			w.Write([]byte("mp3-bytes"))
		}))
		defer srv.Close()

		c := NewElevenLabsClient(elevenLabsTestConfig(srv.URL), zap.NewNop())
		_, err := c.Synthesize(context.Background(), "text", "")
		require.NoError(t, err)
	})

	t.Run("non-OK status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewElevenLabsClient(elevenLabsTestConfig(srv.URL), zap.NewNop())
		_, err := c.Synthesize(context.Background(), "text", "voice-7")
		assert.ErrorIs(t, err, ErrSpeechAPIFailed)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("empty audio body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer srv.Close()

		c := NewElevenLabsClient(elevenLabsTestConfig(srv.URL), zap.NewNop())
		_, err := c.Synthesize(context.Background(), "text", "voice-7")
		assert.ErrorIs(t, err, ErrSpeechAPIFailed)
	})
}

func TestElevenLabsClient_ListVoices_FiltersCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/voices", r.URL.Path)
		body := `{"voices": [`
		// шесть встроенных: в ответ должны попасть только первые четыре
		for i := 1; i <= 6; i++ {
			body += fmt.Sprintf(`{"voice_id": "premade-%d", "name": "Premade %d", "category": "premade"},`, i, i)
		}
		body += `{"voice_id": "cloned-1", "name": "Мама", "category": "cloned"},`
		body += `{"voice_id": "cloned-2", "name": "Папа", "category": "cloned"},`
		body += `{"voice_id": "pro-1", "name": "Pro", "category": "professional"}`
		body += `]}`
		w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewElevenLabsClient(elevenLabsTestConfig(srv.URL), zap.NewNop())
	voices, err := c.ListVoices(context.Background())
	require.NoError(t, err)

	require.Len(t, voices, 6)
	for i := 0; i < 4; i++ {
		assert.Equal(t, fmt.Sprintf("premade-%d", i+1), voices[i].ID)
		assert.Equal(t, models.VoiceCategoryPremade, voices[i].Category)
	}
	assert.Equal(t, "cloned-1", voices[4].ID)
	assert.Equal(t, "cloned-2", voices[5].ID)
	assert.Equal(t, models.VoiceCategoryCloned, voices[4].Category)
}

func TestElevenLabsClient_AddVoice(t *testing.T) {
	t.Run("uploads multipart sample", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/voices/add", r.URL.Path)
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "Мама", r.FormValue("name"))

			file, header, err := r.FormFile("files")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "sample.wav", header.Filename)

			w.Write([]byte(`{"voice_id": "new-voice-id"}`))
		}))
		defer srv.Close()

		c := NewElevenLabsClient(elevenLabsTestConfig(srv.URL), zap.NewNop())
		voiceID, err := c.AddVoice(context.Background(), "Мама", []byte("wav-bytes"), "sample.wav")
		require.NoError(t, err)
		assert.Equal(t, "new-voice-id", voiceID)
	})

	t.Run("missing voice ID in response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		c := NewElevenLabsClient(elevenLabsTestConfig(srv.URL), zap.NewNop())
		_, err := c.AddVoice(context.Background(), "Мама", []byte("wav-bytes"), "sample.wav")
		assert.ErrorIs(t, err, ErrSpeechAPIFailed)
	})
}

func TestElevenLabsClient_RemoveVoice(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	c := NewElevenLabsClient(elevenLabsTestConfig(srv.URL), zap.NewNop())
	require.NoError(t, c.RemoveVoice(context.Background(), "cloned-1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/v1/voices/cloned-1", gotPath)
}
