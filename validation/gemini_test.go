package validation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phillip/civic-go/models"
)

func geminiReply(t *testing.T, text string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
		}},
	})
	require.NoError(t, err)
	return b
}

func TestGemini_Validate(t *testing.T) {
	var gotPath, gotKey, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		var req geminiRequest
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)
		gotPrompt = req.Contents[0].Parts[0].Text
		_, _ = w.Write(geminiReply(t, "```json\n{\"isVerified\": true, \"confidenceScore\": 0.92, \"notes\": \"consistent\"}\n```"))
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiOptions{Endpoint: srv.URL, Model: "gemini-test", APIKey: "k1"})
	require.NoError(t, err)

	v, err := g.Validate(context.Background(), &models.CampaignEvidence{
		Title:              "Broken pipe",
		Description:        "Water leaking for weeks",
		EvidenceType:       models.EvidenceTestimonial,
		Source:             models.SourceWitness,
		TestimonialContent: "I saw it every day",
	})
	require.NoError(t, err)
	assert.Equal(t, "/models/gemini-test:generateContent", gotPath)
	assert.Equal(t, "k1", gotKey)
	assert.Contains(t, gotPrompt, "Broken pipe")
	assert.Contains(t, gotPrompt, "I saw it every day")
	assert.True(t, v.IsVerified)
	assert.InDelta(t, 0.92, v.ConfidenceScore, 1e-9)
	assert.Equal(t, "ai:gemini-test", v.Method)
	assert.Equal(t, models.EvidenceAccepted, v.Status())
}

func TestGemini_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), GeminiOptions{Endpoint: srv.URL, Model: "m", APIKey: "k"})
	require.NoError(t, err)
	_, err = g.Validate(context.Background(), &models.CampaignEvidence{Title: "t"})
	assert.ErrorContains(t, err, "status 429")
}

func TestNewGemini_RequiresCredentials(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiOptions{Model: "m"})
	assert.Error(t, err)
	_, err = NewGemini(context.Background(), GeminiOptions{APIKey: "k"})
	assert.Error(t, err)
}

func TestParseVerdict(t *testing.T) {
	v, err := parseVerdict(`Sure. {"isVerified": false, "confidenceScore": 1.7, "notes": "blurry"}`)
	require.NoError(t, err)
	assert.False(t, v.IsVerified)
	assert.Equal(t, 1.0, v.ConfidenceScore)
	assert.Equal(t, models.EvidenceUnderReview, v.Status())

	_, err = parseVerdict("I cannot tell.")
	assert.Error(t, err)
}
