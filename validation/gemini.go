package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/phillip/civic-go/models"
)

const geminiScope = "https://www.googleapis.com/auth/cloud-platform"

// Gemini asks a Gemini model whether a piece of evidence looks credible.
type Gemini struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

type GeminiOptions struct {
	Endpoint string
	Model    string
	// APIKey is sent as the key query parameter. When empty, requests are
	// authorized with the service account in ServiceAccountFile.
	APIKey             string
	ServiceAccountFile string
	HTTPClient         *http.Client
}

func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	if opts.Model == "" {
		return nil, errors.New("gemini model is required")
	}
	g := &Gemini{
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		model:    opts.Model,
		apiKey:   opts.APIKey,
		client:   opts.HTTPClient,
	}
	if g.client == nil {
		g.client = &http.Client{Timeout: 30 * time.Second}
	}
	if g.apiKey != "" {
		return g, nil
	}
	if opts.ServiceAccountFile == "" {
		return nil, errors.New("gemini needs an API key or a service account file")
	}

	credsJSON, err := os.ReadFile(opts.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, credsJSON, geminiScope)
	if err != nil {
		return nil, fmt.Errorf("failed to create credentials: %w", err)
	}
	base := g.client
	g.client = &http.Client{
		Timeout:   base.Timeout,
		Transport: &oauth2.Transport{Source: creds.TokenSource, Base: base.Transport},
	}
	return g, nil
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

const evidencePrompt = `You review evidence submitted to a civic campaign platform.
Decide whether the evidence below is plausible, relevant and not obviously fabricated.
Reply with JSON only: {"isVerified": bool, "confidenceScore": number between 0 and 1, "notes": string}.

Title: %s
Description: %s
Type: %s
Source: %s
%s`

func (g *Gemini) Validate(ctx context.Context, e *models.CampaignEvidence) (*Verdict, error) {
	var detail string
	switch {
	case e.TestimonialContent != "":
		detail = "Testimonial: " + e.TestimonialContent
	case e.MediaFile != nil:
		detail = fmt.Sprintf("File: %s (%s, %d bytes) at %s", e.MediaFile.FileName, e.MediaFile.FileType, e.MediaFile.FileSize, e.MediaFile.URL)
	}

	body, err := json.Marshal(geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{
		Text: fmt.Sprintf(evidencePrompt, e.Title, e.Description, e.EvidenceType, e.Source, detail),
	}}}}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.endpoint, g.model)
	if g.apiKey != "" {
		endpoint += "?key=" + url.QueryEscape(g.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Gemini API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(msg))
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no response from Gemini")
	}

	verdict, err := parseVerdict(gr.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}
	verdict.Method = "ai:" + g.model
	return verdict, nil
}

var jsonBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```|(\\{.+\\})")

// parseVerdict pulls the JSON object out of a model reply, with or without
// a markdown code fence around it.
func parseVerdict(text string) (*Verdict, error) {
	m := jsonBlock.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("no JSON in model reply: %q", text)
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	var v Verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("failed to parse verdict: %w", err)
	}
	v.ConfidenceScore = min(max(v.ConfidenceScore, 0), 1)
	return &v, nil
}
