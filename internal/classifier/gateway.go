package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hostelkit/maintenance-service/internal/config"
)

// Suggestion is the raw, untrusted classifier answer. Values may be outside
// the domain enumerations; the intake layer sanitizes them.
type Suggestion struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// Gateway calls an external text-classification capability.
type Gateway interface {
	Classify(ctx context.Context, description string) (Suggestion, error)
}

// ErrNotConfigured indicates no API key was provided.
var ErrNotConfigured = errors.New("classifier not configured")

const promptTemplate = `Analyze the following hostel maintenance request and classify it into one of the given categories and priority levels.
Description: %q
Available Categories: ELECTRICAL, PLUMBING, CARPENTRY, INTERNET, OTHER
Available Priorities: P1_CRITICAL, P2_HIGH, P3_NORMAL, P4_LOW
Rules:
- P1_CRITICAL: Major issues like power outage, no water, major leaks, safety hazards.
- P2_HIGH: Affects multiple people, e.g., Wi-Fi down, broken door lock.
- P3_NORMAL: Standard individual requests, e.g., broken chair, flickering light.
- P4_LOW: Minor cosmetic issues.
Respond ONLY with a valid JSON object in the format: {"category": "CATEGORY_NAME", "priority": "PRIORITY_LEVEL"}`

// GeminiGateway classifies descriptions via the Gemini generateContent API.
type GeminiGateway struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewGeminiGateway builds a gateway with a bounded per-call timeout.
func NewGeminiGateway(cfg config.ClassifierConfig) *GeminiGateway {
	return &GeminiGateway{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   &http.Client{Timeout: cfg.Timeout()},
	}
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Classify performs a single-shot classification call. No retries; the
// caller owns any fallback policy.
func (g *GeminiGateway) Classify(ctx context.Context, description string) (Suggestion, error) {
	if g.apiKey == "" {
		return Suggestion{}, ErrNotConfigured
	}

	payload := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: fmt.Sprintf(promptTemplate, description)}}}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Suggestion{}, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.endpoint, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Suggestion{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Suggestion{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return Suggestion{}, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var decoded generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Suggestion{}, fmt.Errorf("decode classifier response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return Suggestion{}, errors.New("classifier returned no candidates")
	}

	return parseSuggestion(decoded.Candidates[0].Content.Parts[0].Text)
}

// parseSuggestion extracts the JSON answer from model output, tolerating
// markdown code fences around it.
func parseSuggestion(text string) (Suggestion, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var suggestion Suggestion
	if err := json.Unmarshal([]byte(cleaned), &suggestion); err != nil {
		return Suggestion{}, fmt.Errorf("parse classifier answer: %w", err)
	}
	return suggestion, nil
}
