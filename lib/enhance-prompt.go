package aiwallpaperlib

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

// The model is told to produce exactly one description, but it regularly
// ignores that and offers several "Option N" variants anyway. See
// extractSingleOption.
const enhanceInstruction = "Rewrite the following wallpaper idea into a " +
	"single richly detailed image generation prompt. Describe subject, " +
	"composition, lighting and mood suitable for a widescreen desktop " +
	"wallpaper, and end with 'NO TEXT'. Provide exactly one description " +
	"with no preamble or options.\n\nIdea: "

// Enhancer rewrites a raw prompt into a more detailed description using the
// Gemini API. A single attempt per invocation; every failure is recoverable
// by falling back to the raw prompt.
type Enhancer struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewEnhancer(apiKey, model string, timeout time.Duration) *Enhancer {
	return &Enhancer{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: geminiBaseURL,
		Client:  &http.Client{Timeout: timeout},
	}
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
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Enhance returns a longer descriptive prompt derived from the raw one.
// Callers treat any error as "use the raw prompt".
func (e *Enhancer) Enhance(ctx context.Context, prompt string) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("no API key configured")
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: enhanceInstruction + prompt}}},
		},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf(
		"%s/v1beta/models/%s:generateContent?key=%s",
		e.BaseURL, e.Model, e.APIKey)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "enhancement request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf(
			"enhancement request failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var gr geminiResponse
	if err = json.Unmarshal(data, &gr); err != nil {
		return "", errors.Wrap(err, "malformed enhancement response")
	}

	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("enhancement response contained no candidates")
	}

	text := strings.TrimSpace(gr.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", errors.New("enhancement response was empty")
	}

	return extractSingleOption(text), nil
}

var quotedOptionRE = regexp.MustCompile(
	`(?s)\*\*Option\s+1[^:]*:\*\*\s*"([^"]+)"`)

var optionHeaderRE = regexp.MustCompile(`(?m)^\**Option\s+2[^:\n]*:?\**`)

// extractSingleOption picks the first option out of a multi-option response.
// Never fails; the worst case is returning the trimmed original text.
func extractSingleOption(text string) string {
	if !strings.Contains(text, "**Option") &&
		!strings.Contains(text, "Option 1") {
		return text
	}

	if m := quotedOptionRE.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	// Unquoted form: everything between the Option 1 header and the Option 2
	// header (or the end of the response).
	idx := strings.Index(text, "Option 1")
	if idx < 0 {
		return text
	}
	rest := text[idx:]
	if colon := strings.Index(rest, ":"); colon >= 0 {
		rest = rest[colon+1:]
	}
	if m := optionHeaderRE.FindStringIndex(rest); m != nil {
		rest = rest[:m[0]]
	}

	var lines []string
	for _, line := range strings.Split(rest, "\n") {
		line = strings.Trim(strings.TrimSpace(line), `*"`)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return strings.TrimSpace(text)
	}
	return strings.Join(lines, " ")
}
