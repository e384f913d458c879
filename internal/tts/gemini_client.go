package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lexiqai/speech-studio/internal/config"
	"github.com/lexiqai/speech-studio/internal/resilience"
)

// statusResourceExhausted is the error status Gemini reports for quota
// and rate limit failures
const statusResourceExhausted = "RESOURCE_EXHAUSTED"

// maxErrorBody bounds how much of a failed response is kept as the error message
const maxErrorBody = 64 << 10

// GeminiClient implements Synthesizer using the Gemini generateContent API
type GeminiClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewGeminiClient creates a client from configuration
func NewGeminiClient(cfg *config.Config) *GeminiClient {
	return NewGeminiClientWith(cfg.GeminiBaseURL, cfg.GeminiModel, &http.Client{
		Timeout: time.Duration(cfg.GeminiTimeout) * time.Second,
	})
}

// NewGeminiClientWith creates a client against an explicit endpoint
func NewGeminiClientWith(baseURL, model string, httpClient *http.Client) *GeminiClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GeminiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: httpClient,
	}
}

// geminiRequest is the generateContent request body
type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string           `json:"responseModalities"`
	SpeechConfig       geminiSpeechConfig `json:"speechConfig"`
}

type geminiSpeechConfig struct {
	VoiceConfig geminiVoiceConfig `json:"voiceConfig"`
}

type geminiVoiceConfig struct {
	PrebuiltVoiceConfig geminiPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type geminiPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

// geminiResponse is the subset of the generateContent response we read
type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// geminiErrorEnvelope is the JSON body of a failed request
type geminiErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func newGeminiRequest(text, voiceID string) geminiRequest {
	return geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: text}}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: geminiSpeechConfig{
				VoiceConfig: geminiVoiceConfig{
					PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: voiceID},
				},
			},
		},
	}
}

func (c *GeminiClient) endpoint(apiKey string) string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(apiKey))
}

// Synthesize requests audio for text and returns the decoded payload
func (c *GeminiClient) Synthesize(ctx context.Context, apiKey, text, voiceID string) ([]byte, error) {
	jsonData, err := json.Marshal(newGeminiRequest(text, voiceID))
	if err != nil {
		return nil, resilience.Classify(resilience.ClassTransport, 0, fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(apiKey), bytes.NewReader(jsonData))
	if err != nil {
		return nil, resilience.Classify(resilience.ClassTransport, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the request URL, which holds the key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, resilience.Classify(resilience.ClassTransport, 0, fmt.Errorf("failed to make request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, classifyFailure(resp.StatusCode, body)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, resilience.Classify(resilience.ClassMalformed, resp.StatusCode, fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}

	payload := inlineAudio(parsed)
	if payload == "" {
		return nil, resilience.Classify(resilience.ClassMalformed, resp.StatusCode, ErrMalformedResponse)
	}

	audioData, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, resilience.Classify(resilience.ClassMalformed, resp.StatusCode, fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	return audioData, nil
}

// inlineAudio returns the first inline payload of the first candidate
func inlineAudio(resp geminiResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			return part.InlineData.Data
		}
	}
	return ""
}

// classifyFailure maps a non-2xx response to a classified error whose
// message is the response body. 429 and 403 rotate the credential, as does
// any envelope reporting RESOURCE_EXHAUSTED.
func classifyFailure(statusCode int, body []byte) error {
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = fmt.Sprintf("gemini API returned status %d", statusCode)
	}
	err := errors.New(message)

	switch statusCode {
	case http.StatusTooManyRequests, http.StatusForbidden:
		return resilience.Classify(resilience.ClassRateLimited, statusCode, err)
	}

	var envelope geminiErrorEnvelope
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Status == statusResourceExhausted {
		return resilience.Classify(resilience.ClassRateLimited, statusCode, err)
	}
	return resilience.Classify(resilience.ClassTransport, statusCode, err)
}
