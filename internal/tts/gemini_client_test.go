package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lexiqai/speech-studio/internal/resilience"
)

func audioResponse(data []byte) string {
	return `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"audio/L16;codec=pcm;rate=24000","data":"` +
		base64.StdEncoding.EncodeToString(data) + `"}}]}}]}`
}

func TestGeminiClient_RequestShape(t *testing.T) {
	var gotPath, gotKey, gotContentType string
	var gotBody geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		w.Write([]byte(audioResponse([]byte{1, 2, 3, 4})))
	}))
	defer server.Close()

	client := NewGeminiClientWith(server.URL+"/v1beta/", "gemini-2.5-flash-preview-tts", server.Client())
	data, err := client.Synthesize(context.Background(), "key+/=", "Hello there.", "Kore")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if !bytes.Equal(data, []byte{1, 2, 3, 4}) {
		t.Errorf("Expected decoded payload, got %v", data)
	}
	if gotPath != "/v1beta/models/gemini-2.5-flash-preview-tts:generateContent" {
		t.Errorf("Unexpected path %s", gotPath)
	}
	if gotKey != "key+/=" {
		t.Errorf("Expected key query parameter to round-trip, got %q", gotKey)
	}
	if gotContentType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", gotContentType)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Parts[0].Text != "Hello there." {
		t.Errorf("Unexpected contents %+v", gotBody.Contents)
	}
	if len(gotBody.GenerationConfig.ResponseModalities) != 1 || gotBody.GenerationConfig.ResponseModalities[0] != "AUDIO" {
		t.Errorf("Expected AUDIO modality, got %v", gotBody.GenerationConfig.ResponseModalities)
	}
	if v := gotBody.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; v != "Kore" {
		t.Errorf("Expected voice Kore, got %q", v)
	}
}

func TestGeminiClient_SkipsTextParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"thinking"},{"inlineData":{"data":"AAAA"}}]}}]}`))
	}))
	defer server.Close()

	data, err := NewGeminiClientWith(server.URL, "m", server.Client()).Synthesize(context.Background(), "k", "t", "Puck")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(data) != 3 {
		t.Errorf("Expected 3 decoded bytes, got %d", len(data))
	}
}

func TestGeminiClient_Classification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		class       resilience.Class
		malformed   bool
		wantMessage string
	}{
		{"rate limited", http.StatusTooManyRequests, "slow down", resilience.ClassRateLimited, false, "slow down"},
		{"forbidden", http.StatusForbidden, `{"error":{"code":403,"status":"PERMISSION_DENIED"}}`, resilience.ClassRateLimited, false, `{"error":{"code":403,"status":"PERMISSION_DENIED"}}`},
		{"resource exhausted envelope", http.StatusBadRequest, `{"error":{"code":400,"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}`, resilience.ClassRateLimited, false, ""},
		{"message mentions quota only", http.StatusInternalServerError, `{"error":{"message":"Quota something","status":"INTERNAL"}}`, resilience.ClassTransport, false, ""},
		{"server error", http.StatusInternalServerError, "upstream broke", resilience.ClassTransport, false, "upstream broke"},
		{"bad request empty body", http.StatusBadRequest, "", resilience.ClassTransport, false, "gemini API returned status 400"},
		{"no audio", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`, resilience.ClassMalformed, true, ""},
		{"no candidates", http.StatusOK, `{}`, resilience.ClassMalformed, true, ""},
		{"invalid json", http.StatusOK, `not json`, resilience.ClassMalformed, true, ""},
		{"invalid base64", http.StatusOK, `{"candidates":[{"content":{"parts":[{"inlineData":{"data":"!!!"}}]}}]}`, resilience.ClassMalformed, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewGeminiClientWith(server.URL, "m", server.Client()).Synthesize(context.Background(), "k", "t", "Fenrir")
			if err == nil {
				t.Fatal("Expected error")
			}
			if got := resilience.ClassOf(err); got != tt.class {
				t.Errorf("Expected class %v, got %v (%v)", tt.class, got, err)
			}
			if tt.malformed != errors.Is(err, ErrMalformedResponse) {
				t.Errorf("Expected ErrMalformedResponse=%v, got %v", tt.malformed, err)
			}
			if tt.wantMessage != "" && err.Error() != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, err.Error())
			}
		})
	}
}

func TestGeminiClient_TransportErrorHidesKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewGeminiClientWith(url, "m", nil).Synthesize(context.Background(), "secret-key-value", "t", "Fenrir")
	if err == nil {
		t.Fatal("Expected error from closed server")
	}
	if resilience.ClassOf(err) != resilience.ClassTransport {
		t.Errorf("Expected transport class, got %v", resilience.ClassOf(err))
	}
	if strings.Contains(err.Error(), "secret-key-value") {
		t.Errorf("Expected key to be absent from error, got %q", err.Error())
	}
}

func TestLookupVoice(t *testing.T) {
	if len(Voices) != 10 {
		t.Errorf("Expected 10 catalog voices, got %d", len(Voices))
	}
	v, ok := LookupVoice("Charon")
	if !ok || v.Gender != "Male" {
		t.Errorf("Expected Charon in catalog, got %+v ok=%v", v, ok)
	}
	if _, ok := LookupVoice("charon"); ok {
		t.Error("Expected lookup to be case sensitive")
	}
}
