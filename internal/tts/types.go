package tts

import (
	"context"
	"errors"
)

var (
	// ErrExhaustedPool is returned when every credential in the pool was
	// refused for one request
	ErrExhaustedPool = errors.New("all API keys exhausted")

	// ErrMalformedResponse is returned when the API answers successfully
	// without an audio payload
	ErrMalformedResponse = errors.New("no audio in response")
)

// Synthesizer issues one synthesis request with an explicit credential.
// Failures are returned as *resilience.ClassifiedError.
type Synthesizer interface {
	Synthesize(ctx context.Context, apiKey, text, voiceID string) ([]byte, error)
}

// Voice describes a prebuilt voice
type Voice struct {
	ID          string `json:"id"`
	Gender      string `json:"gender"`
	Description string `json:"description"`
}

// Voices is the catalog of prebuilt voices offered to callers
var Voices = []Voice{
	{ID: "Fenrir", Gender: "Male", Description: "Deep & Calm"},
	{ID: "Kore", Gender: "Female", Description: "Soothing & Clear"},
	{ID: "Puck", Gender: "Male", Description: "Energetic"},
	{ID: "Aoede", Gender: "Female", Description: "Warm & Friendly"},
	{ID: "Charon", Gender: "Male", Description: "Deep & Authoritative"},
	{ID: "Zephyr", Gender: "Male", Description: "Smooth & Balanced"},
	{ID: "Leda", Gender: "Female", Description: "Soft & Gentle"},
	{ID: "Orus", Gender: "Male", Description: "Confident"},
	{ID: "Umbriel", Gender: "Male", Description: "Steady & Neutral"},
	{ID: "Iapetus", Gender: "Male", Description: "Serious & Deep"},
}

// LookupVoice finds a catalog voice by ID
func LookupVoice(id string) (Voice, bool) {
	for _, v := range Voices {
		if v.ID == id {
			return v, true
		}
	}
	return Voice{}, false
}
