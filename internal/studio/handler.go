// Package studio exposes the generation pipeline over HTTP and WebSocket.
package studio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lexiqai/speech-studio/internal/audio"
	"github.com/lexiqai/speech-studio/internal/generation"
	"github.com/lexiqai/speech-studio/internal/observability"
	"github.com/lexiqai/speech-studio/internal/tts"
)

const (
	// maxRequestBody bounds JSON request bodies
	maxRequestBody = 8 << 20

	minPlaybackRate = 0.5
	maxPlaybackRate = 2.0
)

// Generator runs generations and previews
type Generator interface {
	Generate(ctx context.Context, req generation.Request, progress generation.ProgressFunc) (*generation.Run, error)
	Preview(ctx context.Context, voiceID string) ([]byte, error)
}

// KeyManager edits the persisted credential pool
type KeyManager interface {
	List() []string
	Add(ctx context.Context, key string) (bool, error)
	RemoveAt(ctx context.Context, index int) error
	Clear(ctx context.Context) error
}

// Handler serves the studio API
type Handler struct {
	gen          Generator
	keys         KeyManager
	defaultVoice string
	logger       zerolog.Logger
}

// NewHandler creates the API handler. An empty defaultVoice selects the
// first catalog voice.
func NewHandler(gen Generator, keys KeyManager, defaultVoice string, logger zerolog.Logger) *Handler {
	if defaultVoice == "" {
		defaultVoice = tts.Voices[0].ID
	}
	return &Handler{
		gen:          gen,
		keys:         keys,
		defaultVoice: defaultVoice,
		logger:       logger,
	}
}

// Register mounts every route on mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/voices", h.handleVoices)
	mux.HandleFunc("GET /api/keys", h.handleListKeys)
	mux.HandleFunc("POST /api/keys", h.handleAddKey)
	mux.HandleFunc("DELETE /api/keys", h.handleClearKeys)
	mux.HandleFunc("DELETE /api/keys/{index}", h.handleRemoveKey)
	mux.HandleFunc("POST /api/generate", h.handleGenerate)
	mux.HandleFunc("POST /api/preview", h.handlePreview)
	mux.HandleFunc("GET /ws/generate", h.handleGenerateWS)
}

// GenerateRequest is the body of a generation request
type GenerateRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// PreviewRequest is the body of a preview request
type PreviewRequest struct {
	Voice string  `json:"voice"`
	Speed float64 `json:"speed,omitempty"`
}

// KeysResponse lists the pool with every key masked
type KeysResponse struct {
	Count int      `json:"count"`
	Keys  []string `json:"keys"`
}

type addKeyRequest struct {
	Key string `json:"key"`
}

type addKeyResponse struct {
	Added bool `json:"added"`
	Count int  `json:"count"`
}

func (h *Handler) handleVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tts.Voices)
}

func (h *Handler) handleListKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.keysResponse())
}

func (h *Handler) keysResponse() KeysResponse {
	keys := h.keys.List()
	masked := make([]string, len(keys))
	for i, k := range keys {
		masked[i] = observability.MaskKey(k)
	}
	return KeysResponse{Count: len(keys), Keys: masked}
}

func (h *Handler) handleAddKey(w http.ResponseWriter, r *http.Request) {
	var req addKeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	added, err := h.keys.Add(r.Context(), req.Key)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to add API key")
		writeError(w, err)
		return
	}

	count := len(h.keys.List())
	if added {
		h.logger.Info().Int("pool_size", count).Msg("API key added")
		writeJSON(w, http.StatusCreated, addKeyResponse{Added: true, Count: count})
		return
	}
	writeJSON(w, http.StatusOK, addKeyResponse{Added: false, Count: count})
}

func (h *Handler) handleRemoveKey(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, badRequest(fmt.Sprintf("invalid key index %q", r.PathValue("index"))))
		return
	}

	if err := h.keys.RemoveAt(r.Context(), index); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info().Int("index", index).Int("pool_size", len(h.keys.List())).Msg("API key removed")
	writeJSON(w, http.StatusOK, h.keysResponse())
}

func (h *Handler) handleClearKeys(w http.ResponseWriter, r *http.Request) {
	if err := h.keys.Clear(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Failed to clear API keys")
		writeError(w, err)
		return
	}

	h.logger.Info().Msg("API keys cleared")
	writeJSON(w, http.StatusOK, h.keysResponse())
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	genReq, err := h.generationRequest(req)
	if err != nil {
		writeError(w, err)
		return
	}

	run, err := h.gen.Generate(r.Context(), genReq, nil)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", audio.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(run.Audio)))
	w.WriteHeader(http.StatusOK)
	w.Write(run.Audio)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	voice, err := h.voice(req.Voice)
	if err != nil {
		writeError(w, err)
		return
	}

	speed := req.Speed
	if speed == 0 {
		speed = 1.0
	}
	if speed < minPlaybackRate || speed > maxPlaybackRate {
		writeError(w, badRequest(fmt.Sprintf("speed must be between %.1f and %.1f, got %g", minPlaybackRate, maxPlaybackRate, speed)))
		return
	}

	wav, err := h.gen.Preview(r.Context(), voice)
	if err != nil {
		writeError(w, err)
		return
	}

	// Playback rate is applied by the player only
	w.Header().Set("Content-Type", audio.MIMEType)
	w.Header().Set("X-Playback-Rate", strconv.FormatFloat(speed, 'g', -1, 64))
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.WriteHeader(http.StatusOK)
	w.Write(wav)
}

// generationRequest validates an API request before any work starts
func (h *Handler) generationRequest(req GenerateRequest) (generation.Request, error) {
	if strings.TrimSpace(req.Text) == "" {
		return generation.Request{}, generation.ErrEmptyText
	}
	voice, err := h.voice(req.Voice)
	if err != nil {
		return generation.Request{}, err
	}
	return generation.Request{Text: req.Text, VoiceID: voice}, nil
}

func (h *Handler) voice(id string) (string, error) {
	if id == "" {
		return h.defaultVoice, nil
	}
	if _, ok := tts.LookupVoice(id); !ok {
		return "", badRequest(fmt.Sprintf("unknown voice %q", id))
	}
	return id, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}
