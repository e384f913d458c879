package studio

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	// The studio is served to a local browser UI
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 64 << 10,
}

// ProgressEvent is sent after every synthesized chunk
type ProgressEvent struct {
	Type    string `json:"type"`
	Percent int    `json:"percent"`
}

// DoneEvent precedes the binary message carrying the WAV file
type DoneEvent struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
	Bytes    int    `json:"bytes"`
}

// ErrorEvent ends a failed run
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Status  int    `json:"status"` // what StatusFor gives the REST API
}

// handleGenerateWS runs one generation per connection. The client sends a
// GenerateRequest; the server streams progress events and finishes with
// either a done event plus the WAV as a binary message, or an error event.
// Closing the connection cancels the run.
func (h *Handler) handleGenerateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		h.logger.Warn().Err(err).Msg("Failed to upgrade connection to WebSocket")
		return
	}
	defer conn.Close()

	var req GenerateRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to read generation request")
		h.sendError(conn, badRequest("invalid generation request"))
		return
	}

	genReq, err := h.generationRequest(req)
	if err != nil {
		h.sendError(conn, err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Only this goroutine reads from here on; a read error means the client
	// went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	run, err := h.gen.Generate(ctx, genReq, func(percent int) {
		if err := h.write(conn, ProgressEvent{Type: "progress", Percent: percent}); err != nil {
			h.logger.Debug().Err(err).Msg("Failed to send progress")
			cancel()
		}
	})
	if err != nil {
		h.sendError(conn, err)
		return
	}

	if err := h.write(conn, DoneEvent{Type: "done", Filename: run.Filename, Bytes: len(run.Audio)}); err != nil {
		h.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to send done event")
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.BinaryMessage, run.Audio); err != nil {
		h.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to send audio")
		return
	}

	h.closeNormally(conn)
}

func (h *Handler) write(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

func (h *Handler) sendError(conn *websocket.Conn, err error) {
	if err := h.write(conn, ErrorEvent{Type: "error", Message: err.Error(), Status: StatusFor(err)}); err != nil {
		h.logger.Debug().Err(err).Msg("Failed to send error event")
		return
	}
	h.closeNormally(conn)
}

func (h *Handler) closeNormally(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
