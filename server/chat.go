package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
)

const internalErrorDetail = "Sorry, something went wrong processing your request. Please try again."

type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id"`
}

type chatResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"thread_id"`
}

// decodeChatRequest reads and validates the shared request shape of both chat
// endpoints. A zero threadID starts a new conversation.
func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return chatRequest{}, false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return chatRequest{}, false
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message cannot be empty.")
		return chatRequest{}, false
	}

	req.ThreadID = strings.TrimSpace(req.ThreadID)
	if req.ThreadID == "" {
		req.ThreadID = uuid.NewString()
	}
	return req, true
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	log.Info().Str("thread", req.ThreadID).Str("message", preview(req.Message, 80)).Msg("chat request")

	reply, err := s.pipe.Respond(r.Context(), req.ThreadID, req.Message)
	if err != nil {
		log.Error().Err(err).Str("thread", req.ThreadID).Msg("chat request failed")
		writeError(w, http.StatusInternalServerError, internalErrorDetail)
		return
	}

	log.Info().Str("thread", req.ThreadID).Str("reply", preview(reply, 80)).Msg("chat response")
	writeJSON(w, http.StatusOK, chatResponse{Response: reply, ThreadID: req.ThreadID})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported.")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	log.Info().Str("thread", req.ThreadID).Str("message", preview(req.Message, 80)).Msg("chat stream request")

	reader := s.pipe.RespondStream(r.Context(), req.ThreadID, req.Message)
	defer reader.Close()

	for {
		ev, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			log.Error().Err(err).Str("thread", req.ThreadID).Msg("chat stream failed")
			writeSSE(w, flusher, "error", sseError{Detail: internalErrorDetail})
			return
		}
		if r.Context().Err() != nil {
			// Client went away. The pipeline finishes on its own; there is
			// just no one left to deliver to.
			return
		}

		switch ev.Kind {
		case contractx.StreamEventFragment:
			writeSSE(w, flusher, "fragment", sseFragment{Text: ev.Fragment})
		case contractx.StreamEventDone:
			writeSSE(w, flusher, "done", sseDone{ThreadID: ev.ThreadID})
		}
	}
}

func preview(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
