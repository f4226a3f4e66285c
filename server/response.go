package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type sseFragment struct {
	Text string `json:"text"`
}

type sseDone struct {
	ThreadID string `json:"thread_id"`
}

type sseError struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write json response failed")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeSSE[T any](w http.ResponseWriter, flusher http.Flusher, event string, payload T) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Debug().Err(err).Str("event", event).Msg("marshal sse payload failed")
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
