package kernel

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/manthysbr/openclaw/internal/core/services"
)

// handleEvents streams bus events as SSE. ?topic= narrows the stream to one
// topic; the default is every event.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.eventBus == nil {
		http.Error(w, "event stream not available", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = services.BroadcastTopic
	}

	// Subscribed before the headers are flushed.
	ch, unsub := s.eventBus.Subscribe(topic)
	defer unsub()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	clientID := uuid.NewString()
	s.logger.Debug("event stream opened", "client", clientID, "topic", topic)
	defer s.logger.Debug("event stream closed", "client", clientID)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, evt.Data)
			flusher.Flush()
		}
	}
}
