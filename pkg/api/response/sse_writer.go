package response

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// SSEStream writes Server-Sent Events to a single response. Once created the
// response is committed to event-stream mode and structured errors can no
// longer be sent; a failure after this point degrades to closing the
// connection without a done event.
type SSEStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func NewSSEStream(w http.ResponseWriter) (*SSEStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEStream{w: w, flusher: flusher}, nil
}

func (s *SSEStream) SendChunk(chunk string) error {
	return s.send(chunkEvent{Chunk: chunk})
}

func (s *SSEStream) SendDone() error {
	return s.send(doneEvent{Done: true})
}

func (s *SSEStream) send(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling event payload: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	s.flusher.Flush()
	return nil
}

type chunkEvent struct {
	Chunk string `json:"chunk"`
}

type doneEvent struct {
	Done bool `json:"done"`
}
