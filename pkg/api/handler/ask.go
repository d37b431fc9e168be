package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/askrelay/chatgpt-ask-service/pkg/api/response"
	"github.com/askrelay/chatgpt-ask-service/pkg/domain"
	"github.com/askrelay/chatgpt-ask-service/pkg/logger"
)

type ChatStreamProvider interface {
	CreateChatStream(ctx context.Context, prompt domain.Prompt) (domain.ChatStream, error)
}

type ask struct {
	provider ChatStreamProvider
	writer   response.JSONResponseWriter
}

func NewAsk(provider ChatStreamProvider) *ask {
	return &ask{
		provider: provider,
		writer:   response.JSONResponseWriter{},
	}
}

type askRequest struct {
	Question string `json:"question"`
	ImageURL string `json:"imageUrl"`
}

func (a *ask) StreamAnswer(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writer.WriteErrorResponse(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	prompt, err := domain.NewPrompt(req.Question, req.ImageURL)
	if err != nil {
		a.writer.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	stream, err := a.provider.CreateChatStream(r.Context(), prompt)
	if err != nil {
		slog.ErrorContext(r.Context(), "opening upstream chat stream", logger.Err(err))
		a.writer.WriteErrorResponse(w, http.StatusInternalServerError, "Failed to get response from AI service.")
		return
	}
	defer stream.Close()

	sse, err := response.NewSSEStream(w)
	if err != nil {
		slog.ErrorContext(r.Context(), "starting event stream", logger.Err(err))
		a.writer.WriteErrorResponse(w, http.StatusInternalServerError, "Streaming is not supported.")
		return
	}

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			if err := sse.SendDone(); err != nil {
				slog.ErrorContext(r.Context(), "sending done event", logger.Err(err))
			}
			return
		}
		if err != nil {
			// The response is already in event-stream mode, so the failure
			// degrades to closing the connection without a done event.
			slog.ErrorContext(r.Context(), "receiving upstream fragment", logger.Err(err))
			return
		}

		if err := sse.SendChunk(chunk); err != nil {
			slog.ErrorContext(r.Context(), "sending chunk event", logger.Err(err))
			return
		}
	}
}
