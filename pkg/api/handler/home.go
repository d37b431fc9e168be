package handler

import (
	"log/slog"
	"net/http"

	"github.com/askrelay/chatgpt-ask-service/pkg/logger"
)

type home struct {
	page []byte
}

func NewHome(page []byte) *home {
	return &home{page: page}
}

func (h *home) ServePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(h.page); err != nil {
		slog.ErrorContext(r.Context(), "writing home page", logger.Err(err))
	}
}
