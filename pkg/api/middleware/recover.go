package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/askrelay/chatgpt-ask-service/pkg/api/response"
	"github.com/askrelay/chatgpt-ask-service/pkg/logger"
)

// Recover converts handler panics into a structured 500 response. If the
// handler already started writing the response, a structured error can no
// longer be sent; the connection is aborted so the client sees a broken
// stream instead of stray bytes.
func Recover(next http.Handler) http.Handler {
	writer := response.JSONResponseWriter{}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &trackingResponseWriter{ResponseWriter: w}

		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(r.Context(), "handler panic", logger.Err(fmt.Errorf("%v", rec)))
				if tw.started {
					panic(http.ErrAbortHandler)
				}
				writer.WriteErrorResponse(tw, http.StatusInternalServerError, "Internal server error.")
			}
		}()

		next.ServeHTTP(tw, r)
	})
}

type trackingResponseWriter struct {
	http.ResponseWriter
	started bool
}

func (w *trackingResponseWriter) WriteHeader(statusCode int) {
	w.started = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *trackingResponseWriter) Write(b []byte) (int, error) {
	w.started = true
	return w.ResponseWriter.Write(b)
}

func (w *trackingResponseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
