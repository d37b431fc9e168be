package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/askrelay/chatgpt-ask-service/pkg/logger"
)

func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.ContextWithRequestID(r.Context(), uuid.NewString())

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
