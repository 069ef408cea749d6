package server

import (
	"net/http"

	"github.com/bjaus/xmlconv/internal/ctxlog"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// withRequestID tags every request with a UUID and attaches a logger carrying
// it to the request context. A well-formed UUID sent by the client is reused.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get(RequestIDHeader))
		if err != nil {
			id = uuid.New()
		}
		w.Header().Set(RequestIDHeader, id.String())
		logger := s.logger.With("request_id", id.String())
		next.ServeHTTP(w, r.WithContext(ctxlog.WithLogger(r.Context(), logger)))
	})
}
