package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// Upstream ids are echoed only when they look like opaque tokens.
var upstreamRequestID = regexp.MustCompile(`^[A-Za-z0-9._:-]{8,128}$`)

func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if !upstreamRequestID.MatchString(id) {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
