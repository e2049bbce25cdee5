package middleware

import (
	"net/http"

	apperrors "github.com/peerpresence/server-go/internal/errors"
	"github.com/peerpresence/server-go/internal/httputil"
)

const DefaultMaxBodySize = 1 << 20

// BodyLimit rejects declared oversized bodies up front and caps the rest
// while they are read.
func BodyLimit(maxSize int64) func(http.Handler) http.Handler {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxSize {
				httputil.WriteErrorWithStatus(w, http.StatusRequestEntityTooLarge,
					apperrors.InvalidInput("body", "too large"))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxSize)
			}
			next.ServeHTTP(w, r)
		})
	}
}
