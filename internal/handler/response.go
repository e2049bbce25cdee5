package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/peerpresence/server-go/internal/errors"
	"github.com/peerpresence/server-go/internal/httputil"
	"github.com/peerpresence/server-go/internal/middleware"
	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/util"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

// writeError logs errors that are not AppErrors, which are infrastructure
// failures, and replies with the mapped status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.AsAppError(err)
	switch {
	case !ok:
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	case appErr.Unwrap() != nil:
		log.Debug().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request rejected")
	}
	httputil.WriteError(w, err)
}

// decodeJSON reads the body into dst and runs its validate tags. An empty
// body decodes as an empty object.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.InvalidInput("body", "too large")
		}
		return apperrors.Wrap(apperrors.ErrCodeValidation, "Invalid request body", err)
	}
	return util.ValidateStruct(dst)
}

// currentPerson returns the authenticated person. Routes using it sit behind
// the auth middleware, so a nil person is a wiring bug reported as 401.
func currentPerson(w http.ResponseWriter, r *http.Request) *model.Person {
	person := middleware.GetPerson(r.Context())
	if person == nil {
		httputil.WriteError(w, apperrors.Unauthorized("Unauthorized"))
	}
	return person
}
