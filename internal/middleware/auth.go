package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/peerpresence/server-go/internal/audit"
	apperrors "github.com/peerpresence/server-go/internal/errors"
	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/util"
)

type contextKey string

const PersonContextKey contextKey = "person"

func GetPerson(ctx context.Context) *model.Person {
	if person, ok := ctx.Value(PersonContextKey).(*model.Person); ok {
		return person
	}
	return nil
}

// PersonID returns the authenticated person's id, or "" for anonymous
// requests.
func PersonID(ctx context.Context) string {
	if person := GetPerson(ctx); person != nil {
		return person.ID
	}
	return ""
}

// WithPerson returns ctx carrying person, as the auth middleware does.
func WithPerson(ctx context.Context, person *model.Person) context.Context {
	return context.WithValue(ctx, PersonContextKey, person)
}

// TokenParser extracts the person id from a bearer token.
type TokenParser interface {
	PersonIDFromToken(token string) (string, error)
}

type PersonFinder interface {
	FindByID(ctx context.Context, id string) (*model.Person, error)
}

type AuthMiddleware struct {
	tokens  TokenParser
	persons PersonFinder
}

func NewAuthMiddleware(tokens TokenParser, persons PersonFinder) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, persons: persons}
}

// Handler rejects requests without a valid bearer token for an existing
// person.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeError(w, apperrors.Unauthorized("Missing authentication token"))
			return
		}

		person, err := m.authenticate(r, token)
		if err != nil {
			writeError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPerson(r.Context(), person)))
	})
}

// Optional attaches the person when a valid token is present and lets the
// request through anonymously otherwise.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		person, err := m.authenticate(r, token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPerson(r.Context(), person)))
	})
}

func (m *AuthMiddleware) authenticate(r *http.Request, token string) (*model.Person, error) {
	personID, err := m.tokens.PersonIDFromToken(token)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventAuthFailure,
			Details: map[string]interface{}{"reason": "invalid token"},
		})
		return nil, apperrors.InvalidToken("Invalid token")
	}

	// Tokens minted elsewhere may carry ids that are not persons here.
	id, ok := util.NormalizeUUID(personID)
	if !ok {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventAuthFailure,
			Details: map[string]interface{}{"reason": "malformed subject"},
		})
		return nil, apperrors.Unauthorized("Invalid token")
	}

	person, err := m.persons.FindByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("auth middleware: database error")
		return nil, apperrors.Internal("Authentication failed")
	}
	if person == nil {
		log.Warn().Str("personId", id).Msg("auth middleware: token for unknown person")
		return nil, apperrors.Unauthorized("Invalid token")
	}
	return person, nil
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
