package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/peerpresence/server-go/internal/auth"
	"github.com/peerpresence/server-go/internal/httputil"
	"github.com/peerpresence/server-go/internal/middleware"
	"github.com/peerpresence/server-go/internal/model"
)

const testSecret = "handler-test-secret-long-enough-123456"

// testAuth wires the real bearer-token middleware against a person mock that
// knows alice and bob.
type testAuth struct {
	tokens  *auth.JWT
	persons *mockPersonRepo
	mw      *middleware.AuthMiddleware
	alice   *model.Person
	bob     *model.Person
}

func newTestAuth(t *testing.T) *testAuth {
	t.Helper()
	a := &testAuth{
		tokens:  auth.NewJWT(testSecret),
		persons: new(mockPersonRepo),
		alice:   &model.Person{ID: personAlice, Name: "Alice", Email: "alice@example.com", Role: model.RoleStudent},
		bob:     &model.Person{ID: personBob, Name: "Bob", Email: "bob@example.com", Role: model.RoleTutor},
	}
	a.persons.On("FindByID", mock.Anything, personAlice).Return(a.alice, nil).Maybe()
	a.persons.On("FindByID", mock.Anything, personBob).Return(a.bob, nil).Maybe()
	a.mw = middleware.NewAuthMiddleware(a.tokens, a.persons)
	return a
}

func (a *testAuth) token(t *testing.T, personID string) string {
	t.Helper()
	token, err := a.tokens.Sign(personID, time.Hour)
	require.NoError(t, err)
	return token
}

// serve sends a request through h. body may be nil, a string sent verbatim,
// or a value encoded as JSON.
func serve(t *testing.T, h http.Handler, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	return decodeBody[httputil.ErrorResponse](t, rec)
}
