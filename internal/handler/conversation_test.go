package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/service"
)

type chatFixture struct {
	auth     *testAuth
	convs    *memConversationRepo
	msgs     *memMessageRepo
	notifier *recordingNotifier
	router   http.Handler
}

// newChatFixture mounts conversations and messages as main does. The tutor
// listing resolves to bob.
func newChatFixture(t *testing.T) *chatFixture {
	a := newTestAuth(t)
	f := &chatFixture{
		auth:     a,
		convs:    newMemConversationRepo(),
		msgs:     &memMessageRepo{},
		notifier: &recordingNotifier{},
	}
	resolver := staticResolver{personAlice: personAlice, personBob: personBob, tutorID: personBob}
	convSvc := service.NewConversationService(f.convs, resolver)
	msgSvc := service.NewMessageService(f.msgs, convSvc, f.notifier)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(a.mw.Handler)
		r.Mount("/conversations", NewConversationHandler(convSvc).Routes())
		r.Mount("/messages", NewMessageHandler(msgSvc).Routes())
	})
	f.router = r
	return f
}

func (f *chatFixture) start(t *testing.T, as, peerRef string) model.ConversationView {
	t.Helper()
	rec := serve(t, f.router, http.MethodPost, "/conversations/start", map[string]string{"userId": peerRef}, f.auth.token(t, as))
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeBody[model.ConversationView](t, rec)
}

func TestConversationHandler_Start(t *testing.T) {
	t.Run("starting twice from either side yields one conversation", func(t *testing.T) {
		f := newChatFixture(t)

		first := f.start(t, personAlice, tutorID)
		second := f.start(t, personBob, personAlice)

		assert.Equal(t, first.ID, second.ID)
		assert.ElementsMatch(t, []string{personAlice, personBob}, first.Participants)
		count, _ := f.convs.Count(context.Background())
		assert.Equal(t, 1, count)
	})

	t.Run("missing peer", func(t *testing.T) {
		f := newChatFixture(t)

		rec := serve(t, f.router, http.MethodPost, "/conversations/start", map[string]string{}, f.auth.token(t, personAlice))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown peer", func(t *testing.T) {
		f := newChatFixture(t)

		rec := serve(t, f.router, http.MethodPost, "/conversations/start",
			map[string]string{"userId": uuidFor(99)}, f.auth.token(t, personAlice))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("talking to yourself is rejected", func(t *testing.T) {
		f := newChatFixture(t)

		rec := serve(t, f.router, http.MethodPost, "/conversations/start",
			map[string]string{"userId": personAlice}, f.auth.token(t, personAlice))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestConversationHandler_Mine(t *testing.T) {
	f := newChatFixture(t)
	bobName := "Bob"
	tutorName := "Prof. Bob"
	f.convs.peers = []model.PeerIdentity{{PersonID: personBob, PersonName: &bobName, TutorName: &tutorName}}
	f.start(t, personAlice, personBob)

	rec := serve(t, f.router, http.MethodGet, "/conversations/mine", nil, f.auth.token(t, personAlice))

	require.Equal(t, http.StatusOK, rec.Code)
	summaries := decodeBody[[]model.ConversationSummary](t, rec)
	require.Len(t, summaries, 1)
	assert.Equal(t, personBob, summaries[0].Peer.ID)
	assert.Equal(t, "Prof. Bob", summaries[0].Peer.Name)
}

func TestMessageHandler(t *testing.T) {
	t.Run("send stores, notifies and lists", func(t *testing.T) {
		f := newChatFixture(t)
		conv := f.start(t, personAlice, personBob)

		rec := serve(t, f.router, http.MethodPost, "/messages/"+conv.ID,
			map[string]string{"text": "  hello bob  "}, f.auth.token(t, personAlice))

		require.Equal(t, http.StatusOK, rec.Code)
		msg := decodeBody[model.Message](t, rec)
		assert.Equal(t, "hello bob", msg.Text)
		assert.Equal(t, personAlice, msg.SenderID)
		assert.Equal(t, personBob, msg.RecipientID)
		assert.Equal(t, []emitted{
			{target: "room:" + conv.ID, event: service.EventMessageNew},
			{target: "person:" + personBob, event: service.EventNotifyDM},
		}, f.notifier.events)

		rec = serve(t, f.router, http.MethodGet, "/messages/"+conv.ID, nil, f.auth.token(t, personBob))

		require.Equal(t, http.StatusOK, rec.Code)
		msgs := decodeBody[[]model.Message](t, rec)
		require.Len(t, msgs, 1)
		assert.Equal(t, "hello bob", msgs[0].Text)
	})

	t.Run("long text is truncated", func(t *testing.T) {
		f := newChatFixture(t)
		conv := f.start(t, personAlice, personBob)

		rec := serve(t, f.router, http.MethodPost, "/messages/"+conv.ID,
			map[string]string{"text": strings.Repeat("é", 4100)}, f.auth.token(t, personAlice))

		require.Equal(t, http.StatusOK, rec.Code)
		msg := decodeBody[model.Message](t, rec)
		assert.Equal(t, 4000, len([]rune(msg.Text)))
	})

	t.Run("blank text", func(t *testing.T) {
		f := newChatFixture(t)
		conv := f.start(t, personAlice, personBob)

		rec := serve(t, f.router, http.MethodPost, "/messages/"+conv.ID,
			map[string]string{"text": "   "}, f.auth.token(t, personAlice))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, f.notifier.events)
	})

	t.Run("outsiders are forbidden", func(t *testing.T) {
		f := newChatFixture(t)
		conv := f.start(t, personAlice, personBob)
		carol := &model.Person{ID: uuidFor(3), Name: "Carol"}
		f.auth.persons.On("FindByID", mock.Anything, carol.ID).Return(carol, nil)

		rec := serve(t, f.router, http.MethodGet, "/messages/"+conv.ID, nil, f.auth.token(t, carol.ID))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = serve(t, f.router, http.MethodPost, "/messages/"+conv.ID,
			map[string]string{"text": "hi"}, f.auth.token(t, carol.ID))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		f := newChatFixture(t)

		rec := serve(t, f.router, http.MethodGet, "/messages/"+uuidFor(42), nil, f.auth.token(t, personAlice))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
