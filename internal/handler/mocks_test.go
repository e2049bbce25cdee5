package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/peerpresence/server-go/internal/database"
	apperrors "github.com/peerpresence/server-go/internal/errors"
	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/repository"
)

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type mockPersonRepo struct {
	mock.Mock
}

func (m *mockPersonRepo) FindByID(ctx context.Context, id string) (*model.Person, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Person), args.Error(1)
}

func (m *mockPersonRepo) FindByEmail(ctx context.Context, email string) (*model.Person, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Person), args.Error(1)
}

func (m *mockPersonRepo) Create(ctx context.Context, params model.CreatePersonParams) (*model.Person, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Person), args.Error(1)
}

func (m *mockPersonRepo) Update(ctx context.Context, id string, params model.UpdatePersonParams) (*model.Person, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Person), args.Error(1)
}

func (m *mockPersonRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockPersonRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockPersonRepo) ListSubjects(ctx context.Context, personID string) ([]model.PersonSubject, error) {
	args := m.Called(ctx, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PersonSubject), args.Error(1)
}

func (m *mockPersonRepo) UpsertSubject(ctx context.Context, params model.UpsertSubjectParams) (*model.PersonSubject, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PersonSubject), args.Error(1)
}

func (m *mockPersonRepo) UpdateSubjectSession(ctx context.Context, personID, name, date, clock, timezone string, duration int) error {
	args := m.Called(ctx, personID, name, date, clock, timezone, duration)
	return args.Error(0)
}

func (m *mockPersonRepo) DeleteSubject(ctx context.Context, personID, name string) error {
	args := m.Called(ctx, personID, name)
	return args.Error(0)
}

func (m *mockPersonRepo) WithTx(tx *sqlx.Tx) repository.PersonRepository {
	return m
}

type mockTutorRepo struct {
	mock.Mock
}

func (m *mockTutorRepo) FindByID(ctx context.Context, id string) (*model.Tutor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tutor), args.Error(1)
}

func (m *mockTutorRepo) FindByPersonID(ctx context.Context, personID string) (*model.Tutor, error) {
	args := m.Called(ctx, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tutor), args.Error(1)
}

func (m *mockTutorRepo) List(ctx context.Context, query string) ([]model.Tutor, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tutor), args.Error(1)
}

func (m *mockTutorRepo) SearchBySubject(ctx context.Context, term string, limit int) ([]model.Tutor, error) {
	args := m.Called(ctx, term, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tutor), args.Error(1)
}

func (m *mockTutorRepo) SearchCandidates(ctx context.Context, term string, limit int) ([]model.Tutor, error) {
	args := m.Called(ctx, term, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tutor), args.Error(1)
}

func (m *mockTutorRepo) LinkPerson(ctx context.Context, id, personID string) (bool, error) {
	args := m.Called(ctx, id, personID)
	return args.Bool(0), args.Error(1)
}

func (m *mockTutorRepo) RatingStats(ctx context.Context, id string) (*model.RatingStats, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RatingStats), args.Error(1)
}

func (m *mockTutorRepo) ListReviews(ctx context.Context, tutorID string) ([]model.TutorReview, error) {
	args := m.Called(ctx, tutorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TutorReview), args.Error(1)
}

func (m *mockTutorRepo) UpsertReview(ctx context.Context, params model.UpsertReviewParams) (*model.TutorReview, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TutorReview), args.Error(1)
}

func (m *mockTutorRepo) WithTx(tx *sqlx.Tx) repository.TutorRepository {
	return m
}

type mockPostRepo struct {
	mock.Mock
}

func (m *mockPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *mockPostRepo) List(ctx context.Context, viewerID string) ([]model.PostView, error) {
	args := m.Called(ctx, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PostView), args.Error(1)
}

func (m *mockPostRepo) ListSaved(ctx context.Context, personID string) ([]model.PostView, error) {
	args := m.Called(ctx, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PostView), args.Error(1)
}

func (m *mockPostRepo) Create(ctx context.Context, params model.CreatePostParams) (*model.Post, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *mockPostRepo) FindVote(ctx context.Context, postID, personID string) (model.VoteValue, error) {
	args := m.Called(ctx, postID, personID)
	return args.Get(0).(model.VoteValue), args.Error(1)
}

func (m *mockPostRepo) SetVote(ctx context.Context, postID, personID string, value model.VoteValue) error {
	args := m.Called(ctx, postID, personID, value)
	return args.Error(0)
}

func (m *mockPostRepo) DeleteVote(ctx context.Context, postID, personID string) error {
	args := m.Called(ctx, postID, personID)
	return args.Error(0)
}

func (m *mockPostRepo) Score(ctx context.Context, postID string) (int, error) {
	args := m.Called(ctx, postID)
	return args.Int(0), args.Error(1)
}

func (m *mockPostRepo) IsFavorite(ctx context.Context, postID, personID string) (bool, error) {
	args := m.Called(ctx, postID, personID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPostRepo) AddFavorite(ctx context.Context, postID, personID string) error {
	args := m.Called(ctx, postID, personID)
	return args.Error(0)
}

func (m *mockPostRepo) RemoveFavorite(ctx context.Context, postID, personID string) error {
	args := m.Called(ctx, postID, personID)
	return args.Error(0)
}

func (m *mockPostRepo) CountFavorites(ctx context.Context, postID string) (int, error) {
	args := m.Called(ctx, postID)
	return args.Int(0), args.Error(1)
}

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) Create(ctx context.Context, params model.CreateBookingParams) (*model.Booking, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *mockBookingRepo) FindByIDForStudent(ctx context.Context, id, studentID string) (*model.Booking, error) {
	args := m.Called(ctx, id, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *mockBookingRepo) UpdateSchedule(ctx context.Context, id, date, clock, timezone string) (*model.Booking, error) {
	args := m.Called(ctx, id, date, clock, timezone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *mockBookingRepo) DeleteForStudent(ctx context.Context, id, studentID string) (*model.Booking, error) {
	args := m.Called(ctx, id, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *mockBookingRepo) WithTx(tx *sqlx.Tx) repository.BookingRepository {
	return m
}

type stubCatalogRepo struct {
	courses   []model.Course
	subjects  []model.Subject
	lastTerm  string
	lastLimit int
	err       error
}

func (s *stubCatalogRepo) ListCourses(ctx context.Context) ([]model.Course, error) {
	return s.courses, s.err
}

func (s *stubCatalogRepo) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	return s.subjects, s.err
}

func (s *stubCatalogRepo) SearchSubjects(ctx context.Context, term string, limit int) ([]model.Subject, error) {
	s.lastTerm = term
	s.lastLimit = limit
	return s.subjects, s.err
}

// memConversationRepo keeps conversations in memory; StartOrGet honors the
// uniqueness of the participants key.
type memConversationRepo struct {
	mu     sync.Mutex
	byID   map[string]*model.Conversation
	byKey  map[string]string
	nextID int
	peers  []model.PeerIdentity
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{
		byID:  make(map[string]*model.Conversation),
		byKey: make(map[string]string),
	}
}

func (r *memConversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	c := *conv
	return &c, nil
}

func (r *memConversationRepo) StartOrGet(ctx context.Context, a, b, key string) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byKey[key]; ok {
		c := *r.byID[id]
		return &c, nil
	}
	r.nextID++
	id := uuidFor(r.nextID)
	conv := &model.Conversation{ID: id, ParticipantA: a, ParticipantB: b, ParticipantsKey: key}
	r.byID[id] = conv
	r.byKey[key] = id
	c := *conv
	return &c, nil
}

func (r *memConversationRepo) FindByParticipant(ctx context.Context, personID string) ([]model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Conversation
	for _, c := range r.byID {
		if c.HasParticipant(personID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *memConversationRepo) PeerIdentities(ctx context.Context, personIDs []string) ([]model.PeerIdentity, error) {
	return r.peers, nil
}

func (r *memConversationRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

type memMessageRepo struct {
	mu   sync.Mutex
	msgs []model.Message
}

func (r *memMessageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := model.Message{
		ID:             uuidFor(1000 + len(r.msgs)),
		ConversationID: params.ConversationID,
		SenderID:       params.SenderID,
		RecipientID:    params.RecipientID,
		Text:           params.Text,
		CreatedAt:      time.Now(),
	}
	r.msgs = append(r.msgs, msg)
	return &msg, nil
}

func (r *memMessageRepo) FindByConversationID(ctx context.Context, conversationID string) ([]model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Message
	for _, m := range r.msgs {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

type stubGlobalRepo struct {
	msgs []model.GlobalMessage
	err  error
}

func (s *stubGlobalRepo) Create(ctx context.Context, params model.CreateGlobalMessageParams) (*model.GlobalMessage, error) {
	msg := model.GlobalMessage{
		ID:        uuidFor(2000 + len(s.msgs)),
		Sender:    params.Sender,
		Text:      params.Text,
		Timestamp: params.Timestamp,
	}
	s.msgs = append(s.msgs, msg)
	return &msg, nil
}

func (s *stubGlobalRepo) FindAll(ctx context.Context) ([]model.GlobalMessage, error) {
	return s.msgs, s.err
}

func (s *stubGlobalRepo) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	return 0, nil
}

// staticResolver maps peer references to person ids.
type staticResolver map[string]string

func (s staticResolver) Resolve(ctx context.Context, ref string) (string, error) {
	if id, ok := s[ref]; ok {
		return id, nil
	}
	return "", apperrors.NotFound("Person")
}

type emitted struct {
	target string
	event  string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []emitted
}

func (n *recordingNotifier) EmitToRoom(ctx context.Context, room, event string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, emitted{target: "room:" + room, event: event})
	return nil
}

func (n *recordingNotifier) EmitToPerson(ctx context.Context, personID, event string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, emitted{target: "person:" + personID, event: event})
	return nil
}

const (
	personAlice = "11111111-1111-4111-8111-111111111111"
	personBob   = "22222222-2222-4222-8222-222222222222"
	tutorID     = "44444444-4444-4444-8444-444444444444"
	postID      = "55555555-5555-4555-8555-555555555555"
	bookingID   = "66666666-6666-4666-8666-666666666666"
)

func uuidFor(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}
