package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/peerpresence/server-go/internal/database"
	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/repository"
)

// fakeTx runs the function without a real transaction; mock repositories
// ignore the nil tx passed to WithTx.
type fakeTx struct {
	calls int
}

func (f *fakeTx) WithTx(ctx context.Context, fn database.TxFunc) error {
	f.calls++
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

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Create(ctx context.Context, params model.CreateMessageParams) (*model.Message, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *mockMessageRepo) FindByConversationID(ctx context.Context, conversationID string) ([]model.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
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

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) EmitToRoom(ctx context.Context, room, event string, payload any) error {
	args := m.Called(ctx, room, event, payload)
	return args.Error(0)
}

func (m *mockNotifier) EmitToPerson(ctx context.Context, personID, event string, payload any) error {
	args := m.Called(ctx, personID, event, payload)
	return args.Error(0)
}

// memConversationRepo is an in-memory ConversationRepository whose
// StartOrGet honors the uniqueness of the participants key.
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

func (r *memConversationRepo) put(conv model.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[conv.ID] = &conv
	r.byKey[conv.ParticipantsKey] = conv.ID
}

// Fixed ids for readable tests.
const (
	personAlice  = "11111111-1111-4111-8111-111111111111"
	personBob    = "22222222-2222-4222-8222-222222222222"
	personCarol  = "33333333-3333-4333-8333-333333333333"
	tutorListing = "44444444-4444-4444-8444-444444444444"
)

func uuidFor(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}
