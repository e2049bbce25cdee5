package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/peerpresence/server-go/internal/audit"
	apperrors "github.com/peerpresence/server-go/internal/errors"
	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/repository"
	"github.com/peerpresence/server-go/internal/util"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

type UpdateProfileInput struct {
	Name      *string
	Email     *string
	Bio       *string
	AvatarURL *string
}

type AccountService struct {
	persons repository.PersonRepository
}

func NewAccountService(persons repository.PersonRepository) *AccountService {
	return &AccountService{persons: persons}
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.Person, error) {
	role := in.Role
	if role == "" {
		role = model.RoleStudent
	}
	if !role.Valid() {
		return nil, apperrors.InvalidInput("role", "must be student, tutor or admin")
	}

	hash, err := util.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	person, err := s.persons.Create(ctx, model.CreatePersonParams{
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         role,
	})
	if repository.IsUniqueViolation(err) {
		return nil, apperrors.Conflict("Email already in use")
	}
	if err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}

	audit.Log(ctx, audit.Event{
		Type:     audit.EventRegister,
		PersonID: person.ID,
		Details:  map[string]interface{}{"role": string(person.Role)},
	})
	return person, nil
}

func (s *AccountService) Find(ctx context.Context, personID string) (*model.Person, error) {
	person, err := s.persons.FindByID(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("find person: %w", err)
	}
	if person == nil {
		return nil, apperrors.NotFound("Person")
	}
	return person, nil
}

func (s *AccountService) Profile(ctx context.Context, personID string) (*model.Profile, error) {
	person, err := s.Find(ctx, personID)
	if err != nil {
		return nil, err
	}
	subjects, err := s.persons.ListSubjects(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	if subjects == nil {
		subjects = []model.PersonSubject{}
	}
	return &model.Profile{Person: person, Subjects: subjects}, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, personID string, in UpdateProfileInput) (*model.Person, error) {
	params := model.UpdatePersonParams{
		Bio:       in.Bio,
		AvatarURL: in.AvatarURL,
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.InvalidInput("name", "cannot be blank")
		}
		params.Name = &name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return nil, apperrors.InvalidInput("email", "cannot be blank")
		}
		params.Email = &email
	}

	person, err := s.persons.Update(ctx, personID, params)
	if repository.IsUniqueViolation(err) {
		return nil, apperrors.Conflict("Email already in use")
	}
	if err != nil {
		return nil, fmt.Errorf("update person: %w", err)
	}
	if person == nil {
		return nil, apperrors.NotFound("Person")
	}

	audit.Log(ctx, audit.Event{Type: audit.EventProfileUpdate, PersonID: personID})
	return person, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, personID, current, next string) error {
	if current == "" || next == "" {
		return apperrors.ValidationError("Both current and new password required")
	}

	person, err := s.Find(ctx, personID)
	if err != nil {
		return err
	}
	if !util.CheckPasswordHash(current, person.PasswordHash) {
		audit.Log(ctx, audit.Event{Type: audit.EventPasswordFailure, PersonID: personID})
		return apperrors.ValidationError("Current password is incorrect")
	}

	hash, err := util.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.persons.UpdatePassword(ctx, personID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	audit.Log(ctx, audit.Event{Type: audit.EventPasswordChange, PersonID: personID})
	return nil
}

func (s *AccountService) Delete(ctx context.Context, personID string) error {
	if err := s.persons.Delete(ctx, personID); err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	audit.Log(ctx, audit.Event{Type: audit.EventAccountDelete, PersonID: personID})
	return nil
}

// SubjectHistory lists the last booked session per subject, most recent
// first.
func (s *AccountService) SubjectHistory(ctx context.Context, personID string) ([]model.SubjectSession, error) {
	subjects, err := s.persons.ListSubjects(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	sessions := make([]model.SubjectSession, 0, len(subjects))
	for i := range subjects {
		sessions = append(sessions, subjects[i].Session())
	}
	return sessions, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
