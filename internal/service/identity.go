package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/peerpresence/server-go/internal/audit"
	apperrors "github.com/peerpresence/server-go/internal/errors"
	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/repository"
	"github.com/peerpresence/server-go/internal/util"
)

const shadowEmailDomain = "noemail.peerpresence"

var errLinkTaken = errors.New("tutor already linked")

// IdentityService maps a person id or a tutor listing id onto a canonical
// person id, creating a shadow person for listings that have none.
type IdentityService struct {
	tx      Transactor
	persons repository.PersonRepository
	tutors  repository.TutorRepository
	now     func() time.Time
}

func NewIdentityService(
	tx Transactor,
	persons repository.PersonRepository,
	tutors repository.TutorRepository,
) *IdentityService {
	return &IdentityService{
		tx:      tx,
		persons: persons,
		tutors:  tutors,
		now:     time.Now,
	}
}

// Resolve returns the canonical person id for ref. A second call with the same
// listing id returns the person created or linked by the first.
func (s *IdentityService) Resolve(ctx context.Context, ref string) (string, error) {
	id, ok := util.NormalizeUUID(ref)
	if !ok {
		return "", apperrors.InvalidInput("id", "must be a UUID")
	}

	person, err := s.persons.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("find person: %w", err)
	}
	if person != nil {
		return person.ID, nil
	}

	tutor, err := s.tutors.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("find tutor: %w", err)
	}
	if tutor == nil {
		return "", apperrors.NotFound("Peer")
	}

	return s.ensureTutorPerson(ctx, tutor)
}

// Lookup is the read-only variant of Resolve: it never creates or links a
// person and fails with NOT_FOUND when a listing has no linked person yet.
func (s *IdentityService) Lookup(ctx context.Context, ref string) (string, error) {
	id, ok := util.NormalizeUUID(ref)
	if !ok {
		return "", apperrors.InvalidInput("id", "must be a UUID")
	}

	person, err := s.persons.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("find person: %w", err)
	}
	if person != nil {
		return person.ID, nil
	}

	tutor, err := s.tutors.FindByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("find tutor: %w", err)
	}
	if tutor == nil || tutor.PersonID == nil {
		return "", apperrors.NotFound("Peer")
	}
	return *tutor.PersonID, nil
}

func (s *IdentityService) ensureTutorPerson(ctx context.Context, tutor *model.Tutor) (string, error) {
	if tutor.PersonID != nil {
		linked, err := s.persons.FindByID(ctx, *tutor.PersonID)
		if err != nil {
			return "", fmt.Errorf("find linked person: %w", err)
		}
		if linked != nil {
			return linked.ID, nil
		}
	}

	email := strings.ToLower(strings.TrimSpace(tutor.Email))
	if email != "" {
		existing, err := s.persons.FindByEmail(ctx, email)
		if err != nil {
			return "", fmt.Errorf("find person by email: %w", err)
		}
		if existing != nil {
			personID, err := s.link(ctx, tutor.ID, existing.ID)
			if !repository.IsUniqueViolation(err) {
				return personID, err
			}
			// That person already backs another listing.
			log.Warn().
				Str("tutorId", tutor.ID).
				Str("personId", existing.ID).
				Msg("listing email belongs to a person linked elsewhere, creating shadow person")
		}
	}

	personID, err := s.createShadow(ctx, tutor, email)
	if errors.Is(err, errLinkTaken) || repository.IsUniqueViolation(err) {
		return s.linkedPersonID(ctx, tutor.ID)
	}
	if err != nil {
		return "", err
	}
	return personID, nil
}

func (s *IdentityService) link(ctx context.Context, tutorID, personID string) (string, error) {
	linked, err := s.tutors.LinkPerson(ctx, tutorID, personID)
	if err != nil {
		return "", fmt.Errorf("link tutor: %w", err)
	}
	if !linked {
		return s.linkedPersonID(ctx, tutorID)
	}

	audit.Log(ctx, audit.Event{
		Type:     audit.EventTutorLink,
		PersonID: personID,
		TargetID: tutorID,
	})
	return personID, nil
}

// linkedPersonID re-reads a listing after losing a link race.
func (s *IdentityService) linkedPersonID(ctx context.Context, tutorID string) (string, error) {
	tutor, err := s.tutors.FindByID(ctx, tutorID)
	if err != nil {
		return "", fmt.Errorf("reload tutor: %w", err)
	}
	if tutor == nil || tutor.PersonID == nil {
		return "", apperrors.NotFound("Tutor person")
	}
	return *tutor.PersonID, nil
}

func (s *IdentityService) createShadow(ctx context.Context, tutor *model.Tutor, email string) (string, error) {
	if email == "" {
		email = fmt.Sprintf("tutor_%s@%s", tutor.ID, shadowEmailDomain)
	}
	taken, err := s.persons.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("check shadow email: %w", err)
	}
	if taken != nil {
		email = fmt.Sprintf("tutor_%s_%d@%s", tutor.ID, s.now().UnixMilli(), shadowEmailDomain)
	}

	secret, err := util.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("generate shadow password: %w", err)
	}
	hash, err := util.HashPassword(secret)
	if err != nil {
		return "", fmt.Errorf("hash shadow password: %w", err)
	}

	name := tutor.Name
	if name == "" {
		name = "Tutor"
	}

	var personID string
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		person, err := s.persons.WithTx(tx).Create(ctx, model.CreatePersonParams{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         model.RoleTutor,
			Bio:          tutor.Bio,
			AvatarURL:    tutor.AvatarURL,
		})
		if err != nil {
			return fmt.Errorf("create shadow person: %w", err)
		}

		linked, err := s.tutors.WithTx(tx).LinkPerson(ctx, tutor.ID, person.ID)
		if err != nil {
			return fmt.Errorf("link shadow person: %w", err)
		}
		if !linked {
			return errLinkTaken
		}
		personID = person.ID
		return nil
	})
	if err != nil {
		return "", err
	}

	log.Info().
		Str("tutorId", tutor.ID).
		Str("personId", personID).
		Msg("shadow person created for tutor")

	audit.Log(ctx, audit.Event{
		Type:     audit.EventShadowCreate,
		PersonID: personID,
		TargetID: tutor.ID,
		Details:  map[string]interface{}{"email": util.MaskEmail(email)},
	})

	return personID, nil
}
