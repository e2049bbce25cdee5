package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/peerpresence/server-go/internal/config"
	apperrors "github.com/peerpresence/server-go/internal/errors"
	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/repository"
	"github.com/peerpresence/server-go/internal/util"
)

// Search scores, highest first.
const (
	scoreNamePrefix   = 100
	scoreNameContains = 75
	scoreSubject      = 50
	scoreBio          = 25
)

// searchCandidateRows bounds how many loose matches are ranked in memory.
const searchCandidateRows = 100

type TutorService struct {
	tutors repository.TutorRepository
}

func NewTutorService(tutors repository.TutorRepository) *TutorService {
	return &TutorService{tutors: tutors}
}

func (s *TutorService) List(ctx context.Context, query string) ([]model.Tutor, error) {
	tutors, err := s.tutors.List(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("list tutors: %w", err)
	}
	if tutors == nil {
		tutors = []model.Tutor{}
	}
	return tutors, nil
}

// SearchBySubject returns up to five tutors, best rated first. Terms shorter
// than two characters yield an empty list.
func (s *TutorService) SearchBySubject(ctx context.Context, term string, limit int) ([]model.Tutor, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < config.SearchMinTermLength {
		return []model.Tutor{}, nil
	}
	if limit <= 0 || limit > config.SubjectSearchMaxRows {
		limit = config.SubjectSearchMaxRows
	}
	tutors, err := s.tutors.SearchBySubject(ctx, term, limit)
	if err != nil {
		return nil, fmt.Errorf("search tutors by subject: %w", err)
	}
	if tutors == nil {
		tutors = []model.Tutor{}
	}
	return tutors, nil
}

// Search ranks tutors by where the term matches: name prefix, then anywhere
// in the name, then subjects, then bio. Ties keep name order.
func (s *TutorService) Search(ctx context.Context, term string, limit int) ([]model.RankedTutor, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < config.SearchMinTermLength {
		return []model.RankedTutor{}, nil
	}
	if limit <= 0 {
		limit = config.SubjectSearchMaxRows
	}
	if limit > config.SearchMaxRows {
		limit = config.SearchMaxRows
	}

	candidates, err := s.tutors.SearchCandidates(ctx, term, searchCandidateRows)
	if err != nil {
		return nil, fmt.Errorf("search tutors: %w", err)
	}

	needle := strings.ToLower(term)
	ranked := make([]model.RankedTutor, 0, len(candidates))
	for i := range candidates {
		score := rankTutor(&candidates[i], needle)
		if score == 0 {
			continue
		}
		ranked = append(ranked, model.RankedTutor{Tutor: &candidates[i], Score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func rankTutor(t *model.Tutor, needle string) int {
	name := strings.ToLower(t.Name)
	switch {
	case strings.HasPrefix(name, needle):
		return scoreNamePrefix
	case strings.Contains(name, needle):
		return scoreNameContains
	}
	for _, subject := range t.Subjects {
		if strings.Contains(strings.ToLower(subject), needle) {
			return scoreSubject
		}
	}
	if strings.Contains(strings.ToLower(t.Bio), needle) {
		return scoreBio
	}
	return 0
}

func (s *TutorService) Detail(ctx context.Context, tutorID string) (*model.TutorDetail, error) {
	tutor, err := s.find(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	stats, err := s.tutors.RatingStats(ctx, tutor.ID)
	if err != nil {
		return nil, fmt.Errorf("rating stats: %w", err)
	}
	detail := &model.TutorDetail{Tutor: tutor}
	if stats != nil {
		detail.RatingAvg = stats.RatingAvg
		detail.RatingCount = stats.RatingCount
	}
	return detail, nil
}

func (s *TutorService) Reviews(ctx context.Context, tutorID string) ([]model.TutorReview, error) {
	tutor, err := s.find(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.tutors.ListReviews(ctx, tutor.ID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []model.TutorReview{}
	}
	return reviews, nil
}

// Review records authorID's review of the tutor, replacing any earlier one.
func (s *TutorService) Review(ctx context.Context, tutorID, authorID string, rating int, comment string) (*model.TutorReview, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.ValidationError("Rating must be 1-5")
	}
	tutor, err := s.find(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	review, err := s.tutors.UpsertReview(ctx, model.UpsertReviewParams{
		TutorID:  tutor.ID,
		AuthorID: authorID,
		Rating:   rating,
		Comment:  strings.TrimSpace(comment),
	})
	if err != nil {
		return nil, fmt.Errorf("upsert review: %w", err)
	}
	return review, nil
}

func (s *TutorService) find(ctx context.Context, tutorID string) (*model.Tutor, error) {
	id, ok := util.NormalizeUUID(tutorID)
	if !ok {
		return nil, apperrors.InvalidInput("tutor id", "must be a UUID")
	}
	tutor, err := s.tutors.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find tutor: %w", err)
	}
	if tutor == nil {
		return nil, apperrors.NotFound("Tutor")
	}
	return tutor, nil
}
