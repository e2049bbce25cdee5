package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/peerpresence/server-go/internal/config"
	"github.com/peerpresence/server-go/internal/model"
	"github.com/peerpresence/server-go/internal/repository"
)

type CatalogService struct {
	repo repository.CatalogRepository
}

func NewCatalogService(repo repository.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) Courses(ctx context.Context) ([]model.Course, error) {
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if courses == nil {
		courses = []model.Course{}
	}
	return courses, nil
}

func (s *CatalogService) Subjects(ctx context.Context) ([]model.Subject, error) {
	subjects, err := s.repo.ListSubjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	if subjects == nil {
		subjects = []model.Subject{}
	}
	return subjects, nil
}

func (s *CatalogService) SearchSubjects(ctx context.Context, term string, limit int) ([]model.Subject, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < config.SearchMinTermLength {
		return []model.Subject{}, nil
	}
	if limit <= 0 {
		limit = config.SubjectSearchMaxRows
	}
	if limit > config.SearchMaxRows {
		limit = config.SearchMaxRows
	}
	subjects, err := s.repo.SearchSubjects(ctx, term, limit)
	if err != nil {
		return nil, fmt.Errorf("search subjects: %w", err)
	}
	if subjects == nil {
		subjects = []model.Subject{}
	}
	return subjects, nil
}
