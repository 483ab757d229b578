package doctor

import (
	"context"
	stderrors "errors"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
	"github.com/jwalitptl/doctor-directory-api/internal/repository"
	"github.com/jwalitptl/doctor-directory-api/pkg/errors"
	"github.com/jwalitptl/doctor-directory-api/pkg/metrics"
	"github.com/jwalitptl/doctor-directory-api/pkg/validator"
)

// Servicer is the directory API consumed by the HTTP layer.
type Servicer interface {
	ListDoctors(ctx context.Context) ([]*model.Doctor, error)
	TopDoctors(ctx context.Context, rawLimit string) ([]*model.Doctor, error)
	Cities(ctx context.Context) ([]string, error)
	Specializations(ctx context.Context) ([]string, error)
	Search(ctx context.Context, p SearchParams) (*model.SearchResult, error)
	GetDoctor(ctx context.Context, rawID string) (*model.Doctor, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

var _ Servicer = (*Service)(nil)

type Service struct {
	repo      repository.DoctorRepository
	validator *validator.Validator
	metrics   *metrics.Metrics
}

func NewService(repo repository.DoctorRepository, v *validator.Validator, m *metrics.Metrics) *Service {
	return &Service{
		repo:      repo,
		validator: v,
		metrics:   m,
	}
}

// ListDoctors returns every doctor, newest first.
func (s *Service) ListDoctors(ctx context.Context) ([]*model.Doctor, error) {
	doctors, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.NewInternalWithMessage("Failed to fetch doctors", err)
	}
	return doctors, nil
}

// TopDoctors returns the most viewed doctors.
func (s *Service) TopDoctors(ctx context.Context, rawLimit string) ([]*model.Doctor, error) {
	doctors, err := s.repo.ListTop(ctx, ParseTopLimit(rawLimit))
	if err != nil {
		return nil, errors.NewInternalWithMessage("Failed to fetch top doctors", err)
	}
	return doctors, nil
}

func (s *Service) Cities(ctx context.Context) ([]string, error) {
	cities, err := s.repo.DistinctLocations(ctx)
	if err != nil {
		return nil, errors.NewInternalWithMessage("Failed to fetch cities", err)
	}
	return cities, nil
}

func (s *Service) Specializations(ctx context.Context) ([]string, error) {
	specs, err := s.repo.DistinctSpecializations(ctx)
	if err != nil {
		return nil, errors.NewInternalWithMessage("Failed to fetch specializations", err)
	}
	return specs, nil
}

// Search validates p before touching the store.
func (s *Service) Search(ctx context.Context, p SearchParams) (*model.SearchResult, error) {
	q, err := ParseSearchParams(s.validator, p)
	if err != nil {
		return nil, err
	}

	doctors, total, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, errors.NewInternalWithMessage("Search failed", err)
	}
	if s.metrics != nil {
		s.metrics.SearchQueries.Inc()
	}

	log.Debug().
		Int("total", total).
		Int("page", q.Page).
		Str("sort_by", q.Sort.Field.Column()).
		Msg("doctor search")

	return &model.SearchResult{
		Doctors:  doctors,
		PageInfo: model.NewPageInfo(q.Page, q.Limit, total),
		Query:    q,
	}, nil
}

// GetDoctor counts a view and returns the doctor with the updated count.
func (s *Service) GetDoctor(ctx context.Context, rawID string) (*model.Doctor, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}

	doctor, err := s.repo.IncrementSearchCount(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFound("Doctor", err)
		}
		return nil, errors.NewInternalWithMessage("Failed to fetch doctor", err)
	}
	if s.metrics != nil {
		s.metrics.DoctorViews.Inc()
	}
	return doctor, nil
}

// Count backs the database check endpoint.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, errors.NewInternalWithMessage("Database connection failed", err)
	}
	return n, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
