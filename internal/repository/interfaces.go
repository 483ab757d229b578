package repository

import (
	"context"
	"errors"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when an insert violates the unique email constraint.
	ErrDuplicateEmail = errors.New("email already registered")
)

type (
	// DoctorRepository is the persistent doctor store.
	DoctorRepository interface {
		List(ctx context.Context) ([]*model.Doctor, error)
		ListTop(ctx context.Context, limit int) ([]*model.Doctor, error)
		DistinctLocations(ctx context.Context) ([]string, error)
		DistinctSpecializations(ctx context.Context) ([]string, error)
		// Search returns one page of matches and the total number of matching rows.
		Search(ctx context.Context, q model.SearchQuery) ([]*model.Doctor, int, error)
		// IncrementSearchCount bumps the popularity counter and returns the updated row.
		IncrementSearchCount(ctx context.Context, id int64) (*model.Doctor, error)
		ExistsByEmail(ctx context.Context, email string) (bool, error)
		Create(ctx context.Context, doctor *model.Doctor) error
		Count(ctx context.Context) (int, error)
		Ping(ctx context.Context) error
	}
)
