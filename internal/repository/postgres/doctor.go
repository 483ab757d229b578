package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
	"github.com/jwalitptl/doctor-directory-api/internal/repository"
)

const uniqueViolation = "23505"

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	defer r.observe("doctors.list", time.Now())

	query := `SELECT ` + doctorColumns + ` FROM doctors ORDER BY created_at DESC, id DESC`

	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) ListTop(ctx context.Context, limit int) ([]*model.Doctor, error) {
	defer r.observe("doctors.top", time.Now())

	query := `SELECT ` + doctorColumns + ` FROM doctors ORDER BY search_count DESC, id ASC LIMIT $1`

	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list top doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) DistinctLocations(ctx context.Context) ([]string, error) {
	defer r.observe("doctors.locations", time.Now())

	query := `
		SELECT DISTINCT location FROM doctors
		WHERE location IS NOT NULL AND location <> ''
		ORDER BY location ASC
	`
	var locations []string
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

func (r *doctorRepository) DistinctSpecializations(ctx context.Context) ([]string, error) {
	defer r.observe("doctors.specializations", time.Now())

	query := `
		SELECT DISTINCT specialization FROM doctors
		WHERE specialization IS NOT NULL AND specialization <> ''
		ORDER BY specialization ASC
	`
	var specializations []string
	if err := r.db.SelectContext(ctx, &specializations, query); err != nil {
		return nil, fmt.Errorf("failed to list specializations: %w", err)
	}
	return specializations, nil
}

// Search runs the count and page queries in one read-only snapshot so the
// page always agrees with the reported total.
func (r *doctorRepository) Search(ctx context.Context, q model.SearchQuery) ([]*model.Doctor, int, error) {
	defer r.observe("doctors.search", time.Now())

	countQuery, pageQuery, args := searchQueries(q)
	pageArgs := append(append([]interface{}{}, args...), q.Limit, q.Offset())

	var (
		total   int
		doctors []*model.Doctor
	)
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := r.WithTx(ctx, opts, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &total, countQuery, args...); err != nil {
			return fmt.Errorf("failed to count doctors: %w", err)
		}
		if err := tx.SelectContext(ctx, &doctors, pageQuery, pageArgs...); err != nil {
			return fmt.Errorf("failed to search doctors: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return doctors, total, nil
}

func (r *doctorRepository) IncrementSearchCount(ctx context.Context, id int64) (*model.Doctor, error) {
	defer r.observe("doctors.increment", time.Now())

	query := `
		UPDATE doctors SET search_count = search_count + 1
		WHERE id = $1
		RETURNING ` + doctorColumns

	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to increment search count: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	defer r.observe("doctors.exists_email", time.Now())

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM doctors WHERE LOWER(email) = LOWER($1))`
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// Create inserts doctor and fills in the server-generated fields.
func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	defer r.observe("doctors.create", time.Now())

	query := `
		INSERT INTO doctors (
			name, email, phone, gender, age, specialization, institute,
			degree, location, experience_years, consultation_fee, bio,
			rating, image_url, search_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 0)
		RETURNING id, rating, search_count, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		doctor.Name,
		doctor.Email,
		doctor.Phone,
		doctor.Gender,
		doctor.Age,
		doctor.Specialization,
		doctor.Institute,
		doctor.Degree,
		doctor.Location,
		doctor.ExperienceYears,
		doctor.ConsultationFee,
		doctor.Bio,
		doctor.Rating,
		doctor.ImageURL,
	).Scan(&doctor.ID, &doctor.Rating, &doctor.SearchCount, &doctor.CreatedAt, &doctor.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM doctors`); err != nil {
		return 0, fmt.Errorf("failed to count doctors: %w", err)
	}
	return n, nil
}

func (r *doctorRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
