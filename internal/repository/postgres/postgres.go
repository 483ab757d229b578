package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/doctor-directory-api/internal/repository"
	"github.com/jwalitptl/doctor-directory-api/pkg/metrics"
)

type doctorRepository struct {
	BaseRepository
}

// NewDoctorRepository returns the Postgres doctor store. m may be nil.
func NewDoctorRepository(db *sqlx.DB, m *metrics.Metrics) repository.DoctorRepository {
	return &doctorRepository{BaseRepository: NewBaseRepository(db, m)}
}
