package model

import "time"

// Doctor is a row of the doctors table. JSON names follow the column names
// the mobile client binds to.
type Doctor struct {
	ID              int64     `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Email           string    `db:"email" json:"email"`
	Phone           string    `db:"phone" json:"phone"`
	Gender          *string   `db:"gender" json:"gender"`
	Age             *int      `db:"age" json:"age"`
	Specialization  string    `db:"specialization" json:"specialization"`
	Institute       *string   `db:"institute" json:"institute"`
	Degree          *string   `db:"degree" json:"degree"`
	Location        string    `db:"location" json:"location"`
	ExperienceYears int       `db:"experience_years" json:"experience_years"`
	ConsultationFee int       `db:"consultation_fee" json:"consultation_fee"`
	Bio             *string   `db:"bio" json:"bio"`
	Rating          string    `db:"rating" json:"rating"`
	ImageURL        *string   `db:"image_url" json:"image_url"`
	SearchCount     int       `db:"search_count" json:"search_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
