package model

import "time"

// Step1Data is the personal information captured by the first registration step.
type Step1Data struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender"`
	Age      int    `json:"age"`
	Location string `json:"location"`
}

// Step2Data is the professional information submitted by the second step.
type Step2Data struct {
	Specialization  string
	Institute       string
	Degree          string
	ExperienceYears int
	ConsultationFee int
	Bio             string
	Rating          string
	ImageURL        string
}

// RegistrationSession is a staged, not yet committed registration.
type RegistrationSession struct {
	TempID    string    `json:"tempId"`
	Step1     Step1Data `json:"step1Data"`
	ImagePath string    `json:"imagePath,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ExpiresIn returns the whole seconds left before the session expires.
func (s *RegistrationSession) ExpiresIn(now time.Time) int {
	left := s.ExpiresAt.Sub(now)
	if left < 0 {
		return 0
	}
	return int(left / time.Second)
}

// Expired reports whether the session is past its TTL at now.
func (s *RegistrationSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// NewDoctor combines the staged and submitted data into a doctor row.
func (s *RegistrationSession) NewDoctor(step2 Step2Data) *Doctor {
	age := s.Step1.Age
	rating := step2.Rating
	if rating == "" {
		rating = "0.0"
	}
	imageURL := step2.ImageURL
	if imageURL == "" {
		imageURL = s.ImagePath
	}

	return &Doctor{
		Name:            s.Step1.Name,
		Email:           s.Step1.Email,
		Phone:           s.Step1.Phone,
		Gender:          StringPtr(s.Step1.Gender),
		Age:             &age,
		Specialization:  step2.Specialization,
		Institute:       StringPtr(step2.Institute),
		Degree:          StringPtr(step2.Degree),
		Location:        s.Step1.Location,
		ExperienceYears: step2.ExperienceYears,
		ConsultationFee: step2.ConsultationFee,
		Bio:             StringPtr(step2.Bio),
		Rating:          rating,
		ImageURL:        StringPtr(imageURL),
	}
}

// SessionStats describes one staged session for the stats endpoint.
type SessionStats struct {
	TempID    string `json:"tempId"`
	Timestamp int64  `json:"timestamp"`
	AgeMillis int64  `json:"age"`
}
