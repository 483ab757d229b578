package registration

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
)

// Number is a numeric form field. JSON bodies may carry it as a number or
// a string; either way the literal text is kept for validation.
type Number string

func (n *Number) UnmarshalJSON(b []byte) error {
	switch {
	case string(b) == "null":
		*n = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Number(s)
	default:
		*n = Number(b)
	}
	return nil
}

func (n *Number) trim() {
	*n = Number(strings.TrimSpace(string(*n)))
}

// Step1Form is the personal information submitted by the first step.
type Step1Form struct {
	Name     string `form:"name" json:"name" validate:"required,min=3" msg:"Name must be at least 3 characters long"`
	Email    string `form:"email" json:"email" validate:"required,email" msg:"Valid email is required"`
	Phone    string `form:"phone" json:"phone" validate:"required,indian_phone" msg:"Valid Indian phone number is required. Received: %v"`
	Gender   string `form:"gender" json:"gender" validate:"required,oneof=Male Female Other" msg:"Valid gender is required. Received: %v"`
	Age      Number `form:"age" json:"age" validate:"required,intrange=25 80" msg:"Age must be between 25 and 80. Received: %v"`
	Location string `form:"location" json:"location" validate:"required,min=2" msg:"Location is required"`
}

func (f *Step1Form) trim() {
	for _, s := range []*string{&f.Name, &f.Email, &f.Phone, &f.Gender, &f.Location} {
		*s = strings.TrimSpace(*s)
	}
	f.Age.trim()
}

// data must only be called on a validated form.
func (f Step1Form) data() model.Step1Data {
	age, _ := strconv.Atoi(string(f.Age))
	return model.Step1Data{
		Name:     f.Name,
		Email:    strings.ToLower(f.Email),
		Phone:    f.Phone,
		Gender:   f.Gender,
		Age:      age,
		Location: f.Location,
	}
}

// Step2Form is the professional information submitted by the second step.
// Zero is a valid experience and a valid fee.
type Step2Form struct {
	TempID          string `form:"tempId" json:"tempId"`
	Specialization  string `form:"specialization" json:"specialization" validate:"required,min=3" msg:"Specialization is required"`
	Institute       string `form:"institute" json:"institute" validate:"required,min=3" msg:"Institute name is required"`
	Degree          string `form:"degree" json:"degree" validate:"required,min=2" msg:"Degree is required"`
	ExperienceYears Number `form:"experience_years" json:"experience_years" validate:"required,intrange=0 70" msg:"Experience years must be between 0 and 70"`
	ConsultationFee Number `form:"consultation_fee" json:"consultation_fee" validate:"required,intrange=0" msg:"Valid consultation fee is required"`
	Bio             string `form:"bio" json:"bio"`
	Rating          Number `form:"rating" json:"rating" validate:"omitempty,decrange=0 5" msg:"Rating must be between 0 and 5. Received: %v"`
	ImageURL        string `form:"image_url" json:"image_url"`
}

func (f *Step2Form) trim() {
	for _, s := range []*string{
		&f.TempID, &f.Specialization, &f.Institute, &f.Degree, &f.Bio, &f.ImageURL,
	} {
		*s = strings.TrimSpace(*s)
	}
	for _, n := range []*Number{&f.ExperienceYears, &f.ConsultationFee, &f.Rating} {
		n.trim()
	}
}

// data must only be called on a validated form.
func (f Step2Form) data() model.Step2Data {
	exp, _ := strconv.Atoi(string(f.ExperienceYears))
	fee, _ := strconv.Atoi(string(f.ConsultationFee))

	var rating string
	if f.Rating != "" {
		r, _ := strconv.ParseFloat(string(f.Rating), 64)
		rating = strconv.FormatFloat(r, 'f', 1, 64)
	}

	return model.Step2Data{
		Specialization:  f.Specialization,
		Institute:       f.Institute,
		Degree:          f.Degree,
		ExperienceYears: exp,
		ConsultationFee: fee,
		Bio:             f.Bio,
		Rating:          rating,
		ImageURL:        f.ImageURL,
	}
}
