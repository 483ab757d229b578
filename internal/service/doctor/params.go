package doctor

import (
	"strconv"
	"strings"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
	"github.com/jwalitptl/doctor-directory-api/pkg/errors"
	"github.com/jwalitptl/doctor-directory-api/pkg/validator"
)

const (
	DefaultPage     = 1
	DefaultLimit    = 10
	MaxLimit        = 100
	MaxPage         = 1000000
	DefaultTopLimit = 4
	MaxTopLimit     = 10
)

// SearchParams are the raw query parameters of a search request.
type SearchParams struct {
	Name           string `form:"name"`
	Specialization string `form:"specialization"`
	Location       string `form:"location"`
	MinRating      string `form:"minRating" validate:"omitempty,decrange=0 5" msg:"minRating must be a number between 0 and 5. Received: %v"`
	MaxFee         string `form:"maxFee" validate:"omitempty,intrange=0" msg:"maxFee must be a non-negative integer. Received: %v"`
	MinExperience  string `form:"minExperience" validate:"omitempty,intrange=0" msg:"minExperience must be a non-negative integer. Received: %v"`
	SortBy         string `form:"sortBy"`
	Order          string `form:"order"`
	Page           string `form:"page" validate:"omitempty,intrange=1 1000000" msg:"page must be an integer between 1 and 1000000. Received: %v"`
	Limit          string `form:"limit" validate:"omitempty,intrange" msg:"limit must be an integer. Received: %v"`
}

func (p *SearchParams) trim() {
	for _, f := range []*string{
		&p.Name, &p.Specialization, &p.Location, &p.MinRating, &p.MaxFee,
		&p.MinExperience, &p.SortBy, &p.Order, &p.Page, &p.Limit,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// ParseSearchParams validates p and resolves it into a query. Every malformed
// value is reported. An integer limit outside [1, MaxLimit] uses DefaultLimit.
func ParseSearchParams(v *validator.Validator, p SearchParams) (model.SearchQuery, error) {
	p.trim()
	if msgs := v.Struct(p); len(msgs) > 0 {
		return model.SearchQuery{}, errors.NewValidation(msgs)
	}

	q := model.SearchQuery{
		Filters: model.DoctorFilters{
			Name:           model.StringPtr(p.Name),
			Specialization: model.StringPtr(p.Specialization),
			Location:       model.StringPtr(p.Location),
		},
		Sort: model.Sort{
			Field: model.ParseSortField(p.SortBy),
			Order: model.ParseSortOrder(p.Order),
		},
		Page:  DefaultPage,
		Limit: DefaultLimit,
	}

	// Values below already passed validation.
	if p.MinRating != "" {
		f, _ := strconv.ParseFloat(p.MinRating, 64)
		q.Filters.MinRating = &f
	}
	if p.MaxFee != "" {
		n, _ := strconv.Atoi(p.MaxFee)
		q.Filters.MaxFee = &n
	}
	if p.MinExperience != "" {
		n, _ := strconv.Atoi(p.MinExperience)
		q.Filters.MinExperience = &n
	}
	if p.Page != "" {
		q.Page, _ = strconv.Atoi(p.Page)
	}
	if p.Limit != "" {
		if n, _ := strconv.Atoi(p.Limit); n >= 1 && n <= MaxLimit {
			q.Limit = n
		}
	}

	return q, nil
}

// ParseTopLimit falls back to DefaultTopLimit for missing, non-numeric or
// non-positive input and caps the result at MaxTopLimit.
func ParseTopLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return DefaultTopLimit
	}
	if n > MaxTopLimit {
		return MaxTopLimit
	}
	return n
}

// ParseID parses a doctor id path parameter. Zero and negative ids are
// well-formed; they simply match no doctor.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, errors.NewBadRequest("Invalid doctor ID", err)
	}
	return id, nil
}
