package model

import "strings"

// DoctorFilters holds the optional search predicates. A nil field means the
// filter is absent and is echoed back as null.
type DoctorFilters struct {
	Name           *string  `json:"name"`
	Specialization *string  `json:"specialization"`
	Location       *string  `json:"location"`
	MinRating      *float64 `json:"minRating"`
	MaxFee         *int     `json:"maxFee"`
	MinExperience  *int     `json:"minExperience"`
}

// SortField is one of the sortable doctor columns. Only values of this type
// ever reach an ORDER BY clause.
type SortField int

const (
	SortByID SortField = iota
	SortByName
	SortByRating
	SortByExperience
	SortByFee
	SortBySearchCount
	SortByCreatedAt
)

var sortFieldNames = map[string]SortField{
	"id":               SortByID,
	"name":             SortByName,
	"rating":           SortByRating,
	"experience_years": SortByExperience,
	"experienceyears":  SortByExperience,
	"consultation_fee": SortByFee,
	"consultationfee":  SortByFee,
	"search_count":     SortBySearchCount,
	"searchcount":      SortBySearchCount,
	"created_at":       SortByCreatedAt,
	"createdat":        SortByCreatedAt,
}

// ParseSortField resolves client input against the allow-list. Unknown
// values fall back to SortByID.
func ParseSortField(s string) SortField {
	if f, ok := sortFieldNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f
	}
	return SortByID
}

// Column returns the fixed column reference for the field.
func (f SortField) Column() string {
	switch f {
	case SortByName:
		return "name"
	case SortByRating:
		return "rating"
	case SortByExperience:
		return "experience_years"
	case SortByFee:
		return "consultation_fee"
	case SortBySearchCount:
		return "search_count"
	case SortByCreatedAt:
		return "created_at"
	default:
		return "id"
	}
}

func (f SortField) String() string { return f.Column() }

// SortOrder is ascending or descending.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// ParseSortOrder maps "desc" (any case) to Descending and everything else to Ascending.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Descending
	}
	return Ascending
}

// SQL returns the ORDER BY keyword for the order.
func (o SortOrder) SQL() string {
	if o == Descending {
		return "DESC"
	}
	return "ASC"
}

func (o SortOrder) String() string { return o.SQL() }

// Sort is a resolved sort column and direction.
type Sort struct {
	Field SortField
	Order SortOrder
}

// SearchQuery is a validated search request.
type SearchQuery struct {
	Filters DoctorFilters
	Sort    Sort
	Page    int
	Limit   int
}

// Offset returns the number of rows skipped before the requested page.
func (q SearchQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// PageInfo is the pagination metadata of a search result.
type PageInfo struct {
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	TotalResults    int  `json:"totalResults"`
	ResultsPerPage  int  `json:"resultsPerPage"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// NewPageInfo derives the metadata for page of size limit over total rows.
func NewPageInfo(page, limit, total int) PageInfo {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PageInfo{
		CurrentPage:     page,
		TotalPages:      totalPages,
		TotalResults:    total,
		ResultsPerPage:  limit,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

// SearchResult is one page of doctors plus its metadata.
type SearchResult struct {
	Doctors  []*Doctor
	PageInfo PageInfo
	Query    SearchQuery
}
