package postgres

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
)

const doctorColumns = `id, name, email, phone, gender, age, specialization, institute,
	degree, location, experience_years, consultation_fee, bio, rating,
	image_url, search_count, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// filterClause returns the WHERE clause for f, numbering placeholders from $1.
// Every present filter adds exactly one predicate.
func filterClause(f model.DoctorFilters) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Name != nil {
		add(`name ILIKE $%d ESCAPE '\'`, "%"+likeEscaper.Replace(*f.Name)+"%")
	}
	if f.Specialization != nil {
		add("specialization = $%d", *f.Specialization)
	}
	if f.Location != nil {
		add("location = $%d", *f.Location)
	}
	if f.MinRating != nil {
		add("rating >= $%d", *f.MinRating)
	}
	if f.MaxFee != nil {
		add("consultation_fee <= $%d", *f.MaxFee)
	}
	if f.MinExperience != nil {
		add("experience_years >= $%d", *f.MinExperience)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderClause only ever emits allow-listed column names.
func orderClause(s model.Sort) string {
	col := s.Field.Column()
	if s.Field == model.SortByID {
		return "id " + s.Order.SQL()
	}
	return fmt.Sprintf("%s %s, id ASC", col, s.Order.SQL())
}

func searchQueries(q model.SearchQuery) (count, page string, args []interface{}) {
	where, args := filterClause(q.Filters)

	count = "SELECT COUNT(*) FROM doctors" + where
	page = fmt.Sprintf("SELECT %s FROM doctors%s ORDER BY %s LIMIT $%d OFFSET $%d",
		doctorColumns, where, orderClause(q.Sort), len(args)+1, len(args)+2)

	return count, page, args
}
