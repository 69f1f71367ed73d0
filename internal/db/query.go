package db

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// dialect captures the SQL differences between the PostgreSQL and SQLite stores.
type dialect struct {
	placeholder func(n int) string
	like        string
	jsonText    string
}

var (
	postgresDialect = dialect{
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		like:        "ILIKE",
		jsonText:    "job_difficulties::text",
	}
	sqliteDialect = dialect{
		placeholder: func(int) string { return "?" },
		like:        "LIKE",
		jsonText:    "job_difficulties",
	}
)

// selectSurveys builds the response query for a filter. The year matches
// exactly and is ignored when it is not a number; the program is a
// case-insensitive substring match.
func (d dialect) selectSurveys(f types.Filter) (string, []any) {
	var where []string
	var args []any

	if year, ok := yearFilter(f.Year); ok {
		args = append(args, year)
		where = append(where, "year_graduated = "+d.placeholder(len(args)))
	}
	if f.Program != "" {
		args = append(args, escapeLike(f.Program))
		where = append(where, fmt.Sprintf(`course_program %s '%%' || %s || '%%' ESCAPE '\'`, d.like, d.placeholder(len(args))))
	}

	query := `SELECT id, year_graduated, course_program, employed_after_graduation, employment_source,
		work_performance_rating, has_been_promoted, jobs_related_to_experience, has_own_business, ` +
		d.jsonText + `, created_at FROM alumni_survey`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + " ORDER BY id", args
}

func (d dialect) insertSurvey() string {
	ph := make([]string, 9)
	for i := range ph {
		ph[i] = d.placeholder(i + 1)
	}
	return `INSERT INTO alumni_survey (year_graduated, course_program, employed_after_graduation,
		employment_source, work_performance_rating, has_been_promoted, jobs_related_to_experience,
		has_own_business, job_difficulties)
		VALUES (` + strings.Join(ph, ", ") + `) RETURNING id`
}

const countSurveys = `SELECT COUNT(*) FROM alumni_survey`

func yearFilter(year string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return "", false
	}
	return strconv.Itoa(n), true
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func insertArgs(r SurveyRow) []any {
	difficulties := string(r.JobDifficulties)
	if strings.TrimSpace(difficulties) == "" {
		difficulties = "[]"
	}
	return []any{
		r.YearGraduated, r.CourseProgram, r.EmployedAfterGraduation,
		r.EmploymentSource, r.WorkPerformanceRating, r.HasBeenPromoted,
		r.JobsRelatedToExperience, r.HasOwnBusiness, difficulties,
	}
}

// rowScanner is satisfied by pgx.Rows and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSurvey(rs rowScanner) (SurveyRow, error) {
	var r SurveyRow
	var difficulties *string
	err := rs.Scan(&r.ID, &r.YearGraduated, &r.CourseProgram, &r.EmployedAfterGraduation,
		&r.EmploymentSource, &r.WorkPerformanceRating, &r.HasBeenPromoted,
		&r.JobsRelatedToExperience, &r.HasOwnBusiness, &difficulties, &r.CreatedAt)
	if err != nil {
		return SurveyRow{}, err
	}
	if difficulties != nil {
		r.JobDifficulties = json.RawMessage(*difficulties)
	}
	return r, nil
}
