package db

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// Fallback labels for blank answers.
const (
	LabelUnknown = "Unknown"
	LabelUnrated = "Unrated"
)

// SurveyRow is the subset of one alumni survey response that feeds the aggregates.
// Nil and empty strings are both treated as unanswered.
type SurveyRow struct {
	ID                      int64           `json:"id,omitempty"`
	YearGraduated           *string         `json:"year_graduated"`
	CourseProgram           *string         `json:"course_program"`
	EmployedAfterGraduation *string         `json:"employed_after_graduation"`
	EmploymentSource        *string         `json:"employment_source"`
	WorkPerformanceRating   *string         `json:"work_performance_rating"`
	HasBeenPromoted         *string         `json:"has_been_promoted"`
	JobsRelatedToExperience *string         `json:"jobs_related_to_experience"`
	HasOwnBusiness          *string         `json:"has_own_business"`
	JobDifficulties         json.RawMessage `json:"job_difficulties"`
	CreatedAt               time.Time       `json:"created_at,omitempty"`
}

// Tally counts rows into the aggregates wire format. total is the unfiltered
// number of responses reported alongside the filtered count.
func Tally(rows []SurveyRow, total int) types.AggregatesPayload {
	var employed, sources, performance, programs, promoted, related, difficulties types.CountMap
	business := types.NewCountMap(types.Entry{Label: "Yes"}, types.Entry{Label: "No"})

	for _, r := range rows {
		employed.Add(orLabel(r.EmployedAfterGraduation, LabelUnknown), 1)
		sources.Add(orLabel(r.EmploymentSource, LabelUnknown), 1)
		performance.Add(orLabel(r.WorkPerformanceRating, LabelUnrated), 1)
		programs.Add(orLabel(r.CourseProgram, LabelUnknown), 1)
		promoted.Add(orLabel(r.HasBeenPromoted, LabelUnknown), 1)
		related.Add(orLabel(r.JobsRelatedToExperience, LabelUnknown), 1)

		if ownsBusiness(r.HasOwnBusiness) {
			business.Add("Yes", 1)
		} else {
			business.Add("No", 1)
		}

		for _, d := range splitDifficulties(r.JobDifficulties) {
			difficulties.Add(d, 1)
		}
	}

	count, _ := json.Marshal(len(rows))
	totalJSON, _ := json.Marshal(total)
	selfEmployment := business
	hasOwnBusiness := business

	return types.AggregatesPayload{
		Employed:        employed,
		Sources:         sources,
		Performance:     performance,
		Programs:        programs,
		Promoted:        promoted,
		JobsRelated:     related,
		SelfEmployment:  &selfEmployment,
		HasOwnBusiness:  &hasOwnBusiness,
		JobDifficulties: difficulties,
		Count:           count,
		TotalCount:      totalJSON,
	}
}

func orLabel(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

// ownsBusiness reports a truthy has_own_business answer. Missing and
// unrecognised values count as no.
func ownsBusiness(v *string) bool {
	if v == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(*v)) {
	case "yes", "y", "true", "t", "1":
		return true
	default:
		return false
	}
}

// splitDifficulties accepts a JSON list, a JSON string or a bare
// comma-separated string and returns the non-empty items.
func splitDifficulties(raw json.RawMessage) []string {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return nil
	}

	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s := itemLabel(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		text = s
	}

	var out []string
	for _, part := range strings.Split(text, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func itemLabel(item any) string {
	switch v := item.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
		return "True"
	case float64:
		if v == 0 {
			return ""
		}
		return fmt.Sprint(v)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
