package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EmployedWithin holds the yes/no tally for "employed within six months of graduation".
type EmployedWithin struct {
	Yes int `json:"yes"`
	No  int `json:"no"`
}

// Total returns yes+no.
func (e EmployedWithin) Total() int {
	return e.Yes + e.No
}

// Percent returns round(100*yes/(yes+no)). The boolean is false when there are no answers.
func (e EmployedWithin) Percent() (int, bool) {
	total := e.Total()
	if total <= 0 {
		return 0, false
	}
	return roundPercent(e.Yes, total), true
}

// roundPercent rounds half away from zero, matching how the dashboard displays rates.
func roundPercent(part, total int) int {
	return (200*part + total) / (2 * total)
}

// AggregateSnapshot is the set of category → count tallies computed upstream for
// one filter combination. A new filter query produces a new snapshot.
type AggregateSnapshot struct {
	Filter          Filter         `json:"filter"`
	EmployedWithin  EmployedWithin `json:"employed_within"`
	Sources         CountMap       `json:"sources"`
	Performance     CountMap       `json:"performance"`
	Programs        CountMap       `json:"programs"`
	JobDifficulties CountMap       `json:"job_difficulties"`
	JobsRelated     CountMap       `json:"jobs_related"`
	Promoted        CountMap       `json:"promoted"`
	SelfEmployment  CountMap       `json:"self_employment"`
	ResponseCount   int            `json:"response_count"`
	// TotalCount is the unfiltered number of survey responses, when the source reports it.
	TotalCount int `json:"total_count,omitempty"`
}

// AggregatesPayload is the wire format of the survey-aggregates API.
// Field order matches the upstream endpoint.
type AggregatesPayload struct {
	Employed        CountMap        `json:"employed"`
	Sources         CountMap        `json:"sources"`
	Performance     CountMap        `json:"performance"`
	Programs        CountMap        `json:"programs"`
	Promoted        CountMap        `json:"promoted"`
	JobsRelated     CountMap        `json:"jobs_related"`
	SelfEmployment  *CountMap       `json:"self_employment,omitempty"`
	HasOwnBusiness  *CountMap       `json:"has_own_business,omitempty"`
	JobDifficulties CountMap        `json:"job_difficulties"`
	Count           json.RawMessage `json:"count,omitempty"`
	TotalCount      json.RawMessage `json:"total_count,omitempty"`
}

// DecodeSnapshot parses an aggregates API response into a snapshot for filter.
// Missing keys default to empty maps and zero counts; only a body that is not a
// JSON object is an error.
func DecodeSnapshot(data []byte, filter Filter) (AggregateSnapshot, error) {
	var payload AggregatesPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return AggregateSnapshot{}, fmt.Errorf("failed to parse aggregates payload: %w", err)
	}
	return payload.Snapshot(filter), nil
}

// Snapshot converts the payload into a normalized AggregateSnapshot.
func (p AggregatesPayload) Snapshot(filter Filter) AggregateSnapshot {
	selfEmployment := CountMap{}
	switch {
	case p.SelfEmployment != nil:
		selfEmployment = *p.SelfEmployment
	case p.HasOwnBusiness != nil:
		selfEmployment = *p.HasOwnBusiness
	}

	employed := NormalizeYesNo(p.Employed)

	count := 0
	if len(p.Count) > 0 {
		count = CoerceCount(p.Count)
	}

	return AggregateSnapshot{
		Filter:          filter,
		EmployedWithin:  EmployedWithin{Yes: employed.Get("yes"), No: employed.Get("no")},
		Sources:         p.Sources,
		Performance:     p.Performance,
		Programs:        p.Programs,
		JobDifficulties: p.JobDifficulties,
		JobsRelated:     p.JobsRelated,
		Promoted:        NormalizeYesNo(p.Promoted),
		SelfEmployment:  NormalizeYesNo(selfEmployment),
		ResponseCount:   count,
		TotalCount:      CoerceCount(p.TotalCount),
	}
}

// Payload converts a snapshot back into the aggregates wire format.
func (s AggregateSnapshot) Payload() AggregatesPayload {
	selfEmployment := s.SelfEmployment
	countJSON, _ := json.Marshal(s.ResponseCount)
	p := AggregatesPayload{
		Employed:        NewCountMap(Entry{Label: "yes", Count: s.EmployedWithin.Yes}, Entry{Label: "no", Count: s.EmployedWithin.No}),
		Sources:         s.Sources,
		Performance:     s.Performance,
		Programs:        s.Programs,
		Promoted:        s.Promoted,
		JobsRelated:     s.JobsRelated,
		SelfEmployment:  &selfEmployment,
		JobDifficulties: s.JobDifficulties,
		Count:           countJSON,
	}
	if s.TotalCount > 0 {
		p.TotalCount, _ = json.Marshal(s.TotalCount)
	}
	return p
}

var (
	yesKeys = map[string]bool{"yes": true, "y": true, "true": true, "t": true, "1": true}
	noKeys  = map[string]bool{"no": true, "n": true, "false": true, "f": true, "0": true}
)

// NormalizeYesNo folds the many spellings of yes/no answers into "yes" and "no".
// Answers like "Yes, within 3 months" fold by their first word. Both keys are
// always present and come first; labels that are neither keep their lower-cased text.
func NormalizeYesNo(m CountMap) CountMap {
	out := NewCountMap(Entry{Label: "yes"}, Entry{Label: "no"})
	for _, e := range m.Entries() {
		key := strings.ToLower(strings.TrimSpace(e.Label))
		switch {
		case yesKeys[key]:
			out.Add("yes", e.Count)
		case noKeys[key]:
			out.Add("no", e.Count)
		case yesKeys[firstWord(key)]:
			out.Add("yes", e.Count)
		case noKeys[firstWord(key)]:
			out.Add("no", e.Count)
		default:
			out.Add(key, e.Count)
		}
	}
	return out
}

func firstWord(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
