package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// AllPlaceholder is the value the dashboard uses for "no filter".
const AllPlaceholder = "all"

// Filter selects the slice of survey responses a snapshot was computed for.
// Empty fields mean "all".
type Filter struct {
	Year    string `json:"year,omitempty" validate:"omitempty,len=4,number"`
	Program string `json:"program,omitempty" validate:"omitempty,max=255"`
}

// NewFilter normalizes and validates a year/program pair.
// The "all" placeholder and surrounding whitespace are stripped.
func NewFilter(year, program string) (Filter, error) {
	f := Filter{Year: normalizeFilterValue(year), Program: normalizeFilterValue(program)}
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// Validate validates the Filter using the validator.
func (f Filter) Validate() error {
	validate := validator.New()
	return validate.Struct(f)
}

func normalizeFilterValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, AllPlaceholder) {
		return ""
	}
	return v
}

// YearOrAll returns the year or the "all" placeholder.
func (f Filter) YearOrAll() string {
	if f.Year == "" {
		return AllPlaceholder
	}
	return f.Year
}

// ProgramOrAll returns the program or the "all" placeholder.
func (f Filter) ProgramOrAll() string {
	if f.Program == "" {
		return AllPlaceholder
	}
	return f.Program
}

// WithYear returns a copy of the filter restricted to year.
func (f Filter) WithYear(year string) Filter {
	f.Year = normalizeFilterValue(year)
	return f
}

// Describe renders the filter as "year=<Y|all>,program=<P|all>".
func (f Filter) Describe() string {
	return "year=" + f.YearOrAll() + ",program=" + f.ProgramOrAll()
}

// Key returns a stable cache key for the filter.
func (f Filter) Key() string {
	return f.YearOrAll() + "\x00" + strings.ToLower(f.ProgramOrAll())
}

// Title builds the report title, omitting "all" placeholders.
func (f Filter) Title() string {
	title := "Analysis Results"
	if f.Program != "" {
		title += " — " + f.Program
	}
	if f.Year != "" {
		title += " — " + f.Year
	}
	return title
}
