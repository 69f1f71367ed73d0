// Package export renders snapshots and insights as CSV, HTML, plain text and PDF.
package export

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// Section titles in CSV order.
const (
	SectionEmployed        = "Employed within 6 months"
	SectionSources         = "Source of First Employment"
	SectionPerformance     = "Work Performance"
	SectionJobDifficulties = "Job Difficulties"
	SectionJobsRelated     = "Jobs Related to Experience"
	SectionPromoted        = "Promoted in Current Job"
	SectionSelfEmployment  = "Self-Employment (Has business)"
	SectionPrograms        = "Top Programs"
)

const filterPrefix = "Filters: "

// Section is one titled label→count block of the CSV.
type Section struct {
	Title   string
	Entries []types.Entry
}

// CountMap returns the section entries as a CountMap.
func (s Section) CountMap() types.CountMap {
	return types.NewCountMap(s.Entries...)
}

// Sections lists the snapshot's count maps in export order, each in its
// original label order.
func Sections(s types.AggregateSnapshot) []Section {
	return []Section{
		{Title: SectionEmployed, Entries: []types.Entry{
			{Label: "Yes", Count: s.EmployedWithin.Yes},
			{Label: "No", Count: s.EmployedWithin.No},
		}},
		{Title: SectionSources, Entries: s.Sources.Entries()},
		{Title: SectionPerformance, Entries: s.Performance.Entries()},
		{Title: SectionJobDifficulties, Entries: s.JobDifficulties.Entries()},
		{Title: SectionJobsRelated, Entries: s.JobsRelated.Entries()},
		{Title: SectionPromoted, Entries: s.Promoted.Entries()},
		{Title: SectionSelfEmployment, Entries: s.SelfEmployment.Entries()},
		{Title: SectionPrograms, Entries: s.Programs.Entries()},
	}
}

// CSV renders the snapshot as a filter header line, a blank line, then one
// block per section: the title, a "label,count" header, one row per entry and a
// blank line. Labels are always quoted; counts are bare integers.
func CSV(s types.AggregateSnapshot) string {
	var b strings.Builder
	_ = WriteCSV(&b, s)
	return b.String()
}

// WriteCSV writes the CSV rendering of s to w.
func WriteCSV(w io.Writer, s types.AggregateSnapshot) error {
	var b strings.Builder

	b.WriteString(csvField(filterPrefix + "year=" + s.Filter.YearOrAll()))
	b.WriteByte(',')
	b.WriteString(csvField("program=" + s.Filter.ProgramOrAll()))
	b.WriteString("\n\n")

	for _, sec := range Sections(s) {
		b.WriteString(sec.Title)
		b.WriteString("\nlabel,count\n")
		for _, e := range sec.Entries {
			b.WriteString(quote(e.Label))
			b.WriteByte(',')
			b.WriteString(strconv.Itoa(e.Count))
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// quote wraps s in double quotes, doubling embedded quotes.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// csvField quotes s only when it would otherwise break the record.
func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quote(s)
	}
	return s
}

var filenameUnsafe = regexp.MustCompile(`[\s/\\]+`)

// CSVFilename returns the download name for a filter, for example
// survey_aggregates_2024_BS_Computer_Science.csv.
func CSVFilename(f types.Filter) string {
	program := filenameUnsafe.ReplaceAllString(f.ProgramOrAll(), "_")
	return "survey_aggregates_" + f.YearOrAll() + "_" + program + ".csv"
}

// ParsedCSV is the content recovered from a CSV export.
type ParsedCSV struct {
	Filter   types.Filter
	Sections []Section
}

// Section returns the section with the given title.
func (p ParsedCSV) Section(title string) (Section, bool) {
	for _, s := range p.Sections {
		if s.Title == title {
			return s, true
		}
	}
	return Section{}, false
}

// ParseCSV reads a CSV produced by WriteCSV back into its filter and sections.
func ParseCSV(r io.Reader) (ParsedCSV, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var out ParsedCSV
	var current *Section
	expectHeader := false
	first := true

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line, _ := cr.FieldPos(0)
		if err != nil {
			return ParsedCSV{}, &ParseError{Line: line, Message: "invalid CSV", Cause: err}
		}

		if first {
			first = false
			f, err := parseFilterLine(record)
			if err != nil {
				return ParsedCSV{}, &ParseError{Line: line, Message: "invalid filter line", Cause: err}
			}
			out.Filter = f
			continue
		}

		switch {
		case len(record) == 1:
			out.Sections = append(out.Sections, Section{Title: record[0], Entries: []types.Entry{}})
			current = &out.Sections[len(out.Sections)-1]
			expectHeader = true
		case len(record) == 2 && expectHeader && record[0] == "label" && record[1] == "count":
			expectHeader = false
		case len(record) == 2 && current != nil:
			expectHeader = false
			n, err := strconv.Atoi(strings.TrimSpace(record[1]))
			if err != nil {
				return ParsedCSV{}, &ParseError{Line: line, Message: "count is not an integer", Cause: err}
			}
			current.Entries = append(current.Entries, types.Entry{Label: record[0], Count: n})
		default:
			return ParsedCSV{}, &ParseError{Line: line, Message: "unexpected record"}
		}
	}

	if first {
		return ParsedCSV{}, &ParseError{Line: 1, Message: "empty input"}
	}
	return out, nil
}

func parseFilterLine(record []string) (types.Filter, error) {
	if len(record) != 2 || !strings.HasPrefix(record[0], filterPrefix) {
		return types.Filter{}, errors.New("expected \"Filters: year=<Y>,program=<P>\"")
	}
	year, ok := strings.CutPrefix(strings.TrimPrefix(record[0], filterPrefix), "year=")
	if !ok {
		return types.Filter{}, errors.New("missing year")
	}
	program, ok := strings.CutPrefix(record[1], "program=")
	if !ok {
		return types.Filter{}, errors.New("missing program")
	}
	return types.NewFilter(year, program)
}
