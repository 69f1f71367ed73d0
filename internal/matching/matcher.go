// Package matching pairs graduate programs with the job categories they most resemble.
package matching

import (
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/similarity"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// DefaultTopPrograms is the number of programs considered by Match.
const DefaultTopPrograms = 12

// Match returns one ProgramJobMatch for each of the DefaultTopPrograms programs with
// the most responses in the snapshot.
func Match(snapshot types.AggregateSnapshot) []types.ProgramJobMatch {
	return MatchWithLimit(snapshot, DefaultTopPrograms)
}

// MatchWithLimit is Match with a caller-chosen program limit. A limit <= 0 yields
// an empty result.
//
// Programs are ordered by response count descending, ties by label. Every program
// is scored against each job label in first-seen order; a later job only takes
// over when it scores strictly higher, so ties keep the earlier job. When no job
// scores above zero the match has no job and zero confidence.
func MatchWithLimit(snapshot types.AggregateSnapshot, limit int) []types.ProgramJobMatch {
	if limit <= 0 {
		return []types.ProgramJobMatch{}
	}

	programs := snapshot.Programs.SortedByCount()
	if len(programs) > limit {
		programs = programs[:limit]
	}

	jobs := snapshot.JobsRelated.Entries()
	matches := make([]types.ProgramJobMatch, 0, len(programs))
	for _, program := range programs {
		matches = append(matches, bestJob(program, jobs))
	}
	return matches
}

func bestJob(program types.Entry, jobs []types.Entry) types.ProgramJobMatch {
	match := types.ProgramJobMatch{
		Program:      program.Label,
		ProgramCount: program.Count,
	}

	best := 0
	for _, job := range jobs {
		score := similarity.Score(program.Label, job.Label, job.Count)
		if score > best {
			label := job.Label
			best = score
			match.MatchedJob = &label
			match.Confidence = score
			match.MatchJobCount = job.Count
		}
	}
	return match
}
