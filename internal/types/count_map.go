// Package types provides type definitions for structured data used throughout the survey-insight engine.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Entry is a single label/count pair of a CountMap.
type Entry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CountMap is a label → count tally that remembers the order labels were first seen.
// Counts are never negative and line breaks in labels are always LF. The zero value is an empty map ready to use.
// A CountMap held by an AggregateSnapshot must be treated as read-only.
type CountMap struct {
	labels []string
	counts map[string]int
}

// NewCountMap builds a CountMap from entries, keeping their order.
// Repeated labels are summed.
func NewCountMap(entries ...Entry) CountMap {
	var m CountMap
	for _, e := range entries {
		m.Add(e.Label, e.Count)
	}
	return m
}

// labelNewlines folds CR LF and lone CR inside labels to LF.
var labelNewlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// normalizeLabel folds line breaks to LF.
func normalizeLabel(label string) string {
	if !strings.Contains(label, "\r") {
		return label
	}
	return labelNewlines.Replace(label)
}

// Add increments label by n. Negative n is ignored.
// Line breaks in label are normalized to LF.
func (m *CountMap) Add(label string, n int) {
	label = normalizeLabel(label)
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	if _, ok := m.counts[label]; !ok {
		m.labels = append(m.labels, label)
		m.counts[label] = 0
	}
	if n > 0 {
		m.counts[label] += n
	}
}

// set overwrites the count for label, keeping its first-seen position.
func (m *CountMap) set(label string, n int) {
	label = normalizeLabel(label)
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	if _, ok := m.counts[label]; !ok {
		m.labels = append(m.labels, label)
	}
	m.counts[label] = max(0, n)
}

// Get returns the count for label, 0 if absent.
func (m CountMap) Get(label string) int {
	return m.counts[normalizeLabel(label)]
}

// Has reports whether label is present (even with a zero count).
func (m CountMap) Has(label string) bool {
	_, ok := m.counts[normalizeLabel(label)]
	return ok
}

// Lookup returns the count of the first label that equals label case-insensitively.
func (m CountMap) Lookup(label string) int {
	label = normalizeLabel(label)
	if n, ok := m.counts[label]; ok {
		return n
	}
	for _, l := range m.labels {
		if strings.EqualFold(l, label) {
			return m.counts[l]
		}
	}
	return 0
}

// Len returns the number of distinct labels.
func (m CountMap) Len() int {
	return len(m.labels)
}

// Total returns the sum of all counts.
func (m CountMap) Total() int {
	total := 0
	for _, n := range m.counts {
		total += n
	}
	return total
}

// HasData reports whether the map carries at least one positive count.
func (m CountMap) HasData() bool {
	return m.Total() > 0
}

// Labels returns the labels in first-seen order.
func (m CountMap) Labels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}

// Entries returns all pairs in first-seen order.
func (m CountMap) Entries() []Entry {
	out := make([]Entry, 0, len(m.labels))
	for _, l := range m.labels {
		out = append(out, Entry{Label: l, Count: m.counts[l]})
	}
	return out
}

// SortedByCount returns all pairs ordered by count descending, ties broken by label ascending.
func (m CountMap) SortedByCount() []Entry {
	out := m.Entries()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Top returns the pair with the highest count. Ties go to the label seen first.
// The boolean is false when the map is empty.
func (m CountMap) Top() (Entry, bool) {
	if len(m.labels) == 0 {
		return Entry{}, false
	}
	best := Entry{Label: m.labels[0], Count: m.counts[m.labels[0]]}
	for _, l := range m.labels[1:] {
		if n := m.counts[l]; n > best.Count {
			best = Entry{Label: l, Count: n}
		}
	}
	return best, true
}

// MarshalJSON encodes the map as a JSON object in first-seen order.
func (m CountMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range m.labels {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(l)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(m.counts[l]))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of label → count, preserving key order.
// Anything that is not an object decodes to an empty map, and values that are
// not usable counts become 0; a bad field never fails the surrounding document.
func (m *CountMap) UnmarshalJSON(data []byte) error {
	*m = CountMap{}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read count map key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected count map key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to read count for %q: %w", key, err)
		}
		m.set(key, CoerceCount(raw))
	}
	return nil
}

// CoerceCount turns a raw JSON value into a non-negative count.
// Numbers are rounded, numeric strings are parsed, everything else is 0.
func CoerceCount(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}

	var f float64
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = v
	default:
		if err := json.Unmarshal(raw, &f); err != nil {
			return 0
		}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Round(f))
}
