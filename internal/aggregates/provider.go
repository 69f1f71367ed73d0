// Package aggregates supplies survey aggregate snapshots to the analysis packages.
//
// Providers are the only place where snapshots are fetched; everything downstream
// of a SnapshotProvider is pure.
package aggregates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// ErrNoSnapshot is returned by StaticProvider for filters it holds no data for.
var ErrNoSnapshot = errors.New("no snapshot for filter")

// ErrNoYears is returned by LoadYearsFile for a file with no year keys.
var ErrNoYears = errors.New("aggregates file has no year keys")

// SnapshotProvider returns the aggregate snapshot for one filter combination.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, filter types.Filter) (types.AggregateSnapshot, error)
}

// ProviderFunc adapts a function to SnapshotProvider.
type ProviderFunc func(ctx context.Context, filter types.Filter) (types.AggregateSnapshot, error)

// Snapshot calls f.
func (f ProviderFunc) Snapshot(ctx context.Context, filter types.Filter) (types.AggregateSnapshot, error) {
	return f(ctx, filter)
}

// StaticProvider serves fixed snapshots keyed by their filter.
type StaticProvider struct {
	mu        sync.RWMutex
	snapshots map[string]types.AggregateSnapshot
}

// NewStaticProvider creates a provider holding the given snapshots.
func NewStaticProvider(snapshots ...types.AggregateSnapshot) *StaticProvider {
	p := &StaticProvider{snapshots: make(map[string]types.AggregateSnapshot, len(snapshots))}
	for _, s := range snapshots {
		p.Put(s)
	}
	return p
}

// Put stores s under its own filter, replacing any previous snapshot.
func (p *StaticProvider) Put(s types.AggregateSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots[s.Filter.Key()] = s
}

// Snapshot returns the stored snapshot for filter or ErrNoSnapshot.
func (p *StaticProvider) Snapshot(ctx context.Context, filter types.Filter) (types.AggregateSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return types.AggregateSnapshot{}, err
	}

	p.mu.RLock()
	s, ok := p.snapshots[filter.Key()]
	p.mu.RUnlock()
	if !ok {
		return types.AggregateSnapshot{}, fmt.Errorf("%w: %s", ErrNoSnapshot, filter.Describe())
	}
	return s, nil
}

// Filters lists the stored filters ordered by year then program.
func (p *StaticProvider) Filters() []types.Filter {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]types.Filter, 0, len(p.snapshots))
	for _, s := range p.snapshots {
		out = append(out, s.Filter)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Program < out[j].Program
	})
	return out
}

// LoadFile reads an aggregates payload file for a single filter.
func LoadFile(path string, filter types.Filter) (types.AggregateSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.AggregateSnapshot{}, fmt.Errorf("failed to read aggregates file: %w", err)
	}
	return types.DecodeSnapshot(data, filter)
}

// LoadYearsFile reads a file mapping years to aggregates payloads, for example
// {"2023": {...}, "2024": {...}}, into a StaticProvider. Every snapshot is stored
// under its year with the given program. A top-level "all" key holds the
// unfiltered payload. A file without any year keys fails with ErrNoYears.
func LoadYearsFile(path, program string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read aggregates file: %w", err)
	}

	var byYear map[string]json.RawMessage
	if err := json.Unmarshal(data, &byYear); err != nil {
		return nil, fmt.Errorf("failed to parse aggregates file: %w", err)
	}
	if len(byYear) == 0 {
		return nil, ErrNoYears
	}

	p := NewStaticProvider()
	for year, raw := range byYear {
		filter, err := types.NewFilter(year, program)
		if err != nil {
			return nil, fmt.Errorf("invalid year key %q: %w", year, err)
		}
		snap, err := types.DecodeSnapshot(raw, filter)
		if err != nil {
			return nil, fmt.Errorf("year %s: %w", year, err)
		}
		p.Put(snap)
	}
	return p, nil
}
