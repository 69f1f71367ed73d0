package aggregates

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

func countingProvider(calls *atomic.Int32, err error) ProviderFunc {
	return func(_ context.Context, filter types.Filter) (types.AggregateSnapshot, error) {
		n := calls.Add(1)
		if err != nil {
			return types.AggregateSnapshot{}, err
		}
		return types.AggregateSnapshot{Filter: filter, ResponseCount: int(n)}, nil
	}
}

func TestCachedProvider_ReusesFreshEntries(t *testing.T) {
	var calls atomic.Int32
	c := NewCachedProvider(countingProvider(&calls, nil), time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	first, err := c.Snapshot(ctx, types.Filter{Year: "2024"})
	require.NoError(t, err)
	second, err := c.Snapshot(ctx, types.Filter{Year: "2024"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first, second)

	_, err = c.Snapshot(ctx, types.Filter{Year: "2023"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, c.Len())
}

func TestCachedProvider_ExpiresAfterTTL(t *testing.T) {
	var calls atomic.Int32
	c := NewCachedProvider(countingProvider(&calls, nil), time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := c.Snapshot(ctx, types.Filter{})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	snap, err := c.Snapshot(ctx, types.Filter{})
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, snap.ResponseCount)
}

func TestCachedProvider_DoesNotCacheErrors(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	c := NewCachedProvider(countingProvider(&calls, boom), time.Minute)

	_, err := c.Snapshot(context.Background(), types.Filter{})
	assert.ErrorIs(t, err, boom)
	_, err = c.Snapshot(context.Background(), types.Filter{})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 0, c.Len())
}

func TestCachedProvider_InvalidateAndPurge(t *testing.T) {
	var calls atomic.Int32
	c := NewCachedProvider(countingProvider(&calls, nil), 0)
	ctx := context.Background()

	_, _ = c.Snapshot(ctx, types.Filter{Year: "2022"})
	_, _ = c.Snapshot(ctx, types.Filter{Year: "2023"})
	c.Invalidate(types.Filter{Year: "2022"})
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestCachedProvider_ConcurrentMissesShareFetch(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	slow := ProviderFunc(func(_ context.Context, filter types.Filter) (types.AggregateSnapshot, error) {
		calls.Add(1)
		<-release
		return types.AggregateSnapshot{Filter: filter}, nil
	})
	c := NewCachedProvider(slow, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Snapshot(context.Background(), types.Filter{Year: "2024"})
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCachedProvider_CancelledCallerDoesNotFailOthers(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	slow := ProviderFunc(func(ctx context.Context, filter types.Filter) (types.AggregateSnapshot, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return types.AggregateSnapshot{Filter: filter, ResponseCount: 7}, nil
		case <-ctx.Done():
			return types.AggregateSnapshot{}, ctx.Err()
		}
	})
	c := NewCachedProvider(slow, time.Minute)
	filter := types.Filter{Year: "2024"}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Snapshot(firstCtx, filter)
		firstErr <- err
	}()
	<-started

	type result struct {
		snap types.AggregateSnapshot
		err  error
	}
	second := make(chan result, 1)
	go func() {
		snap, err := c.Snapshot(context.Background(), filter)
		second <- result{snap, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, 7, got.snap.ResponseCount)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestCachedProvider_FetchTimeout(t *testing.T) {
	blocked := ProviderFunc(func(ctx context.Context, _ types.Filter) (types.AggregateSnapshot, error) {
		<-ctx.Done()
		return types.AggregateSnapshot{}, ctx.Err()
	})
	c := NewCachedProvider(blocked, time.Minute)
	c.fetchTimeout = 20 * time.Millisecond

	_, err := c.Snapshot(context.Background(), types.Filter{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, c.Len())
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(
		types.AggregateSnapshot{Filter: types.Filter{Year: "2023"}, ResponseCount: 3},
		types.AggregateSnapshot{Filter: types.Filter{Year: "2022", Program: "BSIT"}, ResponseCount: 5},
	)

	snap, err := p.Snapshot(context.Background(), types.Filter{Year: "2022", Program: "bsit"})
	require.NoError(t, err)
	assert.Equal(t, 5, snap.ResponseCount)

	_, err = p.Snapshot(context.Background(), types.Filter{Year: "2020"})
	assert.ErrorIs(t, err, ErrNoSnapshot)

	assert.Equal(t, []types.Filter{{Year: "2022", Program: "BSIT"}, {Year: "2023"}}, p.Filters())
}

func TestLoadYearsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "years.json")
	body := `{
		"2023": {"employed": {"yes": 3, "no": 1}},
		"2024": {"employed": {"Yes": 1, "No": 1}},
		"all": {"count": 6}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	p, err := LoadYearsFile(path, "BSIT")
	require.NoError(t, err)

	snap, err := p.Snapshot(context.Background(), types.Filter{Year: "2024", Program: "BSIT"})
	require.NoError(t, err)
	assert.Equal(t, types.EmployedWithin{Yes: 1, No: 1}, snap.EmployedWithin)

	all, err := p.Snapshot(context.Background(), types.Filter{Program: "BSIT"})
	require.NoError(t, err)
	assert.Equal(t, 6, all.ResponseCount)
}

func TestLoadYearsFile_BadYear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "years.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"20x4": {}}`), 0o600))

	_, err := LoadYearsFile(path, "")
	assert.Error(t, err)
}

func TestLoadYearsFile_EmptyObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	_, err := LoadYearsFile(path, "")
	assert.ErrorIs(t, err, ErrNoYears)
}
