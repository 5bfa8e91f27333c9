package catalog

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/amaumene/moviebrowser/internal/observable"
)

func newTestCollection(source *fakeSource) (*MovieCollection, *EntityStore) {
	store := NewEntityStore(source, nullLogger())
	return NewNowPlayingCollection(source, store, nullLogger()), store
}

func TestPageIsFrontInsertedInOrder(t *testing.T) {
	source := newFakeSource(envelope(1, 1, record(1, "A"), record(2, "B")))
	c, _ := newTestCollection(source)
	events := recordEvents(t, c)

	if err := wait(t, c.Load(context.Background())); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := ids(c.Movies()); !slices.Equal(got, []int{2, 1}) {
		t.Errorf("Expected movies [2 1], got %v", got)
	}
	if c.Movies()[0].Title() != "B" {
		t.Errorf("Expected B in front, got %s", c.Movies()[0].Title())
	}
	if c.HasNextPage() {
		t.Errorf("Expected no next page after page 1 of 1")
	}
	if !c.IsLoaded() || c.IsLoading() {
		t.Errorf("Expected loaded and idle, got loaded=%v loading=%v", c.IsLoaded(), c.IsLoading())
	}

	got := events.snapshot()
	if len(got) != 1 || got[0].Action != observable.ActionAppendRange {
		t.Fatalf("Expected a single AppendRange event, got %+v", got)
	}
	if ids := rangeIDs(got[0].Range); !slices.Equal(ids, []int{2, 1}) {
		t.Errorf("Expected range [2 1], got %v", ids)
	}
}

func TestPaginationStopsAtLastPage(t *testing.T) {
	source := newFakeSource(
		envelope(1, 3, record(1, "A")),
		envelope(2, 3, record(2, "B")),
		envelope(3, 3, record(3, "C")),
	)
	c, _ := newTestCollection(source)
	ctx := context.Background()

	if !c.HasNextPage() {
		t.Errorf("Expected a next page before anything was fetched")
	}

	if err := wait(t, c.Load(ctx)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !c.HasNextPage() {
		t.Errorf("Expected a next page after page 1 of 3")
	}

	if err := wait(t, c.LoadNextPage(ctx)); err != nil {
		t.Fatalf("LoadNextPage failed: %v", err)
	}
	if !c.HasNextPage() {
		t.Errorf("Expected a next page after page 2 of 3")
	}

	if err := wait(t, c.LoadNextPage(ctx)); err != nil {
		t.Fatalf("LoadNextPage failed: %v", err)
	}
	if c.HasNextPage() {
		t.Errorf("Expected no next page after page 3 of 3")
	}

	task := c.LoadNextPage(ctx)
	select {
	case <-task.Done():
	default:
		t.Fatalf("Expected a finished task past the last page")
	}
	if task.Err() != nil {
		t.Errorf("Expected no error, got %v", task.Err())
	}

	if calls := source.pageCalls(); !slices.Equal(calls, []int{1, 2, 3}) {
		t.Errorf("Expected fetches of pages [1 2 3], got %v", calls)
	}
	if got := ids(c.Movies()); !slices.Equal(got, []int{3, 2, 1}) {
		t.Errorf("Expected movies [3 2 1], got %v", got)
	}
}

func TestDuplicateAcrossPagesIsSkipped(t *testing.T) {
	source := newFakeSource(
		envelope(1, 2, record(1, "A"), record(2, "B")),
		envelope(2, 2, record(2, "B"), record(3, "C")),
	)
	c, _ := newTestCollection(source)
	events := recordEvents(t, c)
	ctx := context.Background()

	if err := wait(t, c.Load(ctx)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := wait(t, c.LoadNextPage(ctx)); err != nil {
		t.Fatalf("LoadNextPage failed: %v", err)
	}

	if got := ids(c.Movies()); !slices.Equal(got, []int{3, 2, 1}) {
		t.Errorf("Expected movies [3 2 1], got %v", got)
	}

	got := events.snapshot()
	if len(got) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(got))
	}
	if ids := rangeIDs(got[1].Range); !slices.Equal(ids, []int{3}) {
		t.Errorf("Expected second range [3], got %v", ids)
	}
}

func TestDuplicateWithinPageIsSkipped(t *testing.T) {
	source := newFakeSource(envelope(1, 1, record(1, "A"), record(1, "A"), record(2, "B")))
	c, _ := newTestCollection(source)

	if err := wait(t, c.Load(context.Background())); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := ids(c.Movies()); !slices.Equal(got, []int{2, 1}) {
		t.Errorf("Expected movies [2 1], got %v", got)
	}
}

func TestConcurrentLoadSharesTask(t *testing.T) {
	source := newFakeSource(envelope(1, 1, record(1, "A")))
	gate := source.block()
	c, _ := newTestCollection(source)
	ctx := context.Background()

	first := c.Load(ctx)
	second := c.Load(ctx)
	if first != second {
		t.Errorf("Expected the same task for overlapping loads")
	}
	if next := c.LoadNextPage(ctx); next != first {
		t.Errorf("Expected LoadNextPage to attach to the running first page load")
	}
	if !c.IsLoading() {
		t.Errorf("Expected collection to be loading")
	}

	close(gate)
	if err := wait(t, first); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if calls := source.pageCalls(); !slices.Equal(calls, []int{1}) {
		t.Errorf("Expected a single fetch of page 1, got %v", calls)
	}

	// Loaded collections do not fetch again
	if err := wait(t, c.Load(ctx)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if calls := source.pageCalls(); len(calls) != 1 {
		t.Errorf("Expected no extra fetch, got %v", calls)
	}
}

func TestConcurrentRefreshSharesTask(t *testing.T) {
	source := newFakeSource(envelope(1, 1, record(1, "A")))
	gate := source.block()
	c, _ := newTestCollection(source)
	ctx := context.Background()

	first := c.Refresh(ctx)
	if second := c.Refresh(ctx); second != first {
		t.Errorf("Expected the same task for overlapping refreshes")
	}
	if load := c.Load(ctx); load != first {
		t.Errorf("Expected Load to attach to the running refresh")
	}

	close(gate)
	if err := wait(t, first); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if calls := source.pageCalls(); !slices.Equal(calls, []int{1}) {
		t.Errorf("Expected a single fetch of page 1, got %v", calls)
	}
}

func TestFailedFetchKeepsState(t *testing.T) {
	source := newFakeSource(
		envelope(1, 2, record(1, "A")),
		envelope(2, 2, record(2, "B")),
	)
	c, _ := newTestCollection(source)
	events := recordEvents(t, c)
	ctx := context.Background()

	if err := wait(t, c.Load(ctx)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	source.setErr(errBoom)
	err := wait(t, c.LoadNextPage(ctx))
	if !errors.Is(err, errBoom) {
		t.Fatalf("Expected errBoom, got %v", err)
	}
	if c.IsLoading() {
		t.Errorf("Expected loading flag cleared after failure")
	}
	if got := ids(c.Movies()); !slices.Equal(got, []int{1}) {
		t.Errorf("Expected movies [1] after failure, got %v", got)
	}
	if !c.HasNextPage() {
		t.Errorf("Expected next page to still be available")
	}
	if len(events.snapshot()) != 1 {
		t.Errorf("Expected no event for the failed fetch")
	}

	source.setErr(nil)
	if err := wait(t, c.LoadNextPage(ctx)); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if calls := source.pageCalls(); !slices.Equal(calls, []int{1, 2, 2}) {
		t.Errorf("Expected fetches [1 2 2], got %v", calls)
	}
	if got := ids(c.Movies()); !slices.Equal(got, []int{2, 1}) {
		t.Errorf("Expected movies [2 1], got %v", got)
	}
}

func TestRefreshReplacesMovies(t *testing.T) {
	source := newFakeSource(
		envelope(1, 2, record(1, "A"), record(2, "B")),
		envelope(2, 2, record(3, "C")),
	)
	c, _ := newTestCollection(source)
	ctx := context.Background()

	if err := wait(t, c.Load(ctx)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := wait(t, c.LoadNextPage(ctx)); err != nil {
		t.Fatalf("LoadNextPage failed: %v", err)
	}

	events := recordEvents(t, c)
	source.setPage(envelope(1, 2, record(4, "D")))

	if err := wait(t, c.Refresh(ctx)); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if got := ids(c.Movies()); !slices.Equal(got, []int{4}) {
		t.Errorf("Expected movies [4] after refresh, got %v", got)
	}
	if !c.HasNextPage() {
		t.Errorf("Expected page history reset to page 1 of 2")
	}

	got := events.snapshot()
	if len(got) != 2 {
		t.Fatalf("Expected Clear and AppendRange, got %+v", got)
	}
	if got[0].Action != observable.ActionClear || got[1].Action != observable.ActionAppendRange {
		t.Errorf("Expected Clear then AppendRange, got %v then %v", got[0].Action, got[1].Action)
	}
}

func TestFailedRefreshKeepsMovies(t *testing.T) {
	source := newFakeSource(envelope(1, 1, record(1, "A")))
	c, _ := newTestCollection(source)
	ctx := context.Background()

	if err := wait(t, c.Load(ctx)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	events := recordEvents(t, c)

	source.setErr(errBoom)
	if err := wait(t, c.Refresh(ctx)); !errors.Is(err, errBoom) {
		t.Fatalf("Expected errBoom, got %v", err)
	}
	if got := ids(c.Movies()); !slices.Equal(got, []int{1}) {
		t.Errorf("Expected movies [1] after failed refresh, got %v", got)
	}
	if len(events.snapshot()) != 0 {
		t.Errorf("Expected no events for a failed refresh")
	}
}

func TestInvalidRecordsAreSkipped(t *testing.T) {
	noPoster := record(2, "No poster")
	noPoster.PosterPath = ""
	noTitle := record(3, "")

	source := newFakeSource(envelope(1, 1, record(1, "A"), noPoster, noTitle, record(0, "Zero"), record(4, "D")))
	c, store := newTestCollection(source)

	if err := wait(t, c.Load(context.Background())); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := ids(c.Movies()); !slices.Equal(got, []int{4, 1}) {
		t.Errorf("Expected movies [4 1], got %v", got)
	}
	if store.FindMovieByID(2) != nil {
		t.Errorf("Expected no model for an invalid record")
	}
}

func TestEmptyPageIsRecorded(t *testing.T) {
	source := newFakeSource(
		envelope(1, 2),
		envelope(2, 2, record(1, "A")),
	)
	c, _ := newTestCollection(source)
	events := recordEvents(t, c)
	ctx := context.Background()

	if err := wait(t, c.Load(ctx)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.IsLoaded() {
		t.Errorf("Expected nothing loaded from an empty page")
	}
	if len(events.snapshot()) != 0 {
		t.Errorf("Expected no event for an empty page")
	}

	if err := wait(t, c.LoadNextPage(ctx)); err != nil {
		t.Fatalf("LoadNextPage failed: %v", err)
	}
	if calls := source.pageCalls(); !slices.Equal(calls, []int{1, 2}) {
		t.Errorf("Expected fetches [1 2], got %v", calls)
	}
}

func TestLoadNextPageStartsAtFirstPage(t *testing.T) {
	source := newFakeSource(envelope(1, 2, record(1, "A")))
	c, _ := newTestCollection(source)

	if err := wait(t, c.LoadNextPage(context.Background())); err != nil {
		t.Fatalf("LoadNextPage failed: %v", err)
	}
	if calls := source.pageCalls(); !slices.Equal(calls, []int{1}) {
		t.Errorf("Expected fetch of page 1, got %v", calls)
	}
}

func TestCollectionsShareModels(t *testing.T) {
	source := newFakeSource(envelope(1, 1, record(1, "A"), record(2, "B")))
	c, store := newTestCollection(source)
	ctx := context.Background()

	if err := wait(t, c.Load(ctx)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	movie := store.FindMovieByID(1)
	if movie == nil {
		t.Fatalf("Expected movie 1 in the entity store")
	}

	similar := movie.SimilarMovies()
	if err := wait(t, similar.Load(ctx)); err != nil {
		t.Fatalf("Similar load failed: %v", err)
	}

	for _, m := range similar.Movies() {
		if other := store.FindMovieByID(m.ID()); other != m {
			t.Errorf("Expected shared model for movie %d", m.ID())
		}
	}
	if similar.Movies()[1] != movie {
		t.Errorf("Expected the similar list to reuse movie 1")
	}
}
