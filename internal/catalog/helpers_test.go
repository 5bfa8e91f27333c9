package catalog

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/amaumene/moviebrowser/internal/models"
	"github.com/amaumene/moviebrowser/internal/observable"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var errBoom = errors.New("boom")

func record(id int, title string) models.MovieData {
	return models.MovieData{
		ID:          id,
		Title:       title,
		PosterPath:  fmt.Sprintf("/poster%d.jpg", id),
		VoteAverage: 7.5,
	}
}

func envelope(page, totalPages int, records ...models.MovieData) *models.PagingEnvelope {
	return &models.PagingEnvelope{
		Page:         page,
		TotalPages:   totalPages,
		TotalResults: len(records),
		Results:      records,
	}
}

func nullLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

// fakeSource serves canned pages. When gate is set, fetches block until it
// is closed.
type fakeSource struct {
	mu          sync.Mutex
	pages       map[int]*models.PagingEnvelope
	details     map[int]*models.MovieDetailsData
	config      *models.Configuration
	err         error
	gate        chan struct{}
	calls       []int
	detailCalls int
}

func newFakeSource(pages ...*models.PagingEnvelope) *fakeSource {
	s := &fakeSource{
		pages:   make(map[int]*models.PagingEnvelope),
		details: make(map[int]*models.MovieDetailsData),
	}
	for _, p := range pages {
		s.pages[p.Page] = p
	}
	return s
}

func (s *fakeSource) setPage(p *models.PagingEnvelope) {
	s.mu.Lock()
	s.pages[p.Page] = p
	s.mu.Unlock()
}

func (s *fakeSource) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *fakeSource) block() chan struct{} {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()
	return gate
}

func (s *fakeSource) wait() {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (s *fakeSource) pageCalls() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.calls...)
}

func (s *fakeSource) page(page int) (*models.PagingEnvelope, error) {
	s.wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, page)
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.pages[page]
	if !ok {
		return nil, fmt.Errorf("page %d not found", page)
	}
	return p, nil
}

func (s *fakeSource) NowPlaying(_ context.Context, page int) (*models.PagingEnvelope, error) {
	return s.page(page)
}

func (s *fakeSource) SimilarMovies(_ context.Context, _ int, page int) (*models.PagingEnvelope, error) {
	return s.page(page)
}

func (s *fakeSource) MovieDetails(_ context.Context, movieID int) (*models.MovieDetailsData, error) {
	s.wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.detailCalls++
	if s.err != nil {
		return nil, s.err
	}
	d, ok := s.details[movieID]
	if !ok {
		return nil, fmt.Errorf("movie %d not found", movieID)
	}
	return d, nil
}

func (s *fakeSource) Configuration(context.Context) (*models.Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.config, nil
}

// collectionRecorder records collection events
type collectionRecorder struct {
	mu     sync.Mutex
	events []observable.CollectionEvent
}

func (r *collectionRecorder) OnCollectionUpdate(_ any, event observable.CollectionEvent) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *collectionRecorder) snapshot() []observable.CollectionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]observable.CollectionEvent(nil), r.events...)
}

type subscriber interface {
	Subscribe(observable.CollectionObserver) *observable.Subscription[observable.CollectionObserver]
}

// recordEvents subscribes a recorder and keeps its token alive for the whole test
func recordEvents(t *testing.T, c subscriber) *collectionRecorder {
	t.Helper()
	r := &collectionRecorder{}
	sub := c.Subscribe(r)
	t.Cleanup(func() { runtime.KeepAlive(sub) })
	return r
}

func wait(t *testing.T, task *Task) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := task.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Task did not finish in time")
	}
	return err
}

func ids(movies []*Movie) []int {
	out := make([]int, len(movies))
	for i, m := range movies {
		out[i] = m.ID()
	}
	return out
}

func rangeIDs(items []any) []int {
	out := make([]int, len(items))
	for i, item := range items {
		out[i] = item.(*Movie).ID()
	}
	return out
}
