package objstore

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

type record struct {
	id    int
	title string
}

func (r record) GetID() int { return r.id }

type model struct {
	id    int
	title string
	// pad keeps the object out of the tiny allocator so it is collected on its own.
	pad [8]*int
}

func newModel(r record) *model {
	return &model{id: r.id, title: r.title}
}

func TestGetOrCreateReturnsSameObject(t *testing.T) {
	store := NewModelStore(newModel)

	first := store.GetOrCreate(record{id: 1, title: "A"})
	second := store.GetOrCreate(record{id: 1, title: "ignored"})

	if first != second {
		t.Fatalf("Expected the same object for identity 1")
	}
	if second.title != "A" {
		t.Errorf("Expected the first record to win, got title %q", second.title)
	}
	if found := store.Find(1); found != first {
		t.Errorf("Find returned a different object")
	}
	runtime.KeepAlive(first)
}

func TestFindMissing(t *testing.T) {
	store := NewStore[model]()
	if store.Find(42) != nil {
		t.Fatalf("Expected nil for unknown key")
	}
}

func TestConcurrentGetOrCreate(t *testing.T) {
	store := NewStore[model]()
	var calls atomic.Int32

	const workers = 32
	results := make([]*model, workers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = store.GetOrCreate(7, func() *model {
				calls.Add(1)
				return &model{id: 7}
			})
		}(i)
	}
	close(start)
	wg.Wait()

	canonical := store.Find(7)
	if canonical == nil {
		t.Fatalf("Expected a canonical object for key 7")
	}
	for i, got := range results {
		if got != canonical {
			t.Errorf("Worker %d got a non-canonical object", i)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("Expected the factory to run once, ran %d times", n)
	}
	runtime.KeepAlive(results)
}

func createAndDrop(store *ModelStore[model, record], id int) {
	m := store.GetOrCreate(record{id: id, title: "temp"})
	if m == nil {
		panic("nil model")
	}
}

func TestWeakEviction(t *testing.T) {
	store := NewModelStore(newModel)
	createAndDrop(store, 5)

	for i := 0; i < 5 && store.Find(5) != nil; i++ {
		runtime.GC()
	}

	if store.Find(5) != nil {
		t.Fatalf("Expected the model to be collected once unreferenced")
	}
	if store.store.Len() != 0 {
		t.Errorf("Expected the dead slot to be removed by the lookup, %d slots left", store.store.Len())
	}
}

func TestRecreateAfterEviction(t *testing.T) {
	store := NewModelStore(newModel)
	createAndDrop(store, 9)
	for i := 0; i < 5 && store.Find(9) != nil; i++ {
		runtime.GC()
	}

	m := store.GetOrCreate(record{id: 9, title: "fresh"})
	if m.title != "fresh" {
		t.Errorf("Expected a new model built from the new record, got %q", m.title)
	}
	runtime.KeepAlive(m)
}

func TestCompact(t *testing.T) {
	store := NewModelStore(newModel)
	kept := store.GetOrCreate(record{id: 1, title: "kept"})
	createAndDrop(store, 2)
	createAndDrop(store, 3)

	runtime.GC()
	runtime.GC()

	if live := store.Live(); live != 1 {
		t.Errorf("Expected 1 live model, got %d", live)
	}
	if removed := store.Compact(); removed != 2 {
		t.Errorf("Expected 2 dead slots removed, got %d", removed)
	}
	if store.Find(1) != kept {
		t.Errorf("Compact must not drop live models")
	}
	runtime.KeepAlive(kept)
}
