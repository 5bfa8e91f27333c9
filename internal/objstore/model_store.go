package objstore

// Entity is a lower-layer record with a stable integer identity.
type Entity interface {
	GetID() int
}

// ModelStore builds upper-layer models of type M from records of type D and
// guarantees one live model per record identity.
type ModelStore[M any, D Entity] struct {
	store   *Store[M]
	creator func(D) *M
}

// NewModelStore creates a model store using creator to build new models
func NewModelStore[M any, D Entity](creator func(D) *M) *ModelStore[M, D] {
	return &ModelStore[M, D]{
		store:   NewStore[M](),
		creator: creator,
	}
}

// GetOrCreate returns the live model for data's identity, building it from
// data if none exists. data is ignored when a live model is found.
func (s *ModelStore[M, D]) GetOrCreate(data D) *M {
	return s.store.GetOrCreate(data.GetID(), func() *M {
		return s.creator(data)
	})
}

// Find returns the live model for id, or nil.
func (s *ModelStore[M, D]) Find(id int) *M {
	return s.store.Find(id)
}

// Live returns the number of live models
func (s *ModelStore[M, D]) Live() int {
	return s.store.Live()
}

// Compact drops slots of collected models
func (s *ModelStore[M, D]) Compact() int {
	return s.store.Compact()
}
