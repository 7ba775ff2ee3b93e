package ecs

// Store is a generic handle-keyed map. The tree keeps its entity arena in
// one; anything else that needs per-entity side data can use another and
// register it so destruction clears it too.
type Store[T any] struct {
	data map[EntityID]*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data: make(map[EntityID]*T, 256),
	}
}

func (s *Store[T]) Set(id EntityID, v *T) {
	s.data[id] = v
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	v, ok := s.data[id]
	return v, ok
}

func (s *Store[T]) Remove(id EntityID) {
	delete(s.data, id)
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// Each visits entries in unspecified order. Use the tree traversal when
// order matters.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for id, v := range s.data {
		fn(id, v)
	}
}
