package ecs

// Removable is implemented by every per-entity index (arena, tag index,
// handler interest registry, body owner map) so the tree can drop an entity
// from all of them in one call on destroy.
type Removable interface {
	Remove(id EntityID)
}

// Registry tracks all per-entity indexes.
type Registry struct {
	stores []Removable
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Removable, 0, 8),
	}
}

// Register adds an index to the registry.
func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

// RemoveAll clears the given entity from every registered index.
func (r *Registry) RemoveAll(id EntityID) {
	for _, s := range r.stores {
		s.Remove(id)
	}
}

// tagIndex maps tag -> live entities carrying it, in registration order.
type tagIndex struct {
	byTag map[string][]EntityID
	byID  map[EntityID][]string
}

func newTagIndex() *tagIndex {
	return &tagIndex{
		byTag: make(map[string][]EntityID),
		byID:  make(map[EntityID][]string),
	}
}

func (x *tagIndex) Add(id EntityID, tag string) {
	for _, t := range x.byID[id] {
		if t == tag {
			return
		}
	}
	x.byID[id] = append(x.byID[id], tag)
	x.byTag[tag] = append(x.byTag[tag], id)
}

func (x *tagIndex) RemoveTag(id EntityID, tag string) {
	tags := x.byID[id]
	for i, t := range tags {
		if t == tag {
			x.byID[id] = append(tags[:i:i], tags[i+1:]...)
			x.byTag[tag] = removeID(x.byTag[tag], id)
			if len(x.byTag[tag]) == 0 {
				delete(x.byTag, tag)
			}
			return
		}
	}
}

func (x *tagIndex) Remove(id EntityID) {
	for _, tag := range x.byID[id] {
		x.byTag[tag] = removeID(x.byTag[tag], id)
		if len(x.byTag[tag]) == 0 {
			delete(x.byTag, tag)
		}
	}
	delete(x.byID, id)
}

// Snapshot returns a copy so callers may destroy entities while iterating.
func (x *tagIndex) Snapshot(tag string) []EntityID {
	ids := x.byTag[tag]
	if len(ids) == 0 {
		return nil
	}
	out := make([]EntityID, len(ids))
	copy(out, ids)
	return out
}

// removeID returns ids without id. It never writes into the old backing
// array, so snapshots taken earlier stay intact.
func removeID(ids []EntityID, id EntityID) []EntityID {
	for i, v := range ids {
		if v == id {
			out := make([]EntityID, 0, len(ids)-1)
			out = append(out, ids[:i]...)
			return append(out, ids[i+1:]...)
		}
	}
	return ids
}
