package event

// Interests is the handler filter cache: for each event name, the targets
// whose handler table declares that name, in registration order. It is
// updated on add/remove so dispatch never scans uninterested targets.
//
// Order is by registration sequence, not by when an interest was declared:
// a target that gains a handler late still sorts at its registered slot.
type Interests[K comparable] struct {
	byName map[string][]K
	byID   map[K][]string
	seq    map[K]uint64
	next   uint64
}

func NewInterests[K comparable]() *Interests[K] {
	return &Interests[K]{
		byName: make(map[string][]K),
		byID:   make(map[K][]string),
		seq:    make(map[K]uint64),
	}
}

// Register fixes the dispatch position of id. Ids never registered get
// their position on their first Add.
func (r *Interests[K]) Register(id K) {
	if _, ok := r.seq[id]; ok {
		return
	}
	r.next++
	r.seq[id] = r.next
}

// Add declares interest of id in name. Repeated declarations are ignored.
func (r *Interests[K]) Add(id K, name string) {
	for _, n := range r.byID[id] {
		if n == name {
			return
		}
	}
	r.Register(id)
	r.byID[id] = append(r.byID[id], name)
	r.byName[name] = r.insert(r.byName[name], id)
}

// insert places id by sequence into a fresh slice.
func (r *Interests[K]) insert(ids []K, id K) []K {
	s := r.seq[id]
	i := len(ids)
	for i > 0 && r.seq[ids[i-1]] > s {
		i--
	}
	out := make([]K, 0, len(ids)+1)
	out = append(out, ids[:i]...)
	out = append(out, id)
	return append(out, ids[i:]...)
}

// Remove drops every interest of id and forgets its position.
func (r *Interests[K]) Remove(id K) {
	delete(r.seq, id)
	for _, name := range r.byID[id] {
		r.byName[name] = without(r.byName[name], id)
		if len(r.byName[name]) == 0 {
			delete(r.byName, name)
		}
	}
	delete(r.byID, id)
}

// Drop removes the interest of id in a single name.
func (r *Interests[K]) Drop(id K, name string) {
	names := r.byID[id]
	for i, n := range names {
		if n != name {
			continue
		}
		r.byID[id] = append(names[:i:i], names[i+1:]...)
		r.byName[name] = without(r.byName[name], id)
		if len(r.byName[name]) == 0 {
			delete(r.byName, name)
		}
		return
	}
}

// Targets returns a copy of the interested ids for name.
func (r *Interests[K]) Targets(name string) []K {
	ids := r.byName[name]
	if len(ids) == 0 {
		return nil
	}
	out := make([]K, len(ids))
	copy(out, ids)
	return out
}

// Interested reports whether id declared interest in name.
func (r *Interests[K]) Interested(id K, name string) bool {
	for _, n := range r.byID[id] {
		if n == name {
			return true
		}
	}
	return false
}

// Count returns the number of targets interested in name.
func (r *Interests[K]) Count(name string) int {
	return len(r.byName[name])
}

func without[K comparable](ids []K, id K) []K {
	for i, v := range ids {
		if v == id {
			out := make([]K, 0, len(ids)-1)
			out = append(out, ids[:i]...)
			return append(out, ids[i+1:]...)
		}
	}
	return ids
}
