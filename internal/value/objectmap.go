package value

import "golang.org/x/exp/slices"

// ObjectMap is a node in the hidden-class trie: it names the ordered
// sequence of FieldDesc an Object using this map has laid out, and the
// transitions to child nodes that add exactly one more field.
//
// Two objects assigned the same sequence of descriptors, regardless of
// which call sites produced them, converge on the identical *ObjectMap
// node — this is what makes field lookup by slot index safe to cache.
type ObjectMap struct {
	fields      []FieldDesc
	transitions []transition
}

type transition struct {
	desc FieldDesc
	next *ObjectMap
}

// NewRootMap returns a fresh, empty-fields trie root. Callers should create
// exactly one per Environment and thread it everywhere objects are built,
// so the "unique root per process" invariant holds for that Environment.
func NewRootMap() *ObjectMap {
	return &ObjectMap{}
}

// Fields returns the node's field sequence in insertion order. The caller
// must not mutate the returned slice.
func (m *ObjectMap) Fields() []FieldDesc { return m.fields }

// Find returns the slot index of desc within this node, or false if this
// node doesn't carry desc.
func (m *ObjectMap) Find(desc FieldDesc) (int, bool) {
	i := slices.IndexFunc(m.fields, func(f FieldDesc) bool { return f == desc })
	if i < 0 {
		return 0, false
	}
	return i, true
}

// WithField locates or lazily creates the unique child transitioning on
// desc. Precondition: m does not already contain desc (checked; violating
// it is a host bug, not a user error, so it panics).
func (m *ObjectMap) WithField(desc FieldDesc) *ObjectMap {
	if _, ok := m.Find(desc); ok {
		panic("value: ObjectMap.WithField: field already present")
	}
	if i := slices.IndexFunc(m.transitions, func(t transition) bool { return t.desc == desc }); i >= 0 {
		return m.transitions[i].next
	}
	fields := slices.Grow(append([]FieldDesc{}, m.fields...), 1)
	child := &ObjectMap{
		fields: append(fields, desc),
	}
	m.transitions = append(m.transitions, transition{desc: desc, next: child})
	return child
}
