package value

// maxPrototypeDepth bounds prototype-chain walks. The reader recurses
// unconditionally per the core's contract; this is the defense against a
// loader or native bug wiring a cycle into __proto__.
const maxPrototypeDepth = 10000

// Object is a (map, slots) pair: the map names which FieldDesc lives in
// which slot, the parallel slots vector holds the values. Slot 0 is always
// the __proto__ link: an Object reference to the parent, or Null for
// prototype-less objects such as top-level frames.
type Object struct {
	Map   *ObjectMap
	Slots []Value
}

// New allocates an object with no prototype (__proto__ = Null).
func New(root *ObjectMap) *Object {
	return &Object{
		Map:   root.WithField(ProtoDesc),
		Slots: []Value{Null()},
	}
}

// Create allocates an object whose prototype is parent.
func Create(root *ObjectMap, parent *Object) *Object {
	return &Object{
		Map:   root.WithField(ProtoDesc),
		Slots: []Value{Obj(parent)},
	}
}

// Proto returns the object's own __proto__ slot value (Null, or an Object).
func (o *Object) Proto() Value { return o.Slots[0] }

// SetProto overwrites the __proto__ slot directly, bypassing Set's normal
// local-field semantics. Used only by environment wiring at startup.
func (o *Object) SetProto(v Value) { o.Slots[0] = v }

// ContainsSimple reports whether desc is a local field (no prototype walk).
func (o *Object) ContainsSimple(desc FieldDesc) bool {
	_, ok := o.Map.Find(desc)
	return ok
}

// GetSimple returns the local value for desc, or Undefined with ok=false
// if desc is not a local field.
func (o *Object) GetSimple(desc FieldDesc) (Value, bool) {
	idx, ok := o.Map.Find(desc)
	if !ok {
		return Undefined(), false
	}
	return o.Slots[idx], true
}

// Contains reports whether desc is defined locally or by any ancestor.
func (o *Object) Contains(desc FieldDesc) bool {
	cur := o
	for depth := 0; depth < maxPrototypeDepth; depth++ {
		if cur.ContainsSimple(desc) {
			return true
		}
		proto := cur.Proto()
		if !proto.IsObject() {
			return false
		}
		cur = proto.AsObject()
	}
	panic("value: prototype chain exceeds maximum depth (cycle?)")
}

// Get walks the prototype chain for desc, returning Undefined when no
// ancestor defines it.
func (o *Object) Get(desc FieldDesc) Value {
	cur := o
	for depth := 0; depth < maxPrototypeDepth; depth++ {
		if v, ok := cur.GetSimple(desc); ok {
			return v
		}
		proto := cur.Proto()
		if !proto.IsObject() {
			return Undefined()
		}
		cur = proto.AsObject()
	}
	panic("value: prototype chain exceeds maximum depth (cycle?)")
}

// Set writes desc=val locally. It never walks the prototype chain: an
// existing local field is overwritten in place; otherwise the object's map
// transitions to add the field and the slots vector grows to match.
func (o *Object) Set(desc FieldDesc, val Value) {
	if idx, ok := o.Map.Find(desc); ok {
		o.Slots[idx] = val
		return
	}
	o.Map = o.Map.WithField(desc)
	o.Slots = append(o.Slots, val)
}
