package value

import "github.com/kristofer/minijs/internal/intern"

// FieldDesc identifies a property slot: an interned name plus the hidden
// bit that partitions runtime-internal fields ("type", "value",
// "parent_frame", "is_apply", "DefaultValue", ...) away from user property
// names, so the two namespaces never collide.
type FieldDesc struct {
	Name   intern.IString
	Hidden bool
}

// ProtoDesc is the descriptor for slot 0 of every Object: the prototype
// link. intern.New() guarantees "__proto__" always interns to ID 0.
var ProtoDesc = FieldDesc{Name: 0, Hidden: false}
