// Package identity normalizes user references to canonical string identifiers.
//
// User references arrive from clients in several shapes: a bare identifier
// ("u1"), an object embedding one ({"userId": "u1"}), or a doubly nested
// object ({"userId": {"id": "u1"}}). Every membership, ownership, and like
// comparison in the system must go through Normalize so that two references
// to the same user always compare equal regardless of wire shape.
package identity

import (
	"encoding/json"
	"fmt"
)

// Absent is the canonical identifier for a missing user reference.
const Absent = ""

// Kind discriminates the wire shape a Ref was decoded from.
type Kind int

const (
	// KindAbsent marks a nil or missing reference.
	KindAbsent Kind = iota
	// KindBare marks a reference that arrived as a plain identifier.
	KindBare
	// KindEmbedded marks a reference that arrived wrapped in an object.
	KindEmbedded
)

// Ref is a tagged user reference resolved once at the system boundary.
// Downstream code only ever reads the canonical ID; the original shape is
// retained for diagnostics, never re-inspected for comparisons.
type Ref struct {
	kind Kind
	id   string
}

// Bare returns a Ref for a plain identifier.
func Bare(id string) Ref {
	if id == Absent {
		return Ref{}
	}
	return Ref{kind: KindBare, id: id}
}

// FromValue resolves an arbitrary decoded value into a Ref.
func FromValue(v any) Ref {
	id := Normalize(v)
	if id == Absent {
		return Ref{}
	}
	kind := KindBare
	if _, ok := v.(map[string]any); ok {
		kind = KindEmbedded
	}
	return Ref{kind: kind, id: id}
}

// ID returns the canonical string identifier, or Absent.
func (r Ref) ID() string { return r.id }

// Kind returns the wire shape the reference was decoded from.
func (r Ref) Kind() Kind { return r.kind }

// IsAbsent reports whether the reference is missing.
func (r Ref) IsAbsent() bool { return r.id == Absent }

// String implements fmt.Stringer.
func (r Ref) String() string { return r.id }

// UnmarshalJSON accepts a bare string, an embedded object, or null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = FromValue(v)
	return nil
}

// MarshalJSON always emits the canonical string form, so documents written
// back to the store carry one shape regardless of what was read.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.id)
}

// embeddedKeys are probed in order when a reference arrives as an object.
var embeddedKeys = [...]string{"userId", "user_id", "id"}

// Normalize reduces a user reference of any supported shape to its canonical
// string identifier. It never fails: nil yields Absent, and unresolvable
// shapes degrade to their default string rendering so comparisons stay
// defined.
func Normalize(v any) string {
	switch t := v.(type) {
	case nil:
		return Absent
	case string:
		return t
	case Ref:
		return t.id
	case *Ref:
		if t == nil {
			return Absent
		}
		return t.id
	case map[string]any:
		for _, k := range embeddedKeys {
			if inner, ok := t[k]; ok {
				return Normalize(inner)
			}
		}
		return fmt.Sprintf("%v", t)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Equal reports whether two references resolve to the same canonical
// identifier. Two absent references are not considered equal.
func Equal(a, b any) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == Absent || nb == Absent {
		return false
	}
	return na == nb
}
