package vdom

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement VKind = iota // <div>, <button>, etc.
	KindText                 // Plain text node
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// Shape classifies the children of a node.
type Shape uint8

const (
	ShapeNone Shape = iota // No children
	ShapeOne               // A single child in VNode.Child
	ShapeMany              // An ordered list in VNode.Children
)

// String returns the string representation of the Shape.
func (s Shape) String() string {
	switch s {
	case ShapeNone:
		return "None"
	case ShapeOne:
		return "One"
	case ShapeMany:
		return "Many"
	default:
		return "Unknown"
	}
}

// Handle identifies a node owned by a Host. Handles are arena indices
// allocated by the host; the zero value never names a live node.
type Handle uint32

// NoHandle is the absent handle.
const NoHandle Handle = 0

// VNode is the immutable description of one tree node.
//
// A VNode is built fresh on every render pass. The reconciler records the
// host node it materialized on the VNode (see Handle) and carries that
// record forward to the next pass's VNode when the slot is reused.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div")
	Key      any      // Reconciliation key, nil if unset
	Props    Props    // Attributes, style, class and "@event" handlers
	Shape    Shape    // Children classification
	Child    *VNode   // ShapeOne child
	Children []*VNode // ShapeMany children
	Text     string   // For KindText

	handle Handle
}

// Props holds attributes and event handlers.
type Props map[string]any

// Style is the structured value of the "style" prop.
type Style map[string]string

// Handle returns the host node this VNode was mounted to, or NoHandle if it
// has not been mounted.
func (v *VNode) Handle() Handle {
	if v == nil {
		return NoHandle
	}
	return v.handle
}

// ChildNodes returns the children as a slice regardless of shape.
func (v *VNode) ChildNodes() []*VNode {
	if v == nil {
		return nil
	}
	switch v.Shape {
	case ShapeOne:
		return []*VNode{v.Child}
	case ShapeMany:
		return v.Children
	default:
		return nil
	}
}

// sameSlot reports whether a and b occupy the same logical slot across a
// diff: equal kind, tag and key.
func sameSlot(a, b *VNode) bool {
	return a.Kind == b.Kind && a.Tag == b.Tag && a.Key == b.Key
}

// slotKey is the map form of sameSlot.
type slotKey struct {
	kind VKind
	tag  string
	key  any
}

func slotOf(v *VNode) slotKey {
	return slotKey{kind: v.Kind, tag: v.Tag, key: v.Key}
}
