package vdom

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unsafe"
)

// PropHandler reconciles one named prop from prev to next on a host node.
// A nil prev means the prop is being installed, a nil next that it is being
// cleared.
type PropHandler func(host Host, node Handle, name string, prev, next any) error

// booleanAttrs are rendered as present-but-empty when true.
var booleanAttrs = map[string]bool{
	"allowfullscreen": true,
	"async":           true,
	"autofocus":       true,
	"autoplay":        true,
	"checked":         true,
	"controls":        true,
	"default":         true,
	"defer":           true,
	"disabled":        true,
	"hidden":          true,
	"inert":           true,
	"loop":            true,
	"multiple":        true,
	"muted":           true,
	"novalidate":      true,
	"open":            true,
	"readonly":        true,
	"required":        true,
	"reversed":        true,
	"selected":        true,
}

// reconcileProp maps a single prop from prev to next onto node.
func (r *Reconciler) reconcileProp(node Handle, name string, prev, next any) error {
	if h, ok := r.handlers[name]; ok {
		return h(r.host, node, name, prev, next)
	}
	switch {
	case name == "style":
		return reconcileStyle(r.host, node, name, prev, next)
	case name == "class" || name == "className":
		return reconcileClass(r.host, node, name, prev, next)
	case IsEventProp(name):
		return reconcileEvent(r.host, node, name, prev, next)
	default:
		return reconcileAttr(r.host, node, name, prev, next)
	}
}

// patchProps installs or updates every prop of next and clears every prop of
// prev that next no longer carries. Names are visited in sorted order so the
// mutation sequence is deterministic.
func (r *Reconciler) patchProps(node Handle, prev, next Props) error {
	for _, name := range sortedKeys(next) {
		if err := r.reconcileProp(node, name, prev[name], next[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(prev) {
		if _, ok := next[name]; ok {
			continue
		}
		if err := r.reconcileProp(node, name, prev[name], nil); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(props Props) []string {
	if len(props) == 0 {
		return nil
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// reconcileStyle sets every style key of next whose value changed and clears
// every key of prev missing from next. String styles are a plain attribute;
// switching between a string and a map removes the attribute or clears the
// properties before installing the other form.
func reconcileStyle(host Host, node Handle, name string, prev, next any) error {
	oldStyle, oldOK := toStyle(prev)
	newStyle, newOK := toStyle(next)
	switch {
	case !oldOK && !newOK:
		return reconcileAttr(host, node, name, prev, next)
	case !oldOK:
		if err := host.RemoveAttribute(node, name); err != nil {
			return fmt.Errorf("vdom: remove attribute %q: %w", name, err)
		}
		return setStyle(host, node, nil, newStyle)
	case !newOK:
		if err := clearStyle(host, node, oldStyle, nil); err != nil {
			return err
		}
		return reconcileAttr(host, node, name, nil, next)
	}
	if err := setStyle(host, node, oldStyle, newStyle); err != nil {
		return err
	}
	return clearStyle(host, node, oldStyle, newStyle)
}

// setStyle writes the keys of next whose value differs in prev.
func setStyle(host Host, node Handle, prev, next Style) error {
	for _, key := range sortedStyleKeys(next) {
		value := next[key]
		if was, ok := prev[key]; ok && was == value {
			continue
		}
		if err := host.SetStyleProperty(node, key, value); err != nil {
			return fmt.Errorf("vdom: set style %q: %w", key, err)
		}
	}
	return nil
}

// clearStyle clears the keys of prev that next does not carry.
func clearStyle(host Host, node Handle, prev, next Style) error {
	for _, key := range sortedStyleKeys(prev) {
		if _, ok := next[key]; ok {
			continue
		}
		if err := host.ClearStyleProperty(node, key); err != nil {
			return fmt.Errorf("vdom: clear style %q: %w", key, err)
		}
	}
	return nil
}

// toStyle converts a style prop to a map. ok is false for values that are
// not structured styles (e.g. a raw CSS string).
func toStyle(v any) (Style, bool) {
	switch s := v.(type) {
	case nil:
		return nil, true
	case Style:
		return s, true
	case map[string]string:
		return Style(s), true
	case map[string]any:
		out := make(Style, len(s))
		for k, val := range s {
			if val == nil {
				continue
			}
			out[k] = propToString(val)
		}
		return out, true
	default:
		return nil, false
	}
}

func sortedStyleKeys(s Style) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// reconcileClass writes the combined class name.
func reconcileClass(host Host, node Handle, _ string, prev, next any) error {
	oldClass, newClass := classString(prev), classString(next)
	if prev != nil && oldClass == newClass {
		return nil
	}
	if prev == nil && newClass == "" {
		return nil
	}
	if err := host.SetClassName(node, newClass); err != nil {
		return fmt.Errorf("vdom: set class: %w", err)
	}
	return nil
}

func classString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case []string:
		return strings.Join(c, " ")
	default:
		return propToString(c)
	}
}

// reconcileEvent swaps the handler registered for the event implied by name.
func reconcileEvent(host Host, node Handle, name string, prev, next any) error {
	if SameHandler(prev, next) {
		return nil
	}
	event := EventName(name)
	if prev != nil {
		if err := host.RemoveEventListener(node, event, prev); err != nil {
			return fmt.Errorf("vdom: remove %s listener: %w", event, err)
		}
	}
	if next != nil {
		if err := host.AddEventListener(node, event, next); err != nil {
			return fmt.Errorf("vdom: add %s listener: %w", event, err)
		}
	}
	return nil
}

// SameHandler reports whether two event handlers are the same value. Func
// handlers are compared by func value, so the same closure is equal to
// itself while two closures created by separate evaluations are not.
func SameHandler(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	at, bt := reflect.TypeOf(a), reflect.TypeOf(b)
	if at != bt {
		return false
	}
	if at.Kind() == reflect.Func {
		return funcValue(a) == funcValue(b)
	}
	if reflect.ValueOf(a).Comparable() && reflect.ValueOf(b).Comparable() {
		return a == b
	}
	return false
}

// funcValue returns the data word of an interface holding a func, which is
// the func value itself: a pointer to the closure, so two closures of the
// same literal differ. reflect.Value.Pointer only yields the code pointer.
// This relies on the gc runtime layout of an interface (type word, data
// word) and on funcs being stored directly in the data word.
func funcValue(v any) unsafe.Pointer {
	return (*[2]unsafe.Pointer)(unsafe.Pointer(&v))[1]
}

// reconcileAttr sets or removes a plain attribute. nil removes it, and so
// does false on a boolean attribute; any other false is written as "false".
func reconcileAttr(host Host, node Handle, name string, prev, next any) error {
	oldAbsent, newAbsent := attrAbsent(name, prev), attrAbsent(name, next)
	if newAbsent {
		if oldAbsent {
			return nil
		}
		if err := host.RemoveAttribute(node, name); err != nil {
			return fmt.Errorf("vdom: remove attribute %q: %w", name, err)
		}
		return nil
	}
	if !oldAbsent && propsEqual(prev, next) {
		return nil
	}
	if err := host.SetAttribute(node, name, attrString(name, next)); err != nil {
		return fmt.Errorf("vdom: set attribute %q: %w", name, err)
	}
	return nil
}

func attrAbsent(name string, v any) bool {
	if v == nil {
		return true
	}
	b, ok := v.(bool)
	return ok && !b && booleanAttrs[strings.ToLower(name)]
}

func attrString(name string, v any) string {
	if b, ok := v.(bool); ok && b && booleanAttrs[strings.ToLower(name)] {
		return ""
	}
	return propToString(v)
}

// propsEqual compares two prop values for equality.
func propsEqual(a, b any) bool {
	// Fast path for common types
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	// Fallback to reflect for complex types
	return reflect.DeepEqual(a, b)
}

// propToString converts a prop value to its attribute string.
func propToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
