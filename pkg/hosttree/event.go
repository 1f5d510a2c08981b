package hosttree

import (
	"fmt"
	"slices"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// Event is passed to handlers invoked by Dispatch.
type Event struct {
	Type   string      // Event name without the "@" prefix, e.g. "click"
	Target vdom.Handle // Node the event was dispatched on
	Value  string      // Optional payload, e.g. an input value
}

// Dispatch invokes the handlers registered for event on h, in registration
// order, and returns how many ran. Supported handler signatures are func(),
// func(Event) and func(Event) error; the first error stops dispatch.
func (t *Tree) Dispatch(h vdom.Handle, event, value string) (int, error) {
	n, err := t.element(h)
	if err != nil {
		return 0, err
	}
	// Handlers may re-render and change the listener list.
	handlers := slices.Clone(n.listeners[event])
	ev := Event{Type: event, Target: h, Value: value}

	for i, handler := range handlers {
		switch fn := handler.(type) {
		case func():
			fn()
		case func(Event):
			fn(ev)
		case func(Event) error:
			if err := fn(ev); err != nil {
				return i + 1, err
			}
		default:
			return i, fmt.Errorf("hosttree: unsupported %s handler type %T", event, handler)
		}
	}
	return len(handlers), nil
}
