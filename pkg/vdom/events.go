package vdom

import "strings"

// EventPrefix marks a prop name as an event handler registration.
const EventPrefix = "@"

// IsEventProp reports whether name registers an event handler.
func IsEventProp(name string) bool {
	return len(name) > len(EventPrefix) && strings.HasPrefix(name, EventPrefix)
}

// EventName returns the event implied by an event prop ("@click" → "click").
func EventName(prop string) string {
	return strings.TrimPrefix(prop, EventPrefix)
}

// On registers handler for the named event.
func On(event string, handler any) Attr { return attr(EventPrefix+event, handler) }

// OnClick handles click events.
func OnClick(handler any) Attr { return On("click", handler) }

// OnInput handles input events (fired when value changes).
func OnInput(handler any) Attr { return On("input", handler) }

// OnChange handles change events (fired when value is committed).
func OnChange(handler any) Attr { return On("change", handler) }

// OnSubmit handles form submit events.
func OnSubmit(handler any) Attr { return On("submit", handler) }

// OnKeyDown handles keydown events.
func OnKeyDown(handler any) Attr { return On("keydown", handler) }
