package vdom

import "strings"

// Attr represents a single prop passed to an element factory.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// attr creates an Attr with the given key and value.
func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Prop sets an arbitrary prop.
func Prop(name string, value any) Attr { return attr(name, value) }

// Key sets the reconciliation key. The key must be comparable.
func Key(key any) Attr { return attr("key", key) }

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class name, joining multiple classes with spaces.
func Class(classes ...string) Attr { return attr("class", strings.Join(classes, " ")) }

// StyleMap sets the structured style prop.
func StyleMap(style Style) Attr { return attr("style", style) }

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return attr("data-"+key, value) }

// TitleAttr sets the title attribute.
func TitleAttr(title string) Attr { return attr("title", title) }

// Href sets the href attribute.
func Href(url string) Attr { return attr("href", url) }

// Type sets the type attribute.
func Type(t string) Attr { return attr("type", t) }

// Value sets the value attribute.
func Value(v string) Attr { return attr("value", v) }

// Disabled sets the disabled attribute. false removes it.
func Disabled(disabled bool) Attr { return attr("disabled", disabled) }

// Hidden sets the hidden attribute.
func Hidden() Attr { return attr("hidden", true) }
