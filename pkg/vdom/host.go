package vdom

// Host is the set of primitive operations on a live tree.
//
// AppendChild and InsertBefore must move child when it is already attached
// somewhere, matching the DOM. NextSibling returns NoHandle when node is the
// last child or detached. Errors are returned to the caller of Render
// unchanged apart from wrapping.
type Host interface {
	CreateElementNode(tag string) (Handle, error)
	CreateTextNode(text string) (Handle, error)
	AppendChild(container, child Handle) error
	InsertBefore(container, child, reference Handle) error
	RemoveChild(container, child Handle) error
	SetAttribute(node Handle, name, value string) error
	RemoveAttribute(node Handle, name string) error
	SetStyleProperty(node Handle, name, value string) error
	ClearStyleProperty(node Handle, name string) error
	SetClassName(node Handle, value string) error
	AddEventListener(node Handle, event string, handler any) error
	RemoveEventListener(node Handle, event string, handler any) error
	SetTextValue(node Handle, text string) error
	NextSibling(node Handle) Handle
}
