// Package hosttree is an in-memory host tree for the vdom reconciler.
//
// Tree implements vdom.Host over an arena of nodes addressed by vdom.Handle.
// It follows DOM semantics for insertion (inserting an attached node moves
// it), keeps attributes, style properties, class name and event listeners
// per element, serializes to HTML, dispatches events to registered
// listeners, and counts every mutation it receives.
//
// Tree is used for tests, for server-side rendering in the vtree CLI, and as
// the server-side mirror of a remote client in package server.
package hosttree
