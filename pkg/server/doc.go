// Package server serves live vtree sessions over WebSocket.
//
// Each connection gets a Session with its own in-memory host tree. The
// session renders the App's view into that tree through a mutation
// Recorder and sends every pass as a protocol.Batch. The client mirrors
// the tree with a protocol.Replayer bound to the container handle sent in
// the Vtree-Root upgrade header. Client events name server handles; the
// session dispatches them to the real handlers and re-renders.
//
// # Usage
//
//	app := func(s *server.Session) server.View {
//		count := 0
//		return func() *vdom.VNode {
//			return vdom.Button(vdom.OnClick(func() { count++ }), strconv.Itoa(count))
//		}
//	}
//	srv := server.New(app, server.DefaultConfig())
//	http.ListenAndServe(":8080", srv.Handler())
//
// Handlers run with the session locked and must not call Session.Render;
// the session re-renders after every event.
package server
