// Package vtest provides testing helpers for vtree views.
//
// Views are rendered into an in-memory host tree, so tests can assert on
// markup, fire events at nodes and check the mutations of each pass
// without a browser or a WebSocket connection.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    count := 0
//	    h := vtest.New(t, func() *vdom.VNode {
//	        return vdom.Button(vdom.OnClick(func() { count++ }), count)
//	    })
//	    h.Click(h.Find("button"))
//	    h.ExpectHTML("<button>1</button>")
//	}
//
// # Render Assertions
//
// Assert on the markup of a single tree:
//
//	vtest.ExpectContains(t, Page(), "Welcome")
//	vtest.ExpectAttribute(t, Page(), "class", "btn-primary")
//
// # Mirrors
//
// Mirror replays every pass recorded so far into a fresh host, the way a
// client would after connecting, and returns its markup. A view whose
// mirror differs from HTML() produced mutations that do not compose.
package vtest
