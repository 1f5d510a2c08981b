package vdom

import (
	"errors"
	"reflect"
	"strconv"
	"testing"
)

// list builds a <ul> of keyed <li> items.
func list(keys ...int) *VNode {
	items := make([]*VNode, 0, len(keys))
	for _, k := range keys {
		items = append(items, Li(Key(k), strconv.Itoa(k)))
	}
	return Ul(items)
}

func handles(nodes []*VNode) []Handle {
	out := make([]Handle, len(nodes))
	for i, n := range nodes {
		out[i] = n.Handle()
	}
	return out
}

func makeHandler(n int) func() {
	return func() { _ = n }
}

func mountInto(t *testing.T, h *recordingHost, tree *VNode) (*Reconciler, Handle) {
	t.Helper()
	root := h.root()
	r := NewReconciler(h)
	if err := r.Mount(tree, root, NoHandle); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	h.reset()
	return r, root
}

func assertOps(t *testing.T, h *recordingHost, want []string) {
	t.Helper()
	if len(want) == 0 && len(h.ops) == 0 {
		return
	}
	if !reflect.DeepEqual(h.ops, want) {
		t.Errorf("ops = %q, want %q", h.ops, want)
	}
}

func TestMountSequence(t *testing.T) {
	h := newRecordingHost()
	root := h.root()
	r := NewReconciler(h)

	tree := Div(Class("card"), ID("x"), Text("hi"))
	if err := r.Mount(tree, root, NoHandle); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}

	assertOps(t, h, []string{
		"create div",
		"setClass card",
		"setAttr id=x",
		"text hi",
		"append #hi",
		"append div",
	})
	if tree.Handle() == NoHandle || tree.Child.Handle() == NoHandle {
		t.Error("mounted nodes should carry handles")
	}
}

func TestMountBeforeReference(t *testing.T) {
	h := newRecordingHost()
	root := h.root()
	r := NewReconciler(h)

	a := Text("a")
	if err := r.Mount(a, root, NoHandle); err != nil {
		t.Fatal(err)
	}
	if err := r.Mount(Text("b"), root, a.Handle()); err != nil {
		t.Fatal(err)
	}

	if got, want := h.labelsOf(root), []string{"#b", "#a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("children = %v, want %v", got, want)
	}
}

func TestPatchText(t *testing.T) {
	h := newRecordingHost()
	prev := Text("a")
	r, root := mountInto(t, h, prev)

	same := Text("a")
	if err := r.Patch(prev, same, root); err != nil {
		t.Fatal(err)
	}
	assertOps(t, h, nil)
	if same.Handle() != prev.Handle() {
		t.Errorf("handle = %d, want %d", same.Handle(), prev.Handle())
	}

	changed := Text("b")
	if err := r.Patch(same, changed, root); err != nil {
		t.Fatal(err)
	}
	assertOps(t, h, []string{"setText b"})
}

func TestPatchReplace(t *testing.T) {
	tests := []struct {
		name string
		prev *VNode
		next *VNode
		want []string
	}{
		{
			name: "text to element",
			prev: Div(Text("a")),
			next: Div(Span("a")),
			want: []string{"remove #a", "create span", "text a", "append #a", "append span"},
		},
		{
			name: "element to text",
			prev: Div(Span("a")),
			next: Div(Text("a")),
			want: []string{"remove span", "text a", "append #a"},
		},
		{
			name: "tag change",
			prev: Div(Span()),
			next: Div(P()),
			want: []string{"remove span", "create p", "append p"},
		},
		{
			name: "key change",
			prev: Div(Span(Key("a"))),
			next: Div(Span(Key("b"))),
			want: []string{"remove span", "create span", "append span"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRecordingHost()
			r, root := mountInto(t, h, tt.prev)
			if err := r.Patch(tt.prev, tt.next, root); err != nil {
				t.Fatalf("Patch() error = %v", err)
			}
			assertOps(t, h, tt.want)
			if tt.next.Handle() != tt.prev.Handle() {
				t.Errorf("parent handle changed: %d -> %d", tt.prev.Handle(), tt.next.Handle())
			}
		})
	}
}

func TestReplaceKeepsPosition(t *testing.T) {
	h := newRecordingHost()
	root := h.root()
	r := NewReconciler(h)

	a, b, c := Span("a"), Span("b"), Span("c")
	for _, n := range []*VNode{a, b, c} {
		if err := r.Mount(n, root, NoHandle); err != nil {
			t.Fatal(err)
		}
	}

	next := P("b")
	if err := r.Patch(b, next, root); err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if got, want := h.labelsOf(root), []string{"span", "p", "span"}; !reflect.DeepEqual(got, want) {
		t.Errorf("children = %v, want %v", got, want)
	}
}

func TestPatchChildrenShapes(t *testing.T) {
	shapes := map[Shape]func() *VNode{
		ShapeNone: func() *VNode { return Div() },
		ShapeOne:  func() *VNode { return Div(Span("x")) },
		ShapeMany: func() *VNode { return Div([]*VNode{P("1"), H1("2")}) },
	}
	labels := map[Shape][]string{
		ShapeNone: nil,
		ShapeOne:  {"span"},
		ShapeMany: {"p", "h1"},
	}

	for _, from := range []Shape{ShapeNone, ShapeOne, ShapeMany} {
		for _, to := range []Shape{ShapeNone, ShapeOne, ShapeMany} {
			t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
				h := newRecordingHost()
				prev := shapes[from]()
				r, root := mountInto(t, h, prev)

				next := shapes[to]()
				if err := r.Patch(prev, next, root); err != nil {
					t.Fatalf("Patch() error = %v", err)
				}
				if got := h.labelsOf(next.Handle()); !reflect.DeepEqual(got, labels[to]) {
					t.Errorf("children = %v, want %v", got, labels[to])
				}
				if from == to {
					for _, op := range h.ops {
						if op == "create p" || op == "create span" || op == "create h1" {
							t.Errorf("unexpected remount: %s", op)
						}
					}
				}
			})
		}
	}
}

func TestPatchKeyed(t *testing.T) {
	tests := []struct {
		name  string
		prev  []int
		next  []int
		ops   []string
		reuse map[int]int // next index -> prev index whose handle is kept
	}{
		{
			name:  "rotate right",
			prev:  []int{1, 2, 3},
			next:  []int{3, 1, 2},
			ops:   []string{"append li", "append li"},
			reuse: map[int]int{0: 2, 1: 0, 2: 1},
		},
		{
			name:  "rotate left",
			prev:  []int{1, 2, 3},
			next:  []int{2, 3, 1},
			ops:   []string{"append li"},
			reuse: map[int]int{0: 1, 1: 2, 2: 0},
		},
		{
			name:  "insert middle",
			prev:  []int{1, 3},
			next:  []int{1, 2, 3},
			ops:   []string{"create li", "text 2", "append #2", "insert li before li"},
			reuse: map[int]int{0: 0, 2: 1},
		},
		{
			name:  "insert front",
			prev:  []int{2},
			next:  []int{1, 2},
			ops:   []string{"create li", "text 1", "append #1", "insert li before li"},
			reuse: map[int]int{1: 0},
		},
		{
			name:  "append",
			prev:  []int{1},
			next:  []int{1, 2},
			ops:   []string{"create li", "text 2", "append #2", "append li"},
			reuse: map[int]int{0: 0},
		},
		{
			name:  "delete middle",
			prev:  []int{1, 2, 3},
			next:  []int{1, 3},
			ops:   []string{"remove li"},
			reuse: map[int]int{0: 0, 1: 2},
		},
		{
			name:  "unchanged",
			prev:  []int{1, 2},
			next:  []int{1, 2},
			ops:   nil,
			reuse: map[int]int{0: 0, 1: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRecordingHost()
			prev := list(tt.prev...)
			r, root := mountInto(t, h, prev)
			prevHandles := handles(prev.Children)

			next := list(tt.next...)
			if err := r.Patch(prev, next, root); err != nil {
				t.Fatalf("Patch() error = %v", err)
			}
			assertOps(t, h, tt.ops)

			nextHandles := handles(next.Children)
			for i, j := range tt.reuse {
				if nextHandles[i] != prevHandles[j] {
					t.Errorf("next[%d] handle = %d, want prev[%d] handle %d", i, nextHandles[i], j, prevHandles[j])
				}
			}
			if got := h.children[next.Handle()]; !reflect.DeepEqual(got, nextHandles) {
				t.Errorf("host order = %v, want %v", got, nextHandles)
			}
		})
	}
}

func TestPatchUnkeyedSiblingsPairInOrder(t *testing.T) {
	h := newRecordingHost()
	prev := Div([]*VNode{P("a"), P("b")})
	r, root := mountInto(t, h, prev)

	next := Div([]*VNode{P("a"), P("c")})
	if err := r.Patch(prev, next, root); err != nil {
		t.Fatal(err)
	}
	assertOps(t, h, []string{"setText c"})
	if next.Children[0].Handle() == next.Children[1].Handle() {
		t.Error("siblings must not share a host node")
	}
}

func TestPatchStyle(t *testing.T) {
	tests := []struct {
		name string
		prev Style
		next Style
		want []string
	}{
		{"clear stale key", Style{"color": "red", "margin": "0"}, Style{"color": "red"}, []string{"clearStyle margin"}},
		{"change value", Style{"color": "red"}, Style{"color": "blue"}, []string{"setStyle color=blue"}},
		{"add key", Style{"color": "red"}, Style{"color": "red", "top": "1px"}, []string{"setStyle top=1px"}},
		{"unchanged", Style{"color": "red"}, Style{"color": "red"}, nil},
		{"empty map", Style{"color": "red"}, Style{}, []string{"clearStyle color"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRecordingHost()
			prev := Div(StyleMap(tt.prev))
			r, root := mountInto(t, h, prev)
			if err := r.Patch(prev, Div(StyleMap(tt.next)), root); err != nil {
				t.Fatal(err)
			}
			assertOps(t, h, tt.want)
		})
	}

	t.Run("style removed", func(t *testing.T) {
		h := newRecordingHost()
		prev := Div(StyleMap(Style{"a": "1", "b": "2"}))
		r, root := mountInto(t, h, prev)
		if err := r.Patch(prev, Div(), root); err != nil {
			t.Fatal(err)
		}
		assertOps(t, h, []string{"clearStyle a", "clearStyle b"})
	})

	t.Run("string to map", func(t *testing.T) {
		h := newRecordingHost()
		prev := Div(Prop("style", "top: 1px"))
		r, root := mountInto(t, h, prev)
		if err := r.Patch(prev, Div(StyleMap(Style{"left": "2px"})), root); err != nil {
			t.Fatal(err)
		}
		assertOps(t, h, []string{"removeAttr style", "setStyle left=2px"})
	})

	t.Run("map to string", func(t *testing.T) {
		h := newRecordingHost()
		prev := Div(StyleMap(Style{"top": "1px"}))
		r, root := mountInto(t, h, prev)
		if err := r.Patch(prev, Div(Prop("style", "left: 2px")), root); err != nil {
			t.Fatal(err)
		}
		assertOps(t, h, []string{"clearStyle top", "setAttr style=left: 2px"})
	})

	t.Run("string style is an attribute", func(t *testing.T) {
		h := newRecordingHost()
		root := h.root()
		r := NewReconciler(h)
		if err := r.Mount(Div(Prop("style", "color: red")), root, NoHandle); err != nil {
			t.Fatal(err)
		}
		assertOps(t, h, []string{"create div", "setAttr style=color: red", "append div"})
	})
}

func TestPatchAttributes(t *testing.T) {
	tests := []struct {
		name string
		prev *VNode
		next *VNode
		want []string
	}{
		{"remove absent", Div(ID("x"), TitleAttr("t")), Div(ID("x")), []string{"removeAttr title"}},
		{"change", Div(ID("x")), Div(ID("y")), []string{"setAttr id=y"}},
		{"false removes", Input(Disabled(true)), Input(Disabled(false)), []string{"removeAttr disabled"}},
		{"nil removes", Div(Prop("title", "t")), Div(Prop("title", nil)), []string{"removeAttr title"}},
		{"false on plain attribute", Div(Prop("aria-hidden", true)), Div(Prop("aria-hidden", false)), []string{"setAttr aria-hidden=false"}},
		{"false installs plain attribute", Div(), Div(Prop("draggable", false)), []string{"setAttr draggable=false"}},
		{"boolean set", Input(Disabled(false)), Input(Disabled(true)), []string{"setAttr disabled="}},
		{"number", Div(Prop("tabindex", 1)), Div(Prop("tabindex", 2)), []string{"setAttr tabindex=2"}},
		{"class change", Div(Class("a")), Div(Class("b")), []string{"setClass b"}},
		{"class removed", Div(Class("a")), Div(), []string{"setClass "}},
		{"class unchanged", Div(Class("a")), Div(Class("a")), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRecordingHost()
			r, root := mountInto(t, h, tt.prev)
			if err := r.Patch(tt.prev, tt.next, root); err != nil {
				t.Fatal(err)
			}
			assertOps(t, h, tt.want)
		})
	}
}

func TestPatchEvents(t *testing.T) {
	shared := makeHandler(1)

	tests := []struct {
		name string
		prev *VNode
		next *VNode
		want []string
	}{
		{"same handler", Button(OnClick(shared)), Button(OnClick(shared)), nil},
		{"new closure", Button(OnClick(makeHandler(1))), Button(OnClick(makeHandler(1))), []string{"unlisten click", "listen click"}},
		{"handler removed", Button(OnClick(shared)), Button(), []string{"unlisten click"}},
		{"handler added", Button(), Button(OnInput(shared)), []string{"listen input"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRecordingHost()
			r, root := mountInto(t, h, tt.prev)
			if err := r.Patch(tt.prev, tt.next, root); err != nil {
				t.Fatal(err)
			}
			assertOps(t, h, tt.want)
		})
	}
}

func TestSameHandler(t *testing.T) {
	f := makeHandler(1)
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"both nil", nil, nil, true},
		{"one nil", f, nil, false},
		{"same func", f, f, true},
		{"distinct closures", makeHandler(1), makeHandler(1), false},
		{"different types", f, "x", false},
		{"comparable values", "save", "save", true},
		{"uncomparable", []int{1}, []int{1}, false},
		{"uncomparable dynamic value", struct{ v any }{[]int{1}}, struct{ v any }{[]int{1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameHandler(tt.a, tt.b); got != tt.want {
				t.Errorf("SameHandler() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithPropHandler(t *testing.T) {
	h := newRecordingHost()
	root := h.root()
	var calls []string
	r := NewReconciler(h, WithPropHandler("value", func(host Host, node Handle, name string, prev, next any) error {
		calls = append(calls, name)
		return host.SetAttribute(node, "data-"+name, propToString(next))
	}))

	if err := r.Mount(Input(Value("hello")), root, NoHandle); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 {
		t.Fatalf("handler calls = %d, want 1", len(calls))
	}
	assertOps(t, h, []string{"create input", "setAttr data-value=hello", "append input"})
}

func TestHostErrorsPropagate(t *testing.T) {
	ops := []string{"create", "text", "append", "setAttr", "setClass"}
	for _, op := range ops {
		t.Run(op, func(t *testing.T) {
			h := newRecordingHost()
			h.failOn = op
			root := h.root()
			r := NewReconciler(h)
			err := r.Mount(Div(Class("c"), ID("x"), "text"), root, NoHandle)
			if !errors.Is(err, errInjected) {
				t.Errorf("Mount() error = %v, want %v", err, errInjected)
			}
		})
	}

	t.Run("remove during patch", func(t *testing.T) {
		h := newRecordingHost()
		prev := list(1, 2)
		r, root := mountInto(t, h, prev)
		h.failOn = "remove"
		if err := r.Patch(prev, list(1), root); !errors.Is(err, errInjected) {
			t.Errorf("Patch() error = %v, want %v", err, errInjected)
		}
	})
}

func TestUnknownKind(t *testing.T) {
	h := newRecordingHost()
	root := h.root()
	r := NewReconciler(h)
	if err := r.Mount(&VNode{Kind: VKind(7)}, root, NoHandle); err == nil {
		t.Error("Mount() should reject an unknown kind")
	}
}
