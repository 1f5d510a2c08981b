package markup

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vango-dev/vtree/pkg/hosttree"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func TestParse(t *testing.T) {
	root, err := ParseString(`
		<div class="card" id="main">
			<h1>Title</h1>
			<p style="color: red; margin:0">Some
			   text</p>
			<!-- dropped -->
			<input type="checkbox" disabled>
		</div>`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if root.Tag != "div" || root.Shape != vdom.ShapeMany {
		t.Fatalf("root = <%s> %v, want <div> Many", root.Tag, root.Shape)
	}
	if root.Props["class"] != "card" || root.Props["id"] != "main" {
		t.Errorf("Props = %v", root.Props)
	}
	if len(root.Children) != 3 {
		t.Fatalf("len(Children) = %d, want 3", len(root.Children))
	}

	p := root.Children[1]
	want := vdom.Style{"color": "red", "margin": "0"}
	if got := p.Props["style"]; !reflect.DeepEqual(got, want) {
		t.Errorf("style = %v, want %v", got, want)
	}
	if p.Shape != vdom.ShapeOne || p.Child.Text != "Some text" {
		t.Errorf("p child = %+v, want collapsed text", p.Child)
	}

	input := root.Children[2]
	if v, ok := input.Props["disabled"]; !ok || v != "" {
		t.Errorf("disabled = %v, %v", v, ok)
	}
}

func TestParseKeys(t *testing.T) {
	root, err := ParseString(`<ul><li data-key="a">A</li><li key="b">B</li></ul>`)
	if err != nil {
		t.Fatal(err)
	}
	a, b := root.Children[0], root.Children[1]
	if a.Key != "a" || a.Props[KeyAttr] != "a" {
		t.Errorf("first item key = %v, props = %v", a.Key, a.Props)
	}
	if b.Key != "b" {
		t.Errorf("second item key = %v", b.Key)
	}
	if _, ok := b.Props["key"]; ok {
		t.Error("key attribute should not remain in props")
	}

	single, err := ParseString(`<ul><li data-key="a">A</li></ul>`)
	if err != nil {
		t.Fatal(err)
	}
	if single.Shape != vdom.ShapeMany {
		t.Errorf("single keyed child Shape = %v, want Many", single.Shape)
	}
}

func TestParseRawText(t *testing.T) {
	root, err := ParseString("<pre>  a\n   b  </pre>")
	if err != nil {
		t.Fatal(err)
	}
	if root.Child == nil || root.Child.Text != "  a\n   b  " {
		t.Errorf("pre text = %+v, want whitespace preserved", root.Child)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmpty},
		{"whitespace", "   \n ", ErrEmpty},
		{"comment only", "<!-- x -->", ErrEmpty},
		{"text only", "hello", ErrEmpty},
		{"two roots", "<p>a</p><p>b</p>", ErrMultipleRoots},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseFragment(t *testing.T) {
	nodes, err := ParseFragment(strings.NewReader("<p>a</p> text <p>b</p>"))
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 3 {
		t.Fatalf("len = %d, want 3", len(nodes))
	}
	if nodes[1].Kind != vdom.KindText || nodes[1].Text != " text " {
		t.Errorf("nodes[1] = %+v", nodes[1])
	}
}

func TestParseRenderRoundTrip(t *testing.T) {
	src := `<div class="a b" id="x"><span data-key="k">hi</span><input disabled type="text"></div>`
	root, err := ParseString(src)
	if err != nil {
		t.Fatal(err)
	}

	host := hosttree.New()
	container := host.NewRoot("body")
	if err := vdom.NewRenderer(host).Render(root, container); err != nil {
		t.Fatal(err)
	}
	if got := host.InnerHTML(container); got != src {
		t.Errorf("InnerHTML() = %s, want %s", got, src)
	}
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		input string
		want  vdom.Style
	}{
		{"", vdom.Style{}},
		{"color:red", vdom.Style{"color": "red"}},
		{" Color : red ; ; margin: ", vdom.Style{"color": "red"}},
		{"background: url(a:b)", vdom.Style{"background": "url(a:b)"}},
	}

	for _, tt := range tests {
		if got := parseStyle(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseStyle(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestMinify(t *testing.T) {
	got, err := Minify("<div>\n    <p>a</p>\n    <p>b</p>\n</div>")
	if err != nil {
		t.Fatalf("Minify() error = %v", err)
	}
	if strings.Contains(got, "\n") || !strings.Contains(got, "<p>a") {
		t.Errorf("Minify() = %q", got)
	}

	text, err := Minify("  plain \n text ")
	if err != nil {
		t.Fatal(err)
	}
	if text != "plain text" {
		t.Errorf("Minify() = %q, want %q", text, "plain text")
	}

	var buf strings.Builder
	if err := MinifyTo(&buf, strings.NewReader("<span>  x  </span>")); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 || strings.Contains(buf.String(), "  ") {
		t.Errorf("MinifyTo() = %q", buf.String())
	}
}
