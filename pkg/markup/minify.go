package markup

import (
	"io"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

const mediaType = "text/html"

var (
	minifier *minify.M
	once     sync.Once
)

// getMinifier returns the shared HTML minifier.
func getMinifier() *minify.M {
	once.Do(func() {
		minifier = minify.New()
		minifier.AddFunc(mediaType, html.Minify)
	})
	return minifier
}

// Minify removes insignificant whitespace and redundant syntax from
// serialized HTML. Text without tags only has its whitespace normalized.
func Minify(content string) (string, error) {
	if !strings.Contains(content, "<") {
		return strings.Join(strings.Fields(content), " "), nil
	}
	return getMinifier().String(mediaType, content)
}

// MinifyTo streams the minified form of r to w.
func MinifyTo(w io.Writer, r io.Reader) error {
	return getMinifier().Minify(mediaType, w, r)
}
