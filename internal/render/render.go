// Package render converts markdown documents to HTML for preview and export.
//
// Rendering is delegated to goldmark. A Renderer is stateless after
// construction and safe for concurrent use. Front matter is stripped before
// conversion so metadata never shows up in the preview.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/dshills/mdscribe/internal/document"
)

// Options configures a Renderer.
type Options struct {
	// Extensions names goldmark extensions to enable. Empty selects GFM,
	// linkify and task lists. Unknown names are ignored.
	Extensions []string

	// HardWraps renders soft line breaks as <br>.
	HardWraps bool

	// Unsafe passes raw HTML in the document through to the output.
	Unsafe bool
}

// DefaultOptions returns the preview defaults.
func DefaultOptions() Options {
	return Options{Unsafe: true}
}

// Renderer converts markdown to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	return &Renderer{md: newEngine(opts)}
}

// Fragment renders text to an HTML fragment.
func (r *Renderer) Fragment(text string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(document.StripFrontMatter(text)), &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return buf.String(), nil
}

// Page renders text to a standalone HTML page titled title.
func (r *Renderer) Page(title, text string) (string, error) {
	body, err := r.Fragment(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(body),
	})
	if err != nil {
		return "", fmt.Errorf("page template: %w", err)
	}
	return buf.String(), nil
}

// ErrorPage returns the page shown in place of a document that could not be
// read.
func ErrorPage(err error) string {
	var buf bytes.Buffer
	_ = errorTemplate.Execute(&buf, err.Error())
	return buf.String()
}

func newEngine(opts Options) goldmark.Markdown {
	parserOptions := []parser.Option{
		parser.WithAutoHeadingID(),
	}

	var rendererOptions []renderer.Option
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if opts.Unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithParserOptions(parserOptions...),
		goldmark.WithExtensions(collectExtensions(opts.Extensions)...),
	}
	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}

	return goldmark.New(engineOptions...)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

// KnownExtension reports whether name is a supported extension.
func KnownExtension(name string) bool {
	_, ok := extensionRegistry[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{
			extension.GFM,
			extension.Linkify,
			extension.TaskList,
		}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if ext, ok := extensionRegistry[key]; ok {
			extenders = append(extenders, ext)
		}
	}
	return extenders
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; padding: 20px; color: #333; }
code { background-color: #f4f4f4; padding: 2px 4px; border-radius: 3px; }
pre { background-color: #f4f4f4; padding: 10px; border-radius: 5px; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Error</title>
</head>
<body>
<h1>Error reading file</h1>
<p>{{.}}</p>
</body>
</html>
`))
