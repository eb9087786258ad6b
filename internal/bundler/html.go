package bundler

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// page is an HTML entry whose module scripts are bundled.
type page struct {
	name string
	// absolute path of the source document
	source string
	// output path relative to the output dir
	output string
	// script src attribute -> entry input, relative to root
	scripts map[string]string
}

func isHTML(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	return ext == ".html" || ext == ".htm"
}

func isExternal(src string) bool {
	return strings.HasPrefix(src, "http://") ||
		strings.HasPrefix(src, "https://") ||
		strings.HasPrefix(src, "//") ||
		strings.HasPrefix(src, "data:")
}

func parseHTMLFile(p string) (*html.Node, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return html.Parse(f)
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// walk visits element nodes in document order.
func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// moduleScripts returns the local <script type="module" src> elements.
func moduleScripts(doc *html.Node) []*html.Node {
	var scripts []*html.Node
	walk(doc, func(n *html.Node) {
		if n.DataAtom != atom.Script {
			return
		}
		if typ, _ := attr(n, "type"); typ != "module" {
			return
		}
		if src, ok := attr(n, "src"); ok && !isExternal(src) {
			scripts = append(scripts, n)
		}
	})
	return scripts
}

func findElement(doc *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) {
		if found == nil && n.DataAtom == a {
			found = n
		}
	})
	return found
}

// planPage parses an HTML entry and resolves its module scripts.
func (b *Bundler) planPage(name, source string) (*page, error) {
	abs := b.options.abs(source)

	doc, err := parseHTMLFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html entry %q: %w", name, err)
	}

	p := &page{
		name:    name,
		source:  abs,
		output:  pageOutput(b.options.rel(source)),
		scripts: make(map[string]string),
	}

	for _, n := range moduleScripts(doc) {
		src, _ := attr(n, "src")
		input := b.scriptInput(abs, src)

		info, err := os.Stat(b.options.abs(input))
		if err != nil || info.IsDir() {
			return nil, fmt.Errorf("%w: %s references %s", ErrMissingScript, source, src)
		}
		p.scripts[src] = input
	}

	if len(p.scripts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoScripts, source)
	}

	return p, nil
}

// scriptInput resolves a script src against the root ("/x") or the
// directory of the page.
func (b *Bundler) scriptInput(pagePath, src string) string {
	src, _, _ = strings.Cut(src, "?")
	src, _, _ = strings.Cut(src, "#")

	if strings.HasPrefix(src, "/") {
		return path.Clean(strings.TrimPrefix(src, "/"))
	}
	return b.options.rel(filepath.Join(filepath.Dir(pagePath), filepath.FromSlash(src)))
}

// pageOutput keeps the page layout of the project under the output dir.
// Pages outside the root are written at the top level.
func pageOutput(rel string) string {
	if strings.HasPrefix(rel, "../") {
		return path.Base(rel)
	}
	return rel
}

// renderPage rewrites the script sources of a page to the built files and
// links their stylesheets and shared chunks.
func (b *Bundler) renderPage(p *page) ([]byte, error) {
	doc, err := parseHTMLFile(p.source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html entry %q: %w", p.name, err)
	}

	head := findElement(doc, atom.Head)
	linked := make(map[string]bool)

	link := func(rel, href string) {
		if linked[href] {
			return
		}
		linked[href] = true
		head.AppendChild(&html.Node{
			Type:     html.ElementNode,
			Data:     "link",
			DataAtom: atom.Link,
			Attr: []html.Attribute{
				{Key: "rel", Val: rel},
				{Key: "href", Val: href},
			},
		})
	}

	for _, n := range moduleScripts(doc) {
		src, _ := attr(n, "src")
		input, ok := p.scripts[src]
		if !ok {
			// added after the bundler was started
			continue
		}

		scripts, entrypoint, err := b.loadScripts(input)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src, err)
		}
		setAttr(n, "src", entrypoint)

		for _, chunk := range scripts[1:] {
			link("modulepreload", chunk)
		}
		for _, css := range b.stylesheets(input) {
			link("stylesheet", css)
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
