package export

import (
	"context"
	"os"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLWriter overwrites an HTML file holding the trace in a <pre> block.
type HTMLWriter struct {
	Path  string
	Title string
}

func (w HTMLWriter) WriteTrace(ctx context.Context, t Trace) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Create(w.Path)
	if err != nil {
		return err
	}
	if err := html.Render(f, w.document(t)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w HTMLWriter) document(t Trace) *html.Node {
	title := w.Title
	if title == "" {
		title = "Inference Reasoning Path"
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	head := element(atom.Head)
	head.AppendChild(withText(element(atom.Title), title))
	root.AppendChild(head)

	body := element(atom.Body)
	body.AppendChild(withText(element(atom.H1), title))
	pre := withText(element(atom.Pre), t.Body())
	if t.RunID != "" {
		pre.Attr = append(pre.Attr, html.Attribute{Key: "data-run", Val: t.RunID})
	}
	body.AppendChild(pre)
	root.AppendChild(body)

	doc.AppendChild(root)
	return doc
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func withText(n *html.Node, text string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}
