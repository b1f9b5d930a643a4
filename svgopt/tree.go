package svgopt

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"maps"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
)

var (
	errNoRootElement   = errors.New("no root element")
	errNotSVG          = errors.New("root element is not <svg>")
	errUnclosedElement = errors.New("unclosed element")
	errMismatchedEnd   = errors.New("mismatched end element")
	errTrailingContent = errors.New("content after the root element")
)

// node is either an element or a text chunk (when name.Local is empty).
// Namespace prefixes are kept verbatim in name.Space, since
// the document is read with RawToken.
type node struct {
	name     xml.Name
	attrs    []xml.Attr
	children []*node
	text     string
}

func (n *node) isText() bool { return n.name.Local == "" }

// is reports whether `n` is an element without prefix, named one of `locals`.
func (n *node) is(locals ...string) bool {
	if n.isText() || n.name.Space != "" {
		return false
	}
	for _, l := range locals {
		if n.name.Local == l {
			return true
		}
	}
	return false
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func (n *node) attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if qualified(a.Name) == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) removeAttr(name string) {
	n.filterAttrs(func(a xml.Attr) bool { return qualified(a.Name) != name })
}

// filterAttrs keeps the attributes for which `keep` returns true
func (n *node) filterAttrs(keep func(a xml.Attr) bool) {
	out := n.attrs[:0]
	for _, a := range n.attrs {
		if keep(a) {
			out = append(out, a)
		}
	}
	n.attrs = out
}

// walk calls fn on every element of the tree, parents first.
func (n *node) walk(fn func(*node)) {
	if n.isText() {
		return
	}
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}

// elements in which character data is meaningful
var textContainers = map[string]bool{
	"text": true, "tspan": true, "textPath": true, "tref": true, "altGlyph": true,
	"title": true, "desc": true, "style": true, "script": true,
}

// internal general entity declaration, as found in a DOCTYPE
var entityDecl = regexp.MustCompile(`<!ENTITY\s+([^\s%"']+)\s+(?:"([^"]*)"|'([^']*)')\s*>`)

// parse reads a whole SVG document. Comments, processing instructions
// and directives (DOCTYPE) are dropped, as well as whitespace
// between elements. The internal entities declared in the DOCTYPE
// are expanded.
func parse(src []byte) (*node, error) {
	decoder := xml.NewDecoder(bytes.NewReader(src))
	decoder.CharsetReader = charset.NewReaderLabel
	entities := maps.Clone(xml.HTMLEntity)
	decoder.Entity = entities

	var (
		root  *node
		stack []*node
	)
	for {
		t, err := decoder.RawToken()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		switch tok := t.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, errTrailingContent
			}
			n := &node{name: tok.Name, attrs: append([]xml.Attr(nil), tok.Attr...)}
			if root == nil {
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.Directive:
			for _, m := range entityDecl.FindAllSubmatch(tok, -1) {
				entities[string(m[1])] = string(m[2]) + string(m[3])
			}
		case xml.EndElement:
			if len(stack) == 0 || stack[len(stack)-1].name != tok.Name {
				return nil, fmt.Errorf("%w </%s>", errMismatchedEnd, qualified(tok.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(tok)) != 0 {
					if root == nil {
						return nil, errNoRootElement
					}
					return nil, errTrailingContent
				}
				continue
			}
			parent := stack[len(stack)-1]
			if !textContainers[parent.name.Local] && len(bytes.TrimSpace(tok)) == 0 {
				continue
			}
			parent.children = append(parent.children, &node{text: string(tok)})
		}
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("%w <%s>", errUnclosedElement, qualified(stack[len(stack)-1].name))
	}
	if root == nil {
		return nil, errNoRootElement
	}
	if !root.is("svg") {
		return nil, errNotSVG
	}
	return root, nil
}

var (
	attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `"`, "&quot;")
	textEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;")
)

// serialize writes the tree without XML declaration nor indentation.
func (n *node) serialize() string {
	var b strings.Builder
	n.writeTo(&b, false)
	return b.String()
}

func (n *node) writeTo(b *strings.Builder, raw bool) {
	if n.isText() {
		if raw && (strings.Contains(n.text, "<") || strings.Contains(n.text, "&")) &&
			!strings.Contains(n.text, "]]>") {
			b.WriteString("<![CDATA[" + n.text + "]]>")
			return
		}
		b.WriteString(textEscaper.Replace(n.text))
		return
	}
	name := qualified(n.name)
	b.WriteString("<" + name)
	for _, a := range n.attrs {
		b.WriteString(" " + qualified(a.Name) + `="` + attrEscaper.Replace(a.Value) + `"`)
	}
	if len(n.children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	raw = n.is("style", "script")
	for _, c := range n.children {
		c.writeTo(b, raw)
	}
	b.WriteString("</" + name + ">")
}
