package svgopt

import (
	"encoding/xml"
	"regexp"
	"strings"
)

// plugin transforms the tree in place
type plugin struct {
	name string
	fn   func(p *Processor, root *node)
}

// pipeline lists the plugins run at each pass, in order:
// the default preset first (without its ID step), then the
// configured ID cleanup, attribute and namespace removal.
var pipeline = []plugin{
	{"removeMetadata", removeElements("metadata")},
	{"removeTitle", removeElements("title")},
	{"removeDesc", removeElements("desc")},
	{"removeEditorsNSData", removeEditorsNSData},
	{"cleanupAttrs", cleanupAttrs},
	{"removeEmptyAttrs", removeEmptyAttrs},
	{"cleanupNumericValues", cleanupNumericValues},
	{"convertPathData", convertPaths},
	{"removeEmptyText", removeEmptyText},
	{"collapseGroups", collapseGroups},
	{"removeEmptyContainers", removeEmptyContainers},
	{"cleanupIDs", func(p *Processor, root *node) { cleanupIDs(root, p.cfg.PreservePrefixes) }},
	{"removeAttrs", removeAttrs},
	{"removeUnusedNS", removeUnusedNS},
	{"removeXMLNS", removeXMLNS},
}

// filterChildren recursively removes the children for which `drop` is true
func filterChildren(n *node, drop func(*node) bool) {
	out := n.children[:0]
	for _, c := range n.children {
		if !c.isText() && drop(c) {
			continue
		}
		filterChildren(c, drop)
		out = append(out, c)
	}
	n.children = out
}

func removeElements(locals ...string) func(*Processor, *node) {
	return func(_ *Processor, root *node) {
		filterChildren(root, func(n *node) bool { return n.is(locals...) })
	}
}

var editorNamespaces = map[string]bool{}

func init() {
	for _, ns := range []string{
		"http://sodipodi.sourceforge.net/DTD/sodipodi-0.dtd",
		"http://inkscape.sourceforge.net/DTD/sodipodi-0.dtd",
		"http://www.inkscape.org/namespaces/inkscape",
		"http://www.bohemiancoding.com/sketch/ns",
		"http://ns.adobe.com/AdobeIllustrator/10.0/",
		"http://ns.adobe.com/Graphs/1.0/",
		"http://ns.adobe.com/AdobeSVGViewerExtensions/3.0/",
		"http://ns.adobe.com/Variables/1.0/",
		"http://ns.adobe.com/SaveForWeb/1.0/",
		"http://ns.adobe.com/Extensibility/1.0/",
		"http://ns.adobe.com/Flows/1.0/",
		"http://ns.adobe.com/ImageReplacement/1.0/",
		"http://ns.adobe.com/GenericCustomNamespace/1.0/",
		"http://ns.adobe.com/XPath/1.0/",
		"http://schemas.microsoft.com/visio/2003/SVGExtensions/",
		"http://taptrix.com/vectorillustrator/svg_extensions",
		"http://www.figma.com/figma/ns",
		"http://purl.org/dc/elements/1.1/",
		"http://creativecommons.org/ns#",
		"http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"http://www.serif.com/",
		"http://www.vector.evaxdesign.sk",
	} {
		editorNamespaces[ns] = true
	}
}

// removeEditorsNSData drops the elements and attributes bound to
// the namespaces of drawing editors, with their declarations.
func removeEditorsNSData(_ *Processor, root *node) {
	prefixes := map[string]bool{}
	root.walk(func(n *node) {
		for _, a := range n.attrs {
			if a.Name.Space == "xmlns" && editorNamespaces[a.Value] {
				prefixes[a.Name.Local] = true
			}
		}
	})
	if len(prefixes) == 0 {
		return
	}
	filterChildren(root, func(n *node) bool { return prefixes[n.name.Space] })
	root.walk(func(n *node) {
		n.filterAttrs(func(a xml.Attr) bool {
			if a.Name.Space == "xmlns" {
				return !prefixes[a.Name.Local]
			}
			return !prefixes[a.Name.Space]
		})
	})
}

var (
	newlines    = regexp.MustCompile(`\s*[\r\n]+\s*`)
	whitespaces = regexp.MustCompile(`\s{2,}`)
)

// cleanupAttrs collapses the whitespace of attribute values
func cleanupAttrs(_ *Processor, root *node) {
	root.walk(func(n *node) {
		for i, a := range n.attrs {
			v := newlines.ReplaceAllString(a.Value, " ")
			v = whitespaces.ReplaceAllString(v, " ")
			n.attrs[i].Value = strings.TrimSpace(v)
		}
	})
}

// attributes whose empty value has a meaning
var conditionalAttrs = map[string]bool{
	"requiredExtensions": true, "requiredFeatures": true, "systemLanguage": true,
}

func removeEmptyAttrs(_ *Processor, root *node) {
	root.walk(func(n *node) {
		n.filterAttrs(func(a xml.Attr) bool {
			return a.Value != "" || conditionalAttrs[qualified(a.Name)]
		})
	})
}

// attributes which may look numeric but must be kept verbatim
var verbatimAttrs = map[string]bool{
	"id": true, "class": true, "version": true, "d": true, "name": true,
}

func cleanupNumericValues(p *Processor, root *node) {
	root.walk(func(n *node) {
		for i, a := range n.attrs {
			if a.Name.Space != "" || verbatimAttrs[a.Name.Local] {
				continue
			}
			if a.Name.Local == "viewBox" {
				if v, ok := cleanupNumberList(a.Value, p.cfg.Precision); ok {
					n.attrs[i].Value = v
				}
				continue
			}
			if v, ok := cleanupNumber(a.Value, p.cfg.Precision); ok {
				n.attrs[i].Value = v
			}
		}
	})
}

func convertPaths(p *Processor, root *node) {
	root.walk(func(n *node) {
		if !n.is("path", "glyph", "missing-glyph") {
			return
		}
		for i, a := range n.attrs {
			if a.Name.Space == "" && a.Name.Local == "d" {
				n.attrs[i].Value = convertPathData(a.Value, p.cfg.Precision)
			}
		}
	})
}

func removeEmptyText(_ *Processor, root *node) {
	filterChildren(root, func(n *node) bool {
		switch {
		case n.is("text", "tspan"):
			return len(n.children) == 0
		case n.is("tref"):
			_, ok := n.attr("xlink:href")
			return !ok
		}
		return false
	})
}

// collapseGroups replaces the groups without attributes by their children
func collapseGroups(_ *Processor, root *node) {
	var collapse func(n *node)
	collapse = func(n *node) {
		var out []*node
		for _, c := range n.children {
			collapse(c)
			if c.is("g") && len(c.attrs) == 0 {
				out = append(out, c.children...)
				continue
			}
			out = append(out, c)
		}
		n.children = out
	}
	collapse(root)
}

var containers = map[string]bool{
	"a": true, "defs": true, "g": true, "marker": true, "mask": true, "pattern": true,
	"switch": true, "symbol": true, "clipPath": true, "glyph": true, "missing-glyph": true,
}

// removeEmptyContainers drops containers without children.
// Containers carrying an id may be referenced and are kept.
func removeEmptyContainers(_ *Processor, root *node) {
	var empty func(n *node) bool
	empty = func(n *node) bool {
		if n.isText() || n.name.Space != "" || !containers[n.name.Local] || len(n.children) != 0 {
			return false
		}
		if _, hasID := n.attr("id"); hasID {
			return false
		}
		if _, hasFilter := n.attr("filter"); n.is("g") && hasFilter {
			return false
		}
		return true
	}
	// children first, so that nested empty containers vanish in one pass
	var visit func(n *node)
	visit = func(n *node) {
		out := n.children[:0]
		for _, c := range n.children {
			visit(c)
			if !empty(c) {
				out = append(out, c)
			}
		}
		n.children = out
	}
	visit(root)
}

// removeAttrs drops the attributes matching the configured patterns
func removeAttrs(p *Processor, root *node) {
	if len(p.attrPatterns) == 0 {
		return
	}
	root.walk(func(n *node) {
		element := qualified(n.name)
		n.filterAttrs(func(a xml.Attr) bool {
			name := qualified(a.Name)
			for _, pattern := range p.attrPatterns {
				if pattern.matches(element, name, a.Value) {
					return false
				}
			}
			return true
		})
	})
}

// removeUnusedNS drops the prefixed namespace declarations
// no element or attribute refers to.
func removeUnusedNS(_ *Processor, root *node) {
	used := map[string]bool{"xml": true}
	root.walk(func(n *node) {
		used[n.name.Space] = true
		for _, a := range n.attrs {
			if a.Name.Space != "xmlns" {
				used[a.Name.Space] = true
			}
		}
	})
	root.walk(func(n *node) {
		n.filterAttrs(func(a xml.Attr) bool {
			return a.Name.Space != "xmlns" || used[a.Name.Local]
		})
	})
}

// removeXMLNS removes the default namespace declaration of the
// <svg> elements, which is inherited from the document the
// fragment is inlined in.
func removeXMLNS(p *Processor, root *node) {
	if !p.cfg.RemoveXMLNS {
		return
	}
	root.walk(func(n *node) {
		if n.is("svg") {
			n.removeAttr("xmlns")
		}
	})
}

// attrPattern is a compiled removal pattern, written
// `attr`, `element:attr` or `element:attr:value`,
// each part being a regular expression matched on the whole value.
type attrPattern struct {
	element, attr, value *regexp.Regexp
}

func anchored(expr string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + expr + ")$")
}

func compileAttrPattern(pattern string) (attrPattern, error) {
	element, attr, value := ".*", pattern, ".*"
	if parts := strings.Split(pattern, ":"); len(parts) == 2 {
		element, attr = parts[0], parts[1]
	} else if len(parts) == 3 {
		element, attr, value = parts[0], parts[1], parts[2]
	}
	var (
		out attrPattern
		err error
	)
	if out.element, err = anchored(element); err != nil {
		return out, err
	}
	if out.attr, err = anchored(attr); err != nil {
		return out, err
	}
	out.value, err = anchored(value)
	return out, err
}

func (a attrPattern) matches(element, attr, value string) bool {
	return a.element.MatchString(element) && a.attr.MatchString(attr) && a.value.MatchString(value)
}
