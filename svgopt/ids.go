package svgopt

import (
	"encoding/xml"
	"regexp"
	"strings"
)

// ID cleanup: unreferenced IDs are removed and referenced ones
// are renamed to the shortest available names. IDs starting with one
// of the preserved prefixes are left untouched.

var (
	urlReference   = regexp.MustCompile(`\burl\(\s*["']?#([^)"'\s]+)["']?\s*\)`)
	beginReference = regexp.MustCompile(`(^|;)\s*([^\s;.]+)\.`)
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// idGenerator yields a, b, ..., Z, aa, ab, ...
type idGenerator struct {
	current []int
}

func (g *idGenerator) next() string {
	// increment, as a base len(idAlphabet) number
	i := len(g.current) - 1
	for ; i >= 0; i-- {
		g.current[i]++
		if g.current[i] < len(idAlphabet) {
			break
		}
		g.current[i] = 0
	}
	if i < 0 {
		g.current = append([]int{0}, g.current...)
	}
	var b strings.Builder
	for _, c := range g.current {
		b.WriteByte(idAlphabet[c])
	}
	return b.String()
}

func isHrefAttr(name xml.Name) bool { return name.Local == "href" }

// references returns the IDs referenced by the attribute value,
// in order of appearance.
func references(a xml.Attr) []string {
	var out []string
	if isHrefAttr(a.Name) {
		if v := strings.TrimSpace(a.Value); strings.HasPrefix(v, "#") {
			out = append(out, v[1:])
		}
	}
	if a.Name.Space == "" && (a.Name.Local == "begin" || a.Name.Local == "end") {
		for _, m := range beginReference.FindAllStringSubmatch(a.Value, -1) {
			out = append(out, m[2])
		}
	}
	for _, m := range urlReference.FindAllStringSubmatch(a.Value, -1) {
		out = append(out, m[1])
	}
	return out
}

// renameReferences rewrites every reference found in `a` using `renames`
func renameReferences(a xml.Attr, renames map[string]string) string {
	value := a.Value
	if isHrefAttr(a.Name) {
		if v := strings.TrimSpace(value); strings.HasPrefix(v, "#") {
			if to, ok := renames[v[1:]]; ok {
				return "#" + to
			}
		}
	}
	if a.Name.Space == "" && (a.Name.Local == "begin" || a.Name.Local == "end") {
		value = beginReference.ReplaceAllStringFunc(value, func(m string) string {
			sub := beginReference.FindStringSubmatch(m)
			to, ok := renames[sub[2]]
			if !ok {
				return m
			}
			return strings.Replace(m, sub[2]+".", to+".", 1)
		})
	}
	return urlReference.ReplaceAllStringFunc(value, func(m string) string {
		sub := urlReference.FindStringSubmatch(m)
		to, ok := renames[sub[1]]
		if !ok {
			return m
		}
		return "url(#" + to + ")"
	})
}

func hasPreservedPrefix(id string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

// cleanupIDs removes or minifies the IDs of the tree.
// Documents with <style> or <script> are skipped, since
// their content may reference IDs.
func cleanupIDs(root *node, prefixes []string) {
	var (
		skip       bool
		defined    []*node // elements carrying an ID, in document order
		referenced = map[string]bool{}
		preserved  = map[string]bool{}
	)
	root.walk(func(n *node) {
		if n.is("style", "script") {
			skip = true
		}
		for _, a := range n.attrs {
			if a.Name.Space == "" && a.Name.Local == "id" {
				defined = append(defined, n)
				if hasPreservedPrefix(a.Value, prefixes) {
					preserved[a.Value] = true
				}
				continue
			}
			for _, ref := range references(a) {
				referenced[ref] = true
			}
		}
	})
	if skip || len(defined) == 0 {
		return
	}

	var (
		gen     idGenerator
		renames = map[string]string{}
	)
	for _, n := range defined {
		id, _ := n.attr("id")
		if preserved[id] {
			continue
		}
		if !referenced[id] {
			n.removeAttr("id")
			continue
		}
		if to, done := renames[id]; done {
			// duplicated ID: the first definition wins
			if to != id {
				n.removeAttr("id")
			}
			continue
		}
		newID := gen.next()
		for preserved[newID] || hasPreservedPrefix(newID, prefixes) {
			newID = gen.next()
		}
		renames[id] = newID
		setAttr(n, "id", newID)
	}

	root.walk(func(n *node) {
		for i, a := range n.attrs {
			if a.Name.Space == "" && a.Name.Local == "id" {
				continue
			}
			n.attrs[i].Value = renameReferences(a, renames)
		}
	})
}

func setAttr(n *node, name, value string) {
	for i, a := range n.attrs {
		if qualified(a.Name) == name {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}
