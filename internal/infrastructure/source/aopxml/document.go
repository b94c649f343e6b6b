// Package aopxml reads an AOP-Wiki XML export into a small element tree and
// exposes the tree-query operations the assembler needs: find a child or a
// descendant by tag, read an attribute, read text.  Element and attribute
// names are matched by local name; the export namespace is checked once on
// the root element.
package aopxml

import (
	"bufio"
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

// Element tags of the export that the assembler addresses by name.
const (
	TagRoot                          = "data"
	TagVendorSpecific                = "vendor-specific"
	TagAOPReference                  = "aop-reference"
	TagKeyEventReference             = "key-event-reference"
	TagKeyEventRelationshipReference = "key-event-relationship-reference"
	TagStressorReference             = "stressor-reference"
)

// Node is one element of the export.  Text holds the element's own character
// data with surrounding whitespace removed.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// Child returns the first direct child with the given tag, or nil.  Calling
// Child on a nil node returns nil so lookups can be chained.
func (n *Node) Child(tag string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// Find follows path through first-matching direct children.
func (n *Node) Find(path ...string) *Node {
	cur := n
	for _, tag := range path {
		cur = cur.Child(tag)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// All returns the direct children of the node reached by path[:len-1] whose
// tag equals the last element of path.
func (n *Node) All(path ...string) []*Node {
	if len(path) == 0 || n == nil {
		return nil
	}
	parent := n.Find(path[:len(path)-1]...)
	if parent == nil {
		return nil
	}
	tag := path[len(path)-1]
	var out []*Node
	for _, c := range parent.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// Descendants returns every element below n with the given tag in document
// order.
func (n *Node) Descendants(tag string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.Children {
			if c.Tag == tag {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// Attr returns the attribute value, or "" when absent.
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.Attrs[name]
}

// Value returns the text of the node reached by path and whether that node
// exists.
func (n *Node) Value(path ...string) (string, bool) {
	target := n.Find(path...)
	if target == nil {
		return "", false
	}
	return target.Text, true
}

// String returns the text at path, or "" when the node is absent.
func (n *Node) String(path ...string) string {
	v, _ := n.Value(path...)
	return v
}

// Document is a parsed export.
type Document struct {
	Root      *Node
	Namespace string
}

// VendorSpecific returns the reference-table section.
func (d *Document) VendorSpecific() *Node {
	return d.Root.Child(TagVendorSpecific)
}

// Elements returns the top-level entity elements with the given tag
// ("aop", "key-event", "chemical", ...).
func (d *Document) Elements(tag string) []*Node {
	return d.Root.All(tag)
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path, namespace string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMalformedDocument, "cannot open source export").
			WithDetail("path=" + path)
	}
	defer f.Close()
	return Parse(bufio.NewReaderSize(f, 1<<20), namespace)
}

// Parse decodes an export.  The root element must be <data> in namespace
// (when namespace is non-empty) and must contain a vendor-specific section.
func Parse(r io.Reader, namespace string) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.Entity = xml.HTMLEntity

	var (
		stack  []*Node
		root   *Node
		rootNS string
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMalformedDocument, "xml decode failed")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{Tag: t.Name.Local}
			if len(t.Attr) > 0 {
				node.Attrs = make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
						continue
					}
					node.Attrs[a.Name.Local] = a.Value
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New(errors.ErrCodeMalformedDocument, "multiple root elements")
				}
				root = node
				rootNS = t.Name.Space
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.CharData:
			if len(stack) > 0 {
				cur := stack[len(stack)-1]
				cur.Text += string(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New(errors.ErrCodeMalformedDocument, "unbalanced end element")
			}
			cur := stack[len(stack)-1]
			cur.Text = strings.TrimSpace(cur.Text)
			stack = stack[:len(stack)-1]
		}
	}

	if root == nil {
		return nil, errors.New(errors.ErrCodeMalformedDocument, "empty document")
	}
	if root.Tag != TagRoot {
		return nil, errors.New(errors.ErrCodeMalformedDocument, "unexpected root element").
			WithDetail("tag=" + root.Tag)
	}
	if namespace != "" && rootNS != namespace {
		return nil, errors.New(errors.ErrCodeMalformedDocument, "unexpected document namespace").
			WithDetail("namespace=" + rootNS)
	}
	doc := &Document{Root: root, Namespace: rootNS}
	if doc.VendorSpecific() == nil {
		return nil, errors.New(errors.ErrCodeMalformedDocument, "missing vendor-specific section")
	}
	return doc, nil
}
