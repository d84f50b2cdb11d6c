package svd

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Element is a single element of a parsed description: its tag name,
// the character data directly inside it (trimmed), its attributes and
// its child elements in document order.
type Element struct {
	Name     string
	Text     string
	Attrs    map[string]string
	Children []*Element
}

// Load reads and parses the description file at path and returns the
// document root.
func Load(path string) (*Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	root, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return root, nil
}

// Parse decodes one XML document from r into an element tree and
// returns its root element. Comments and processing instructions are
// dropped; element order is preserved.
func Parse(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)

	var root *Element
	var stack []*Element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local}
			for _, a := range t.Attr {
				if el.Attrs == nil {
					el.Attrs = make(map[string]string)
				}
				el.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("decoding xml: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			el := stack[len(stack)-1]
			el.Text = strings.TrimSpace(el.Text)
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("decoding xml: empty document")
	}
	return root, nil
}

// Child returns the first child element named name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all child elements named name in document order.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// ChildText returns the text of the first child element named name and
// whether such a child exists.
func (e *Element) ChildText(name string) (string, bool) {
	c := e.Child(name)
	if c == nil {
		return "", false
	}
	return c.Text, true
}

// Attr returns the value of the named attribute and whether it is set.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

// ParseUint parses a description scalar. It accepts decimal, 0x-prefixed
// hex and the #1011 binary form used by enumerated values, where an 'x'
// digit means "do not care" and reads as zero.
func ParseUint(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		b := []byte("0b")
		for i := 1; i < len(s); i++ {
			c := s[i]
			if c == 'x' || c == 'X' {
				c = '0'
			}
			b = append(b, c)
		}
		s = string(b)
	}
	return strconv.ParseUint(s, 0, 64)
}
