package dom

import (
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Collection is an ordered, immutable sequence of elements produced by
// a query or filter. All members belong to the same Document. Every
// operation returns a new Collection and leaves the receiver untouched.
type Collection struct {
	doc   *Document
	elems []*Element
}

// FromElements builds a collection from existing elements, for example
// after a Select projection that produced elements. All elements must
// share a document; otherwise ErrMixedDocuments is returned.
func FromElements(elems []*Element) (*Collection, error) {
	c := &Collection{elems: make([]*Element, len(elems))}
	copy(c.elems, elems)
	for _, e := range elems {
		if c.doc == nil {
			c.doc = e.doc
		} else if e.doc != c.doc {
			return nil, ErrMixedDocuments
		}
	}
	return c, nil
}

// Len returns the number of elements in the collection.
func (c *Collection) Len() int {
	return len(c.elems)
}

// First returns the first element, or nil when the collection is empty.
func (c *Collection) First() *Element {
	if len(c.elems) == 0 {
		return nil
	}
	return c.elems[0]
}

// At returns the element at index i, or nil when out of range.
func (c *Collection) At(i int) *Element {
	if i < 0 || i >= len(c.elems) {
		return nil
	}
	return c.elems[i]
}

// Elements returns a copy of the element sequence.
func (c *Collection) Elements() []*Element {
	out := make([]*Element, len(c.elems))
	copy(out, c.elems)
	return out
}

// Texts returns the normalized text of every element, in order.
func (c *Collection) Texts() []string {
	out := make([]string, len(c.elems))
	for i, e := range c.elems {
		out[i] = e.Text()
	}
	return out
}

// AttrValues returns the named attribute of every element that carries
// it, in order. Elements missing the attribute are skipped.
func (c *Collection) AttrValues(name string) []string {
	var out []string
	for _, e := range c.elems {
		if v, ok := e.Attr(name); ok {
			out = append(out, v)
		}
	}
	return out
}

// Find searches the descendants of every element in the collection for
// the CSS selector. Results are deduplicated and returned in document
// order.
func (c *Collection) Find(selector string) (*Collection, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, &SelectorError{Selector: selector, Err: err}
	}
	return c.merge(func(e *Element) []*html.Node {
		return goquery.NewDocumentFromNode(e.node).FindMatcher(sel).Nodes
	}), nil
}

// XPath evaluates the expression against every element in the
// collection. Results are deduplicated and returned in document order.
func (c *Collection) XPath(expression string) (*Collection, error) {
	expr, err := xpath.Compile(expression)
	if err != nil {
		return nil, &XPathError{Expression: expression, Err: err}
	}
	return c.merge(func(e *Element) []*html.Node {
		return htmlquery.QuerySelectorAll(e.node, expr)
	}), nil
}

// Where returns the elements for which the predicate holds, preserving
// relative order. A predicate failure aborts the whole operation with a
// *PredicateError; the receiver is never modified.
func (c *Collection) Where(pred func(*Element) (bool, error)) (*Collection, error) {
	out := &Collection{doc: c.doc}
	for i, e := range c.elems {
		keep, err := pred(e)
		if err != nil {
			return nil, &PredicateError{Index: i, Err: err}
		}
		if keep {
			out.elems = append(out.elems, e)
		}
	}
	return out, nil
}

// merge runs a per-element node query, deduplicates the results, and
// restores document order with a single tree walk. Nodes not reachable
// from the document root (synthesized XPath attribute nodes) are
// appended in encounter order.
func (c *Collection) merge(query func(*Element) []*html.Node) *Collection {
	if len(c.elems) == 0 {
		return &Collection{doc: c.doc}
	}
	want := make(map[*html.Node]bool)
	var encounter []*html.Node
	for _, e := range c.elems {
		for _, n := range query(e) {
			if !want[n] {
				want[n] = true
				encounter = append(encounter, n)
			}
		}
	}

	ordered := c.doc.inDocumentOrder(want)
	if len(ordered) < len(encounter) {
		placed := make(map[*html.Node]bool, len(ordered))
		for _, e := range ordered {
			placed[e.node] = true
		}
		for _, n := range encounter {
			if !placed[n] {
				ordered = append(ordered, c.doc.wrap(n))
			}
		}
	}
	return &Collection{doc: c.doc, elems: ordered}
}

// Select applies a projection to every element in order and returns the
// projected values. Cardinality and order are preserved: the value at
// index i is fn(collection[i]). A projection failure on any element
// aborts the whole operation with a *ProjectionError.
//
// When the projection returns elements, FromElements turns the result
// back into a Collection for further chaining.
func Select[T any](c *Collection, fn func(*Element) (T, error)) ([]T, error) {
	out := make([]T, 0, len(c.elems))
	for i, e := range c.elems {
		v, err := fn(e)
		if err != nil {
			return nil, &ProjectionError{Index: i, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}
