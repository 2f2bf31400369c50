package dom

import (
	"errors"
	"fmt"
)

// ErrMixedDocuments is returned when a collection would span elements
// from more than one Document.
var ErrMixedDocuments = errors.New("elements belong to different documents")

// SelectorError reports a CSS selector that failed to compile.
type SelectorError struct {
	Selector string
	Err      error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid CSS selector %q: %v", e.Selector, e.Err)
}

func (e *SelectorError) Unwrap() error {
	return e.Err
}

// XPathError reports an XPath expression that failed to compile.
type XPathError struct {
	Expression string
	Err        error
}

func (e *XPathError) Error() string {
	return fmt.Sprintf("invalid XPath expression %q: %v", e.Expression, e.Err)
}

func (e *XPathError) Unwrap() error {
	return e.Err
}

// ProjectionError reports a projection that failed on a single element.
// Index identifies the element within the source collection.
type ProjectionError struct {
	Index int
	Err   error
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("projection failed at element %d: %v", e.Index, e.Err)
}

func (e *ProjectionError) Unwrap() error {
	return e.Err
}

// PredicateError reports a predicate that failed on a single element.
// Index identifies the element within the source collection.
type PredicateError struct {
	Index int
	Err   error
}

func (e *PredicateError) Error() string {
	return fmt.Sprintf("predicate failed at element %d: %v", e.Index, e.Err)
}

func (e *PredicateError) Unwrap() error {
	return e.Err
}
