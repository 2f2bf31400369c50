package dom

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func mustParse(t *testing.T, content, url string) *Document {
	t.Helper()
	doc, err := ParseString(content, url)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	return doc
}

func TestFind_DocumentOrder(t *testing.T) {
	doc := mustParse(t, `<div><a href="/x">1</a><a href="/y">2</a></div>`, "http://example.com/")

	anchors, err := doc.Find("a")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if anchors.Len() != 2 {
		t.Fatalf("Expected 2 anchors, got %d", anchors.Len())
	}
	if anchors.At(0).Text() != "1" || anchors.At(1).Text() != "2" {
		t.Errorf("Anchors out of document order: %v", anchors.Texts())
	}

	hrefs, err := Select(anchors, func(e *Element) (string, error) {
		v, _ := e.Attr("href")
		return v, nil
	})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(hrefs) != 2 || hrefs[0] != "/x" || hrefs[1] != "/y" {
		t.Errorf("Expected [/x /y], got %v", hrefs)
	}

	second, err := anchors.Where(func(e *Element) (bool, error) {
		return e.Text() == "2", nil
	})
	if err != nil {
		t.Fatalf("Where failed: %v", err)
	}
	if second.Len() != 1 || second.First().Text() != "2" {
		t.Errorf("Expected single anchor '2', got %v", second.Texts())
	}
}

func TestFind_NoMatchReturnsEmptyCollection(t *testing.T) {
	doc := mustParse(t, `<p>no tables here</p>`, "http://example.com/")

	tables, err := doc.Find("table")
	if err != nil {
		t.Fatalf("Expected no error for unmatched selector, got %v", err)
	}
	if tables == nil || tables.Len() != 0 {
		t.Errorf("Expected empty collection, got %v", tables)
	}

	first, err := doc.FindFirst("table")
	if err != nil {
		t.Fatalf("FindFirst failed: %v", err)
	}
	if first != nil {
		t.Errorf("Expected nil for unmatched FindFirst, got %v", first)
	}
}

func TestFind_MalformedSelector(t *testing.T) {
	doc := mustParse(t, `<p>hi</p>`, "http://example.com/")

	_, err := doc.Find("p[")
	if err == nil {
		t.Fatal("Expected error for malformed selector")
	}
	var selErr *SelectorError
	if !errors.As(err, &selErr) {
		t.Fatalf("Expected *SelectorError, got %T", err)
	}
	if selErr.Selector != "p[" {
		t.Errorf("Expected selector 'p[' in error, got %q", selErr.Selector)
	}
}

func TestXPath_Basic(t *testing.T) {
	doc := mustParse(t, `<ul><li>a</li><li>b</li><li>c</li></ul>`, "http://example.com/")

	items, err := doc.XPath("//li")
	if err != nil {
		t.Fatalf("XPath failed: %v", err)
	}
	if items.Len() != 3 {
		t.Fatalf("Expected 3 items, got %d", items.Len())
	}
	if got := strings.Join(items.Texts(), ""); got != "abc" {
		t.Errorf("Items out of order: %q", got)
	}
}

func TestXPath_Malformed(t *testing.T) {
	doc := mustParse(t, `<a href="/x">1</a>`, "http://example.com/")

	_, err := doc.XPath("//a[")
	if err == nil {
		t.Fatal("Expected error for malformed XPath, got none")
	}
	var xpErr *XPathError
	if !errors.As(err, &xpErr) {
		t.Fatalf("Expected *XPathError, got %T", err)
	}
}

func TestWhere_Idempotent(t *testing.T) {
	doc := mustParse(t, `<div><a href="/x">keep</a><a>drop</a><a href="/y">keep</a></div>`, "http://example.com/")
	anchors, _ := doc.Find("a")

	hasHref := func(e *Element) (bool, error) {
		_, ok := e.Attr("href")
		return ok, nil
	}

	once, err := anchors.Where(hasHref)
	if err != nil {
		t.Fatalf("Where failed: %v", err)
	}
	twice, err := once.Where(hasHref)
	if err != nil {
		t.Fatalf("Second Where failed: %v", err)
	}
	if once.Len() != 2 || twice.Len() != 2 {
		t.Fatalf("Expected 2 elements after filtering, got %d and %d", once.Len(), twice.Len())
	}
	for i := range once.Elements() {
		if once.At(i).node != twice.At(i).node {
			t.Errorf("Where not idempotent at index %d", i)
		}
	}
}

func TestWhere_ChainingLaw(t *testing.T) {
	doc := mustParse(t, `<div>
		<a href="/x" class="nav">1</a>
		<a href="/y">2</a>
		<a class="nav">3</a>
		<a href="/z" class="nav">4</a>
	</div>`, "http://example.com/")
	anchors, _ := doc.Find("a")

	p := func(e *Element) (bool, error) { _, ok := e.Attr("href"); return ok, nil }
	q := func(e *Element) (bool, error) { return len(e.Classes()) > 0, nil }

	chained, err := anchors.Where(p)
	if err != nil {
		t.Fatalf("Where(p) failed: %v", err)
	}
	chained, err = chained.Where(q)
	if err != nil {
		t.Fatalf("Where(q) failed: %v", err)
	}

	combined, err := anchors.Where(func(e *Element) (bool, error) {
		pv, _ := p(e)
		qv, _ := q(e)
		return pv && qv, nil
	})
	if err != nil {
		t.Fatalf("Combined Where failed: %v", err)
	}

	if chained.Len() != combined.Len() {
		t.Fatalf("Chaining law broken: %d vs %d", chained.Len(), combined.Len())
	}
	for i := range chained.Elements() {
		if chained.At(i).node != combined.At(i).node {
			t.Errorf("Chaining law broken at index %d", i)
		}
	}
}

func TestWhere_DoesNotMutateSource(t *testing.T) {
	doc := mustParse(t, `<div><a>1</a><a>2</a><a>3</a></div>`, "http://example.com/")
	anchors, _ := doc.Find("a")

	filtered, err := anchors.Where(func(e *Element) (bool, error) {
		return e.Text() == "2", nil
	})
	if err != nil {
		t.Fatalf("Where failed: %v", err)
	}
	if filtered.Len() != 1 {
		t.Errorf("Expected 1 filtered element, got %d", filtered.Len())
	}
	if anchors.Len() != 3 {
		t.Errorf("Source collection mutated: len is now %d", anchors.Len())
	}
}

func TestWhere_PredicateError(t *testing.T) {
	doc := mustParse(t, `<div><a>1</a><a>2</a></div>`, "http://example.com/")
	anchors, _ := doc.Find("a")

	boom := errors.New("boom")
	_, err := anchors.Where(func(e *Element) (bool, error) {
		if e.Text() == "2" {
			return false, boom
		}
		return true, nil
	})
	var predErr *PredicateError
	if !errors.As(err, &predErr) {
		t.Fatalf("Expected *PredicateError, got %T", err)
	}
	if predErr.Index != 1 {
		t.Errorf("Expected failure at index 1, got %d", predErr.Index)
	}
	if !errors.Is(err, boom) {
		t.Error("Expected wrapped cause to survive")
	}
}

func TestSelect_CardinalityAndOrder(t *testing.T) {
	doc := mustParse(t, `<ol><li>1</li><li>2</li><li>3</li><li>4</li></ol>`, "http://example.com/")
	items, _ := doc.Find("li")

	texts, err := Select(items, func(e *Element) (string, error) {
		return e.Text(), nil
	})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(texts) != items.Len() {
		t.Fatalf("Cardinality not preserved: %d vs %d", len(texts), items.Len())
	}
	for i, want := range []string{"1", "2", "3", "4"} {
		if texts[i] != want {
			t.Errorf("Index %d: expected %q, got %q", i, want, texts[i])
		}
	}
}

func TestSelect_ProjectionErrorAbortsWhole(t *testing.T) {
	doc := mustParse(t, `<div><a href="/x">1</a><a>2</a><a href="/z">3</a></div>`, "http://example.com/")
	anchors, _ := doc.Find("a")

	_, err := Select(anchors, func(e *Element) (string, error) {
		href, ok := e.Attr("href")
		if !ok {
			return "", fmt.Errorf("element %q has no href", e.Text())
		}
		return href, nil
	})
	if err == nil {
		t.Fatal("Expected projection error")
	}
	var projErr *ProjectionError
	if !errors.As(err, &projErr) {
		t.Fatalf("Expected *ProjectionError, got %T", err)
	}
	if projErr.Index != 1 {
		t.Errorf("Expected failure at index 1, got %d", projErr.Index)
	}
}

func TestSelect_ElementsReenableChaining(t *testing.T) {
	doc := mustParse(t, `<ul><li><a href="/x">x</a></li><li><a href="/y">y</a></li></ul>`, "http://example.com/")
	items, _ := doc.Find("li")

	firstAnchors, err := Select(items, func(e *Element) (*Element, error) {
		return e.FindFirst("a")
	})
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	chained, err := FromElements(firstAnchors)
	if err != nil {
		t.Fatalf("FromElements failed: %v", err)
	}
	filtered, err := chained.Where(func(e *Element) (bool, error) {
		return e.Text() == "y", nil
	})
	if err != nil {
		t.Fatalf("Where failed: %v", err)
	}
	if filtered.Len() != 1 || filtered.First().Text() != "y" {
		t.Errorf("Expected single anchor 'y', got %v", filtered.Texts())
	}
}

func TestEmptyCollection_Operations(t *testing.T) {
	doc := mustParse(t, `<p>empty</p>`, "http://example.com/")
	empty, _ := doc.Find("table")

	found, err := empty.Find("tr")
	if err != nil || found.Len() != 0 {
		t.Errorf("Find on empty: got %v, %v", found, err)
	}
	xp, err := empty.XPath("//tr")
	if err != nil || xp.Len() != 0 {
		t.Errorf("XPath on empty: got %v, %v", xp, err)
	}
	where, err := empty.Where(func(*Element) (bool, error) { return true, nil })
	if err != nil || where.Len() != 0 {
		t.Errorf("Where on empty: got %v, %v", where, err)
	}
	sel, err := Select(empty, func(*Element) (string, error) { return "", nil })
	if err != nil || len(sel) != 0 {
		t.Errorf("Select on empty: got %v, %v", sel, err)
	}
	if empty.First() != nil {
		t.Error("First on empty should be nil")
	}
	if empty.At(0) != nil {
		t.Error("At(0) on empty should be nil")
	}
}

func TestCollectionFind_DedupAndDocumentOrder(t *testing.T) {
	// Outer and inner divs overlap in their descendants: the span must
	// appear exactly once, and results must come back in document order.
	doc := mustParse(t, `<div id="outer"><em>1</em><div id="inner"><span>2</span></div><em>3</em></div>`, "http://example.com/")
	divs, _ := doc.Find("div")
	if divs.Len() != 2 {
		t.Fatalf("Expected 2 divs, got %d", divs.Len())
	}

	all, err := divs.Find("em, span")
	if err != nil {
		t.Fatalf("Collection Find failed: %v", err)
	}
	if got := strings.Join(all.Texts(), ""); got != "123" {
		t.Errorf("Expected deduplicated document order '123', got %q", got)
	}
}

func TestFromElements_RejectsMixedDocuments(t *testing.T) {
	doc1 := mustParse(t, `<a>1</a>`, "http://one.example.com/")
	doc2 := mustParse(t, `<a>2</a>`, "http://two.example.com/")

	a1, _ := doc1.FindFirst("a")
	a2, _ := doc2.FindFirst("a")

	_, err := FromElements([]*Element{a1, a2})
	if !errors.Is(err, ErrMixedDocuments) {
		t.Fatalf("Expected ErrMixedDocuments, got %v", err)
	}
}

func TestElement_Accessors(t *testing.T) {
	doc := mustParse(t, `<a href="/page" class="btn primary" rel="nofollow noopener" title="go">  Click  here  </a>`, "http://example.com/")
	a, err := doc.FindFirst("a")
	if err != nil || a == nil {
		t.Fatalf("FindFirst failed: %v", err)
	}

	if a.Tag() != "a" {
		t.Errorf("Expected tag 'a', got %q", a.Tag())
	}
	attrs := a.Attrs()
	if attrs["href"] != "/page" || attrs["title"] != "go" {
		t.Errorf("Unexpected attrs: %v", attrs)
	}
	if got := a.Classes(); len(got) != 2 || got[0] != "btn" || got[1] != "primary" {
		t.Errorf("Unexpected classes: %v", got)
	}
	if got := a.Rels(); len(got) != 2 || got[0] != "nofollow" {
		t.Errorf("Unexpected rels: %v", got)
	}
	if a.Text() != "Click here" {
		t.Errorf("Expected normalized text 'Click here', got %q", a.Text())
	}
	if !strings.Contains(a.FullText(), "  Click  here  ") {
		t.Errorf("FullText should keep whitespace, got %q", a.FullText())
	}
	outer, err := a.HTML()
	if err != nil || !strings.HasPrefix(outer, "<a ") {
		t.Errorf("Unexpected outer HTML: %q (%v)", outer, err)
	}
}

func TestElement_Links(t *testing.T) {
	doc := mustParse(t, `<body>
		<a href="/x">one</a>
		<a href="#top">skip fragment</a>
		<a href="javascript:void(0)">skip js</a>
		<a href="mailto:a@b.c">skip mail</a>
		<a href="https://other.example.com/page">two</a>
		<a href="/x">duplicate</a>
		<a>no href</a>
	</body>`, "http://example.com/dir/page.html")

	links := doc.Root().Links()
	if len(links) != 2 {
		t.Fatalf("Expected 2 links, got %v", links)
	}
	if links[0] != "/x" || links[1] != "https://other.example.com/page" {
		t.Errorf("Unexpected links: %v", links)
	}

	abs := doc.Root().AbsoluteLinks()
	if len(abs) != 2 {
		t.Fatalf("Expected 2 absolute links, got %v", abs)
	}
	if abs[0] != "http://example.com/x" {
		t.Errorf("Expected resolved link, got %q", abs[0])
	}
}

func TestElement_BaseURL(t *testing.T) {
	withBase := mustParse(t, `<head><base href="https://cdn.example.com/assets/"></head><body></body>`, "http://example.com/a/b.html")
	if got := withBase.Root().BaseURL(); got != "https://cdn.example.com/assets/" {
		t.Errorf("Expected base tag to win, got %q", got)
	}

	withoutBase := mustParse(t, `<body></body>`, "http://example.com/a/b.html?x=1")
	if got := withoutBase.Root().BaseURL(); got != "http://example.com/a/" {
		t.Errorf("Expected path truncated at last segment, got %q", got)
	}
}

func TestDocument_TitleAndHTML(t *testing.T) {
	doc := mustParse(t, `<html><head><title>Hello World</title></head><body><p>hi</p></body></html>`, "http://example.com/")
	if doc.Title() != "Hello World" {
		t.Errorf("Expected title 'Hello World', got %q", doc.Title())
	}
	if !strings.Contains(doc.HTML(), "<p>hi</p>") {
		t.Errorf("Serialized HTML missing content: %q", doc.HTML())
	}
	if doc.URL() != "http://example.com/" {
		t.Errorf("Unexpected URL: %q", doc.URL())
	}
}

func TestElementFind_ScopedToSubtree(t *testing.T) {
	doc := mustParse(t, `<div id="left"><a>in</a></div><div id="right"><a>out</a></div>`, "http://example.com/")
	left, _ := doc.FindFirst("#left")
	if left == nil {
		t.Fatal("FindFirst(#left) returned nil")
	}
	anchors, err := left.Find("a")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if anchors.Len() != 1 || anchors.First().Text() != "in" {
		t.Errorf("Find escaped its subtree: %v", anchors.Texts())
	}
}

func TestXPath_AttributeSelection(t *testing.T) {
	doc := mustParse(t, `<div><a href="/x">1</a><a href="/y">2</a></div>`, "http://example.com/")
	hrefs, err := doc.XPath("//a/@href")
	if err != nil {
		t.Fatalf("XPath failed: %v", err)
	}
	if hrefs.Len() != 2 {
		t.Fatalf("Expected 2 attribute matches, got %d", hrefs.Len())
	}
}
