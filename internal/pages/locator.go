// Package pages holds the page objects that drive the ImuneTrack frontend.
package pages

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// By is a locator strategy
type By int

const (
	ByID By = iota
	ByName
	ByCSS
	ByXPath
)

func (b By) String() string {
	switch b {
	case ByID:
		return "id"
	case ByName:
		return "name"
	case ByCSS:
		return "css"
	case ByXPath:
		return "xpath"
	default:
		return "unknown"
	}
}

// Locator identifies elements on a page
type Locator struct {
	By    By
	Value string
}

// ID locates by element id
func ID(id string) Locator { return Locator{By: ByID, Value: id} }

// Name locates form controls by name attribute
func Name(name string) Locator { return Locator{By: ByName, Value: name} }

// CSS locates by CSS selector
func CSS(selector string) Locator { return Locator{By: ByCSS, Value: selector} }

// XPath locates by XPath expression
func XPath(expr string) Locator { return Locator{By: ByXPath, Value: expr} }

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.By, l.Value)
}

// Child returns an XPath locator for descendants of l matching a relative XPath (".//input").
// l must be an XPath locator.
func (l Locator) Child(relative string) Locator {
	if l.By != ByXPath {
		panic(fmt.Sprintf("Child requires an xpath parent, got %s", l))
	}
	return XPath(l.Value + strings.TrimPrefix(relative, "."))
}

// query maps the locator onto a chromedp selector and query option
func (l Locator) query() (string, chromedp.QueryOption) {
	switch l.By {
	case ByID:
		return fmt.Sprintf(`[id=%q]`, l.Value), chromedp.ByQuery
	case ByName:
		return fmt.Sprintf(`[name=%q]`, l.Value), chromedp.ByQuery
	case ByXPath:
		return l.Value, chromedp.BySearch
	default:
		return l.Value, chromedp.ByQuery
	}
}

// queryAll is query with every match selected instead of the first
func (l Locator) queryAll() (string, chromedp.QueryOption) {
	sel, by := l.query()
	if l.By == ByXPath {
		return sel, by
	}
	return sel, chromedp.ByQueryAll
}

// jsAll is a JavaScript expression evaluating to an array of the matched elements
func (l Locator) jsAll() string {
	if l.By == ByXPath {
		return fmt.Sprintf(`(() => {
	const r = document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	const out = [];
	for (let i = 0; i < r.snapshotLength; i++) out.push(r.snapshotItem(i));
	return out;
})()`, jsString(l.Value))
	}
	selector, _ := l.query()
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s))`, jsString(selector))
}

// jsFirst is a JavaScript expression evaluating to the first match or null
func (l Locator) jsFirst() string {
	return fmt.Sprintf(`(%s[0] || null)`, l.jsAll())
}

// jsVisible is a JavaScript function that reports whether an element is rendered
const jsVisible = `(el) => {
	if (!el || !el.isConnected) return false;
	const style = window.getComputedStyle(el);
	if (style.visibility === 'hidden' || style.display === 'none') return false;
	return !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length);
}`

// jsString quotes s as a JavaScript string literal
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
