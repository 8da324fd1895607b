package pages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/common"
	"golang.org/x/time/rate"
)

// DefaultCheckTimeout bounds IsVisible and IsPresent when no timeout is given
const DefaultCheckTimeout = 5 * time.Second

const pollInterval = 100 * time.Millisecond

// ErrElementNotFound is returned when a locator matches nothing
var ErrElementNotFound = errors.New("element not found")

// Option is one entry of a <select>
type Option struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// BasePage holds the browser helpers shared by all page objects
type BasePage struct {
	ctx      context.Context
	baseURL  string
	timeout  time.Duration
	lookup   time.Duration
	pageLoad time.Duration
	pacer    *rate.Limiter
	logger   arbor.ILogger
}

// NewBasePage binds page helpers to a browser context.
// Paths passed to Navigate are resolved against config.Frontend.URL.
func NewBasePage(ctx context.Context, config *common.Config, logger arbor.ILogger) *BasePage {
	p := &BasePage{
		ctx:      ctx,
		baseURL:  strings.TrimRight(config.Frontend.URL, "/"),
		timeout:  config.ExplicitWait(),
		lookup:   config.ImplicitWait(),
		pageLoad: config.PageLoadTimeout(),
		logger:   logger,
	}
	if slowMo := config.SlowMo(); slowMo > 0 {
		p.pacer = rate.NewLimiter(rate.Every(slowMo), 1)
	}
	return p
}

// Context returns the browser context the page drives
func (p *BasePage) Context() context.Context {
	return p.ctx
}

// URL resolves a frontend path
func (p *BasePage) URL(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return p.baseURL + path
}

// run executes actions with a deadline
func (p *BasePage) run(timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = p.timeout
	}
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// act is run preceded by slow-mo pacing; used for actions that change the page
func (p *BasePage) act(timeout time.Duration, actions ...chromedp.Action) error {
	if p.pacer != nil {
		if err := p.pacer.Wait(p.ctx); err != nil {
			return err
		}
	}
	return p.run(timeout, actions...)
}

// poll waits until the JavaScript expression is truthy
func (p *BasePage) poll(expression string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.timeout
	}
	var ok bool
	return p.run(timeout+time.Second,
		chromedp.Poll("!!("+expression+")", &ok,
			chromedp.WithPollingTimeout(timeout),
			chromedp.WithPollingInterval(pollInterval),
		),
	)
}

// Navigate opens a frontend path and waits for the document to finish loading
func (p *BasePage) Navigate(path string) error {
	return p.Open(p.URL(path))
}

// Open loads an absolute URL and waits for the document to finish loading
func (p *BasePage) Open(url string) error {
	p.logger.Debug().Str("url", url).Msg("Navigating")

	if err := p.act(p.pageLoad, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return p.WaitForPageLoad()
}

// WaitForPageLoad waits for document.readyState to be complete
func (p *BasePage) WaitForPageLoad() error {
	if err := p.poll(`document.readyState === 'complete'`, p.pageLoad); err != nil {
		return fmt.Errorf("page did not finish loading: %w", err)
	}
	return nil
}

// Find waits for the first element matching loc to be present in the DOM
func (p *BasePage) Find(loc Locator) (*cdp.Node, error) {
	nodes, err := p.FindAll(loc)
	if err != nil {
		return nil, err
	}
	return nodes[0], nil
}

// FindAll waits up to the implicit wait for at least one match and returns every matching node
func (p *BasePage) FindAll(loc Locator) ([]*cdp.Node, error) {
	sel, by := loc.queryAll()

	var nodes []*cdp.Node
	if err := p.run(p.lookup, chromedp.Nodes(sel, &nodes, by)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrElementNotFound, loc, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, loc)
	}
	return nodes, nil
}

// Count returns how many elements currently match loc, without waiting
func (p *BasePage) Count(loc Locator) (int, error) {
	var n int
	if err := p.run(p.timeout, chromedp.Evaluate(loc.jsAll()+".length", &n)); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", loc, err)
	}
	return n, nil
}

// Click waits for loc to be clickable, scrolls to it and clicks.
// A JavaScript click is attempted when the native click fails.
func (p *BasePage) Click(loc Locator) error {
	sel, by := loc.query()
	err := p.act(p.timeout,
		chromedp.WaitVisible(sel, by),
		chromedp.WaitEnabled(sel, by),
		chromedp.ScrollIntoView(sel, by),
		chromedp.Click(sel, by),
	)
	if err == nil {
		return nil
	}

	p.logger.Debug().Err(err).Str("locator", loc.String()).Msg("Native click failed, trying JavaScript click")
	if jsErr := p.JSClick(loc); jsErr != nil {
		return fmt.Errorf("failed to click %s: %w", loc, err)
	}
	return nil
}

// JSClick scrolls loc into view and clicks it through the DOM
func (p *BasePage) JSClick(loc Locator) error {
	script := fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) return false;
	el.scrollIntoView(true);
	el.click();
	return true;
})()`, loc.jsFirst())

	var clicked bool
	if err := p.act(p.timeout, chromedp.Evaluate(script, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("%w: %s", ErrElementNotFound, loc)
	}
	return nil
}

// clickLink waits for a link to be visible and clicks it through the DOM.
// Auth card links can be covered by the form footer, so a native click is unreliable.
func (p *BasePage) clickLink(loc Locator) error {
	if !p.IsVisible(loc, 10*time.Second) {
		return fmt.Errorf("%w: %s", ErrElementNotFound, loc)
	}
	return p.JSClick(loc)
}

// TypeText clears the field and types text into it
func (p *BasePage) TypeText(loc Locator, text string) error {
	return p.typeText(loc, text, true)
}

// AppendText types text without clearing the field first
func (p *BasePage) AppendText(loc Locator, text string) error {
	return p.typeText(loc, text, false)
}

func (p *BasePage) typeText(loc Locator, text string, clear bool) error {
	sel, by := loc.query()
	actions := []chromedp.Action{chromedp.WaitReady(sel, by)}
	if clear {
		actions = append(actions, chromedp.Clear(sel, by))
	}
	actions = append(actions, chromedp.SendKeys(sel, text, by))

	if err := p.act(p.timeout, actions...); err != nil {
		return fmt.Errorf("failed to type into %s: %w", loc, err)
	}
	return nil
}

// Text returns the rendered text of the first match
func (p *BasePage) Text(loc Locator) (string, error) {
	sel, by := loc.query()
	var text string
	if err := p.run(p.timeout, chromedp.Text(sel, &text, by)); err != nil {
		return "", fmt.Errorf("failed to read text of %s: %w", loc, err)
	}
	return strings.TrimSpace(text), nil
}

// Attribute returns an attribute of the first match; ok is false when the attribute is absent
func (p *BasePage) Attribute(loc Locator, name string) (value string, ok bool, err error) {
	sel, by := loc.query()
	if err := p.run(p.timeout, chromedp.AttributeValue(sel, name, &value, &ok, by)); err != nil {
		return "", false, fmt.Errorf("failed to read %s of %s: %w", name, loc, err)
	}
	return value, ok, nil
}

// Value returns the current value of an input, select or textarea
func (p *BasePage) Value(loc Locator) (string, error) {
	sel, by := loc.query()
	var value string
	if err := p.run(p.timeout, chromedp.Value(sel, &value, by)); err != nil {
		return "", fmt.Errorf("failed to read value of %s: %w", loc, err)
	}
	return value, nil
}

// IsVisible reports whether loc becomes visible within timeout (DefaultCheckTimeout when zero)
func (p *BasePage) IsVisible(loc Locator, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	sel, by := loc.query()
	return p.run(timeout, chromedp.WaitVisible(sel, by)) == nil
}

// IsPresent reports whether loc appears in the DOM within timeout (DefaultCheckTimeout when zero)
func (p *BasePage) IsPresent(loc Locator, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	sel, by := loc.query()
	return p.run(timeout, chromedp.WaitReady(sel, by)) == nil
}

// WaitForURLContains waits until the current URL contains fragment
func (p *BasePage) WaitForURLContains(fragment string, timeout time.Duration) error {
	expr := fmt.Sprintf(`window.location.href.includes(%s)`, jsString(fragment))
	if err := p.poll(expr, timeout); err != nil {
		current, _ := p.CurrentURL()
		return fmt.Errorf("url %q does not contain %q: %w", current, fragment, err)
	}
	return nil
}

// WaitForElementToDisappear waits until no match is visible; absent elements count as gone
func (p *BasePage) WaitForElementToDisappear(loc Locator, timeout time.Duration) error {
	expr := fmt.Sprintf(`!%s.some(%s)`, loc.jsAll(), jsVisible)
	if err := p.poll(expr, timeout); err != nil {
		return fmt.Errorf("%s still visible: %w", loc, err)
	}
	return nil
}

// WaitForText waits until the first match contains text
func (p *BasePage) WaitForText(loc Locator, text string, timeout time.Duration) error {
	expr := fmt.Sprintf(`(() => { const el = %s; return !!el && (el.innerText || el.textContent || '').includes(%s); })()`,
		loc.jsFirst(), jsString(text))
	if err := p.poll(expr, timeout); err != nil {
		return fmt.Errorf("%s does not contain %q: %w", loc, text, err)
	}
	return nil
}

// ScrollTo scrolls the first match to the centre of the viewport
func (p *BasePage) ScrollTo(loc Locator) error {
	if _, err := p.Find(loc); err != nil {
		return err
	}
	script := fmt.Sprintf(`(() => { const el = %s; if (el) el.scrollIntoView({behavior: 'smooth', block: 'center'}); return !!el; })()`, loc.jsFirst())
	var ok bool
	return p.run(p.timeout, chromedp.Evaluate(script, &ok))
}

// ScrollToTop scrolls the window to the top
func (p *BasePage) ScrollToTop() error {
	var ok bool
	return p.run(p.timeout, chromedp.Evaluate(`(window.scrollTo(0, 0), true)`, &ok))
}

// ScrollToBottom scrolls the window to the end of the document
func (p *BasePage) ScrollToBottom() error {
	var ok bool
	return p.run(p.timeout, chromedp.Evaluate(`(window.scrollTo(0, document.body.scrollHeight), true)`, &ok))
}

// CurrentURL returns the location of the tab
func (p *BasePage) CurrentURL() (string, error) {
	var url string
	if err := p.run(p.timeout, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// Title returns the document title
func (p *BasePage) Title() (string, error) {
	var title string
	if err := p.run(p.timeout, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// Refresh reloads the page
func (p *BasePage) Refresh() error {
	if err := p.act(p.pageLoad, chromedp.Reload()); err != nil {
		return fmt.Errorf("failed to reload: %w", err)
	}
	return p.WaitForPageLoad()
}

// GoBack navigates back in history
func (p *BasePage) GoBack() error {
	if err := p.act(p.pageLoad, chromedp.NavigateBack()); err != nil {
		return fmt.Errorf("failed to go back: %w", err)
	}
	return p.WaitForPageLoad()
}

// ExecuteScript evaluates JavaScript in the page; res may be nil
func (p *BasePage) ExecuteScript(script string, res interface{}) error {
	return p.run(p.timeout, chromedp.Evaluate(script, res))
}

// Hover moves the mouse to the centre of the first match
func (p *BasePage) Hover(loc Locator) error {
	sel, by := loc.query()
	var center struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	script := fmt.Sprintf(`(() => {
	const r = %s.getBoundingClientRect();
	return {x: r.left + r.width / 2, y: r.top + r.height / 2};
})()`, loc.jsFirst())

	return p.act(p.timeout,
		chromedp.WaitVisible(sel, by),
		chromedp.ScrollIntoView(sel, by),
		chromedp.Evaluate(script, &center),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return chromedp.MouseEvent(input.MouseMoved, center.X, center.Y).Do(ctx)
		}),
	)
}

// PressKey sends a key (see chromedp/kb) to the first match
func (p *BasePage) PressKey(loc Locator, key string) error {
	sel, by := loc.query()
	return p.act(p.timeout, chromedp.WaitReady(sel, by), chromedp.SendKeys(sel, key, by))
}

// WaitForReact waits for loading indicators to go away and the document to be complete
func (p *BasePage) WaitForReact(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	spinner := CSS(`[data-loading='true'], .loading-spinner`)
	if err := p.WaitForElementToDisappear(spinner, timeout); err != nil {
		p.logger.Debug().Err(err).Msg("Loading indicator still visible, continuing")
	}
	return p.poll(`document.readyState === 'complete'`, timeout)
}

// PageSource returns the serialized document
func (p *BasePage) PageSource() (string, error) {
	var html string
	if err := p.run(p.timeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page source: %w", err)
	}
	return html, nil
}

// Document parses the current page for inspection with goquery
func (p *BasePage) Document() (*goquery.Document, error) {
	html, err := p.PageSource()
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page source: %w", err)
	}
	return doc, nil
}

// CheckValidity runs the HTML constraint validation of a form control
func (p *BasePage) CheckValidity(loc Locator) (valid bool, message string, err error) {
	if _, err := p.Find(loc); err != nil {
		return false, "", err
	}
	var result struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	script := fmt.Sprintf(`(() => { const el = %s; return {valid: el.checkValidity(), message: el.validationMessage}; })()`, loc.jsFirst())
	if err := p.run(p.timeout, chromedp.Evaluate(script, &result)); err != nil {
		return false, "", fmt.Errorf("failed to check validity of %s: %w", loc, err)
	}
	return result.Valid, result.Message, nil
}

// SelectOptions lists the options of a <select>
func (p *BasePage) SelectOptions(loc Locator) ([]Option, error) {
	if _, err := p.Find(loc); err != nil {
		return nil, err
	}
	script := fmt.Sprintf(`Array.from(%s.options).map(o => ({value: o.value, text: o.text.trim()}))`, loc.jsFirst())
	var options []Option
	if err := p.run(p.timeout, chromedp.Evaluate(script, &options)); err != nil {
		return nil, fmt.Errorf("failed to list options of %s: %w", loc, err)
	}
	return options, nil
}

// SelectByValue chooses the option with value and fires a change event so frameworks see it
func (p *BasePage) SelectByValue(loc Locator, value string) error {
	if _, err := p.Find(loc); err != nil {
		return err
	}
	script := fmt.Sprintf(`(() => {
	const el = %s;
	if (!Array.from(el.options).some(o => o.value === %s)) return false;
	const setter = Object.getOwnPropertyDescriptor(HTMLSelectElement.prototype, 'value').set;
	setter.call(el, %s);
	el.dispatchEvent(new Event('input', {bubbles: true}));
	el.dispatchEvent(new Event('change', {bubbles: true}));
	return true;
})()`, loc.jsFirst(), jsString(value), jsString(value))

	var selected bool
	if err := p.act(p.timeout, chromedp.Evaluate(script, &selected)); err != nil {
		return fmt.Errorf("failed to select %q in %s: %w", value, loc, err)
	}
	if !selected {
		return fmt.Errorf("option %q not found in %s", value, loc)
	}
	return nil
}
