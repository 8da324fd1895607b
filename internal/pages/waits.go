package pages

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// Wait helpers that report success instead of returning an error.

// WaitForElementToDisappear reports whether loc stopped being visible within timeout
func WaitForElementToDisappear(p *BasePage, loc Locator, timeout time.Duration) bool {
	return p.WaitForElementToDisappear(loc, timeout) == nil
}

// WaitForTextInElement reports whether loc contained text within timeout
func WaitForTextInElement(p *BasePage, loc Locator, text string, timeout time.Duration) bool {
	return p.WaitForText(loc, text, timeout) == nil
}

// WaitForNumberOfWindows reports whether the browser had exactly n page targets within timeout
func WaitForNumberOfWindows(ctx context.Context, n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if countWindows(ctx) == n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

func countWindows(ctx context.Context) int {
	targets, err := chromedp.Targets(ctx)
	if err != nil {
		return -1
	}
	n := 0
	for _, t := range targets {
		if t.Type == "page" {
			n++
		}
	}
	return n
}
