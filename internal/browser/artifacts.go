package browser

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

var unsafeName = regexp.MustCompile(`[^a-z0-9_\-]+`)

// SanitizeName converts a name to a safe filename format
func SanitizeName(name string) string {
	name = unsafeName.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	return strings.Trim(name, "_")
}

// Artifacts writes numbered screenshots and DOM dumps into one directory
type Artifacts struct {
	dir string
	num int
	mu  sync.Mutex
}

// NewArtifacts creates the directory when missing
func NewArtifacts(dir string) (*Artifacts, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	return &Artifacts{dir: dir}, nil
}

// Dir returns the artifacts directory
func (a *Artifacts) Dir() string {
	return a.dir
}

// nextName returns "NN_name" with a sequential prefix
func (a *Artifacts) nextName(name string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.num++
	return fmt.Sprintf("%02d_%s", a.num, SanitizeName(name))
}

// Screenshot captures the viewport and returns the written path
func (a *Artifacts) Screenshot(ctx context.Context, name string) (string, error) {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return a.write(a.nextName(name)+".png", buf)
}

// FullScreenshot captures the whole page and returns the written path
func (a *Artifacts) FullScreenshot(ctx context.Context, name string) (string, error) {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return "", fmt.Errorf("failed to capture full screenshot: %w", err)
	}
	return a.write(a.nextName(name)+".png", buf)
}

// DOMSnapshot saves the current document as Markdown (readable in reports) and returns the path
func (a *Artifacts) DOMSnapshot(ctx context.Context, name string) (string, error) {
	var html, location string
	if err := chromedp.Run(ctx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}

	markdown, err := HTMLToMarkdown(html, location)
	if err != nil {
		return "", err
	}

	content := fmt.Sprintf("# %s\n\nURL: %s\n\n%s\n", name, location, markdown)
	return a.write(a.nextName(name)+".md", []byte(content))
}

// CaptureFailure saves a screenshot and a DOM snapshot, returning the paths written
func (a *Artifacts) CaptureFailure(ctx context.Context, name string) ([]string, error) {
	var paths []string
	var errs []string

	if path, err := a.Screenshot(ctx, "failure_"+name); err != nil {
		errs = append(errs, err.Error())
	} else {
		paths = append(paths, path)
	}
	if path, err := a.DOMSnapshot(ctx, "failure_"+name); err != nil {
		errs = append(errs, err.Error())
	} else {
		paths = append(paths, path)
	}

	if len(errs) > 0 {
		return paths, fmt.Errorf("failure capture incomplete: %s", strings.Join(errs, "; "))
	}
	return paths, nil
}

func (a *Artifacts) write(filename string, data []byte) (string, error) {
	path := filepath.Join(a.dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return path, nil
}

// HTMLToMarkdown converts a page to Markdown. Links and images are resolved against
// pageURL first: the converter only knows a bare host and would assume http.
func HTMLToMarkdown(html, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var domain string
	if base, err := url.Parse(pageURL); err == nil && base.Host != "" {
		domain = base.Host
		doc.Find("a[href], img[src]").Each(func(_ int, sel *goquery.Selection) {
			for _, attr := range []string{"href", "src"} {
				if v, ok := sel.Attr(attr); ok {
					if ref, err := url.Parse(strings.TrimSpace(v)); err == nil {
						sel.SetAttr(attr, base.ResolveReference(ref).String())
					}
				}
			}
		})
	}

	resolved, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}

	markdown, err := md.NewConverter(domain, true, nil).ConvertString(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return markdown, nil
}
