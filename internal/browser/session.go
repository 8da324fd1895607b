// Package browser owns the Chrome instance that page objects drive.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/common"
)

// ErrUnsupportedBrowser is returned for browser names other than chrome/chromium
var ErrUnsupportedBrowser = errors.New("unsupported browser")

// chromeCandidates are the executables chromedp probes, in order
var chromeCandidates = []string{
	"headless_shell",
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"google-chrome-beta",
	"google-chrome-unstable",
	"chrome",
}

// Session is one browser process with a single tab
type Session struct {
	// Ctx carries the chromedp browser; every page action runs against it
	Ctx context.Context

	config  *common.Config
	logger  arbor.ILogger
	cancels []context.CancelFunc
}

// NewSession starts a browser configured from config.Browser.
// The browser is checked with about:blank before returning so start-up failures surface here.
func NewSession(parent context.Context, config *common.Config, logger arbor.ILogger) (*Session, error) {
	switch strings.ToLower(config.Browser.Name) {
	case "chrome", "chromium":
	default:
		return nil, fmt.Errorf("%w: browser '%s' is not supported (use chrome or chromium)", ErrUnsupportedBrowser, config.Browser.Name)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, AllocatorOptions(config)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug().Msgf("chromedp: "+format, args...)
		}),
	)

	s := &Session{
		Ctx:     browserCtx,
		config:  config,
		logger:  logger,
		cancels: []context.CancelFunc{cancelAlloc, cancelBrowser},
	}

	startCtx, cancelStart := context.WithTimeout(browserCtx, config.PageLoadTimeout())
	defer cancelStart()

	start := time.Now()
	if err := chromedp.Run(startCtx, chromedp.Navigate("about:blank")); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start %s: %w", config.Browser.Name, err)
	}

	logger.Debug().
		Str("browser", config.Browser.Name).
		Bool("headless", config.Browser.Headless).
		Int("width", config.Browser.Width).
		Int("height", config.Browser.Height).
		Dur("startup_time", time.Since(start)).
		Msg("Browser session started")

	return s, nil
}

// AllocatorOptions builds the exec allocator flags from config
func AllocatorOptions(config *common.Config) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Browser.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", config.Browser.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.WindowSize(config.Browser.Width, config.Browser.Height),
	)
	if config.Browser.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.Browser.UserAgent))
	}
	if config.Browser.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(config.Browser.ExecPath))
	}
	return opts
}

// Close terminates the browser. Safe to call more than once.
func (s *Session) Close() {
	if s.Ctx != nil {
		if err := chromedp.Cancel(s.Ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn().Err(err).Msg("Browser cancel returned an error")
		}
	}
	for i := len(s.cancels) - 1; i >= 0; i-- {
		s.cancels[i]()
	}
	s.cancels = nil
}

// FindChrome returns the browser executable that would be used, or an error when none is installed
func FindChrome(config *common.Config) (string, error) {
	if config.Browser.ExecPath != "" {
		if path, err := exec.LookPath(config.Browser.ExecPath); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("configured browser executable not found: %s", config.Browser.ExecPath)
	}
	for _, name := range chromeCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", errors.New("no chrome or chromium executable found in PATH")
}
