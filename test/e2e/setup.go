// Shared e2e test context: one browser per test, page objects, per-test results
// directory with test.log, numbered screenshots and failure artifacts.

package e2e

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/browser"
	"github.com/ternarybob/imunetrack/internal/common"
	"github.com/ternarybob/imunetrack/internal/httpclient"
	"github.com/ternarybob/imunetrack/internal/mockapi"
	"github.com/ternarybob/imunetrack/internal/pages"
)

// DefaultTestTimeout bounds a single e2e test including browser start-up
const DefaultTestTimeout = 3 * time.Minute

// mainOutput captures TestMain output so it can be copied into each test.log
var mainOutput bytes.Buffer

var (
	suiteDirs   = map[string]string{}
	suiteDirsMu sync.Mutex
)

// Suite-wide state shared by every test in the package
var (
	suiteConfig *common.Config
	suiteLogger arbor.ILogger
	suiteMock   *mockapi.Server // nil when an already running backend is reused
	apiURL      string

	frontendErr error
	chromeErr   error
)

// E2EContext holds the browser and page objects of one test
type E2EContext struct {
	T          *testing.T
	Ctx        context.Context
	Config     *common.Config
	Pages      *pages.Set
	ResultsDir string
	APIURL     string
	API        *httpclient.Client

	session   *browser.Session
	artifacts *browser.Artifacts
	recorder  *browser.Recorder
	testLog   *os.File
	cleanup   []func()
}

// NewE2EContext skips when the frontend or Chrome is unavailable, resets the backend
// fixtures and opens a browser. Call Cleanup with defer.
func NewE2EContext(t *testing.T) *E2EContext {
	requireBrowser(t)

	resultsDir, err := testResultsDir(t.Name())
	if err != nil {
		t.Fatalf("Failed to create results directory: %v", err)
	}

	testLog, err := os.Create(filepath.Join(resultsDir, "test.log"))
	if err != nil {
		t.Fatalf("Failed to create test log: %v", err)
	}
	testLog.Write(mainOutput.Bytes())

	ctx, cancelTimeout := context.WithTimeout(context.Background(), DefaultTestTimeout)

	e := &E2EContext{
		T:          t,
		Config:     suiteConfig,
		ResultsDir: resultsDir,
		APIURL:     apiURL,
		API:        httpclient.New(apiURL, 10*time.Second),
		testLog:    testLog,
	}
	e.cleanup = append(e.cleanup, func() { testLog.Close() })
	e.cleanup = append(e.cleanup, cancelTimeout)

	if err := e.API.Reset(ctx); err != nil {
		if suiteMock != nil {
			e.Cleanup()
			t.Fatalf("Failed to reset mock backend: %v", err)
		}
		e.Log("⚠ Backend fixtures not reset: %v", err)
	}

	session, err := browser.NewSession(ctx, suiteConfig, suiteLogger)
	if err != nil {
		e.Cleanup()
		t.Fatalf("Failed to start browser: %v", err)
	}
	e.session = session
	e.Ctx = session.Ctx
	e.cleanup = append(e.cleanup, session.Close)

	e.artifacts, err = browser.NewArtifacts(resultsDir)
	if err != nil {
		e.Cleanup()
		t.Fatalf("Failed to prepare artifacts: %v", err)
	}

	if suiteConfig.Features.VideoRecording {
		e.recorder, err = browser.StartRecording(session.Ctx, filepath.Join(resultsDir, "video"), suiteLogger)
		if err != nil {
			e.Log("⚠ Video recording disabled: %v", err)
		}
	}

	e.Pages = pages.New(session.Ctx, suiteConfig, suiteLogger)
	e.Log("=== RUN %s ===", t.Name())
	return e
}

// Cleanup captures failure artifacts and releases the browser
func (e *E2EContext) Cleanup() {
	if e.T.Failed() {
		if e.session != nil && e.artifacts != nil && e.Config.Features.ScreenshotOnFailure {
			paths, err := e.artifacts.CaptureFailure(e.session.Ctx, e.T.Name())
			for _, p := range paths {
				e.Log("📸 Failure artifact: %s", p)
			}
			if err != nil {
				e.Log("⚠ %v", err)
			}
		}
		e.Log("=== TEST RESULT: FAIL ===")
	} else {
		e.Log("=== TEST RESULT: PASS ===")
	}

	if e.recorder != nil {
		e.Log("🎞 Recorded %d frames", e.recorder.Stop())
	}

	for i := len(e.cleanup) - 1; i >= 0; i-- {
		e.cleanup[i]()
	}
	e.cleanup = nil
}

// Log writes to test.log and the go test output
func (e *E2EContext) Log(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if e.testLog != nil {
		fmt.Fprintf(e.testLog, "[%s] %s\n", time.Now().Format("15:04:05"), msg)
	}
	e.T.Log(msg)
}

// Screenshot saves a numbered viewport screenshot; failures are logged, not fatal
func (e *E2EContext) Screenshot(name string) {
	path, err := e.artifacts.Screenshot(e.Ctx, name)
	if err != nil {
		e.Log("⚠ Screenshot %s failed: %v", name, err)
		return
	}
	e.Log("📸 %s", filepath.Base(path))
}

// Authenticated logs in with the configured test user and waits up to 10 seconds for the dashboard
func (e *E2EContext) Authenticated() {
	e.T.Helper()
	e.Log("🔐 Logging in as %s", e.Config.TestUser.Email)

	if err := e.Pages.Login.Navigate(); err != nil {
		e.T.Fatalf("Failed to open login page: %v", err)
	}
	if err := e.Pages.Login.Login(e.Config.TestUser.Email, e.Config.TestUser.Password); err != nil {
		e.T.Fatalf("Failed to submit login: %v", err)
	}

	if err := e.Pages.Base.WaitForURLContains("dashboard", 10*time.Second); err != nil {
		if !e.Pages.Base.IsPresent(pages.XPath("//*[contains(text(), 'Dashboard')]"), time.Second) {
			e.Log("⚠ Could not confirm login: %v", err)
			return
		}
	}
	e.Log("✓ Logged in")
}

// testResultsDir returns <reports>/e2e/<suite>-<timestamp>/<TestName>
func testResultsDir(testName string) (string, error) {
	suite := suiteName(testName)

	suiteDirsMu.Lock()
	suiteDir, ok := suiteDirs[suite]
	if !ok {
		suiteDir = filepath.Join(suiteConfig.E2EDir(),
			fmt.Sprintf("%s-%s", suite, time.Now().Format("20060102-150405")))
		suiteDirs[suite] = suiteDir
	}
	suiteDirsMu.Unlock()

	dir := filepath.Join(suiteDir, browser.SanitizeName(testName))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// suiteName derives the suite from a test name: "TestAuthLoginSuccess" -> "auth"
func suiteName(testName string) string {
	name := strings.TrimPrefix(testName, "Test")
	if i := strings.Index(name, "/"); i >= 0 {
		name = name[:i]
	}
	for i := 1; i < len(name); i++ {
		if name[i] >= 'A' && name[i] <= 'Z' {
			return strings.ToLower(name[:i])
		}
	}
	return strings.ToLower(name)
}

// startBackend reuses a backend already answering on the API URL, otherwise starts one in-process
func startBackend(w io.Writer) error {
	apiURL = strings.TrimRight(suiteConfig.Frontend.APIURL, "/")

	probeCtx, cancelProbe := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancelProbe()
	if err := httpclient.New(apiURL, 500*time.Millisecond).Health(probeCtx); err == nil {
		fmt.Fprintf(w, "✓ Reusing backend already running at %s\n", apiURL)
		return nil
	}

	suiteMock = mockapi.New(suiteConfig, suiteLogger)
	ctx, cancel := context.WithTimeout(context.Background(), mockapi.DefaultStartTimeout)
	defer cancel()
	if err := suiteMock.Start(ctx); err != nil {
		suiteMock = nil
		return err
	}

	apiURL = suiteMock.URL()
	fmt.Fprintf(w, "🚀 Mock backend running at %s\n", apiURL)
	return nil
}

func stopBackend(w io.Writer) {
	if suiteMock == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := suiteMock.Stop(ctx); err != nil {
		fmt.Fprintf(w, "⚠ Mock backend stop: %v\n", err)
		return
	}
	fmt.Fprintln(w, "🛑 Mock backend stopped")
}

// verifyFrontend checks the application under test answers HTTP
func verifyFrontend(baseURL string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL)
	if err != nil {
		return fmt.Errorf("frontend not accessible at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("frontend returned status %d", resp.StatusCode)
	}
	return nil
}

// requireBrowser skips the test when the frontend or Chrome is unavailable
func requireBrowser(t *testing.T) {
	t.Helper()
	if frontendErr != nil {
		t.Skipf("frontend unavailable: %v", frontendErr)
	}
	if chromeErr != nil {
		t.Skipf("chrome unavailable: %v", chromeErr)
	}
}
