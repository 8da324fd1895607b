package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/common"
)

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "login_page", SanitizeName("Login Page"))
	assert.Equal(t, "failure_test_x_y", SanitizeName("failure_Test/X:Y"))
	assert.Equal(t, "ok", SanitizeName("  ok!! "))
}

func TestNewSession_UnsupportedBrowser(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Browser.Name = "firefox"

	_, err := NewSession(context.Background(), config, arbor.NewLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedBrowser)
	assert.Contains(t, err.Error(), "firefox")
}

func TestFindChrome_MissingExecPath(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Browser.ExecPath = filepath.Join(t.TempDir(), "no-such-chrome")

	_, err := FindChrome(config)
	assert.Error(t, err)
}

func TestAllocatorOptions_AppendsOverrides(t *testing.T) {
	config := common.NewDefaultConfig()
	base := len(AllocatorOptions(config))

	config.Browser.UserAgent = "imunetrack-e2e"
	config.Browser.ExecPath = "/usr/bin/chromium"
	assert.Equal(t, base+2, len(AllocatorOptions(config)))
}

func TestHTMLToMarkdown(t *testing.T) {
	html := `<html><body><h1>Dashboard</h1><p>Bem-vindo, <strong>Maria</strong></p><a href="/historico">Histórico</a></body></html>`

	markdown, err := HTMLToMarkdown(html, "http://localhost:3000")
	require.NoError(t, err)
	assert.Contains(t, markdown, "# Dashboard")
	assert.Contains(t, markdown, "**Maria**")
	assert.Contains(t, markdown, "(http://localhost:3000/historico)")
	assert.NotContains(t, markdown, "%2F")
}

func TestHTMLToMarkdown_ResolvesAgainstPageURL(t *testing.T) {
	html := `<html><body>
<a href="detalhes">Detalhes</a>
<a href="https://gov.br/vacinas">Calendário</a>
<img src="/img/logo.png" alt="logo">
</body></html>`

	markdown, err := HTMLToMarkdown(html, "https://app.imunetrack.local:8443/historico/")
	require.NoError(t, err)
	assert.Contains(t, markdown, "(https://app.imunetrack.local:8443/historico/detalhes)")
	assert.Contains(t, markdown, "(https://gov.br/vacinas)")
	assert.Contains(t, markdown, "(https://app.imunetrack.local:8443/img/logo.png)")
	assert.NotContains(t, markdown, "%2F")
}

func TestArtifacts_NumbersFiles(t *testing.T) {
	a, err := NewArtifacts(filepath.Join(t.TempDir(), "shots"))
	require.NoError(t, err)

	assert.Equal(t, "01_login", a.nextName("Login"))
	assert.Equal(t, "02_dashboard_loaded", a.nextName("dashboard loaded"))

	path, err := a.write("03_x.png", []byte("png"))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

// newChromeSession starts a headless browser or skips when none is installed
func newChromeSession(t *testing.T) *Session {
	t.Helper()

	config := common.NewDefaultConfig()
	config.Browser.Headless = true
	if _, err := FindChrome(config); err != nil {
		t.Skipf("Chrome not available: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	session, err := NewSession(ctx, config, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

func TestSession_Artifacts(t *testing.T) {
	session := newChromeSession(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><h1>Cartão de vacinas</h1><p>Nenhum registro</p></body></html>`))
	}))
	defer srv.Close()

	require.NoError(t, chromedp.Run(session.Ctx, chromedp.Navigate(srv.URL)))

	artifacts, err := NewArtifacts(t.TempDir())
	require.NoError(t, err)

	paths, err := artifacts.CaptureFailure(session.Ctx, "empty history")
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.True(t, strings.HasSuffix(paths[0], "01_failure_empty_history.png"))
	assert.True(t, strings.HasSuffix(paths[1], "02_failure_empty_history.md"))

	dom, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(dom), "Cartão de vacinas")
	assert.Contains(t, string(dom), srv.URL)
}

func TestSession_Recorder(t *testing.T) {
	session := newChromeSession(t)

	dir := t.TempDir()
	recorder, err := StartRecording(session.Ctx, dir, arbor.NewLogger())
	require.NoError(t, err)

	require.NoError(t, chromedp.Run(session.Ctx,
		chromedp.Navigate(`data:text/html,<h1 id="t">0</h1><script>let i=0;setInterval(()=>{document.getElementById('t').textContent=++i},50)</script>`),
		chromedp.Sleep(1500*time.Millisecond),
	))

	frames := recorder.Stop()
	assert.Equal(t, frames, recorder.Stop(), "stop is idempotent")
	assert.LessOrEqual(t, frames, DefaultMaxFrames)

	files, err := filepath.Glob(filepath.Join(dir, "frame_*.png"))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(files), frames)
}
