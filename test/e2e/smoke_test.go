package e2e

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/imunetrack/internal/pages"
)

// Smoke tests are selected by the runner with -run ^TestSmoke

func TestSmokeAppLoads(t *testing.T) {
	e := NewE2EContext(t)
	defer e.Cleanup()

	require.NoError(t, e.Pages.Base.Open(e.Config.Frontend.BaseURL))
	e.Screenshot("home")

	title, err := e.Pages.Base.Title()
	require.NoError(t, err)
	source, err := e.Pages.Base.PageSource()
	require.NoError(t, err)

	assert.True(t,
		strings.Contains(strings.ToLower(title), "imunetrack") || strings.Contains(strings.ToLower(source), "imunetrack"),
		"imunetrack not found in title %q or page source", title)
}

func TestSmokeLoginPageLoads(t *testing.T) {
	e := NewE2EContext(t)
	defer e.Cleanup()

	require.NoError(t, e.Pages.Login.Navigate())
	assert.True(t, e.Pages.Login.IsOnLoginPage())
	assert.True(t, e.Pages.Login.IsVisible(pages.LoginEmailInput, 0))
}

func TestSmokeLoginFlow(t *testing.T) {
	e := NewE2EContext(t)
	defer e.Cleanup()

	require.NoError(t, e.Pages.Login.Navigate())
	require.NoError(t, e.Pages.Login.Login(e.Config.TestUser.Email, e.Config.TestUser.Password))
	assert.True(t, e.Pages.Dashboard.IsLoggedIn(), "dashboard greeting not shown after login")
	e.Screenshot("dashboard")
}

func TestSmokeMainNavigation(t *testing.T) {
	e := NewE2EContext(t)
	defer e.Cleanup()
	e.Authenticated()

	dash := e.Pages.Dashboard

	require.NoError(t, dash.NavigateToSchedule())
	url, err := dash.CurrentURL()
	require.NoError(t, err)
	assert.True(t,
		strings.Contains(strings.ToLower(url), "agendar") ||
			dash.IsVisible(pages.XPath("//*[contains(text(), 'Agendar')]"), 5*time.Second),
		"schedule view not reached")

	require.NoError(t, dash.Navigate())
	require.True(t, dash.IsLoggedIn())

	require.NoError(t, dash.NavigateToHistory())
	url, err = dash.CurrentURL()
	require.NoError(t, err)
	assert.True(t,
		strings.Contains(strings.ToLower(url), "history") ||
			dash.IsVisible(pages.XPath("//*[contains(text(), 'Histórico')]"), 5*time.Second),
		"history view not reached")
}
