package e2e

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/imunetrack/internal/pages"
)

func TestDashboardView(t *testing.T) {
	e := NewE2EContext(t)
	defer e.Cleanup()
	e.Authenticated()

	require.True(t, e.Pages.Dashboard.IsLoggedIn(), "user is not authenticated")
	welcome, err := e.Pages.Dashboard.WelcomeMessage()
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(welcome), "olá")

	if stats, err := e.Pages.Dashboard.Stats(); err == nil {
		e.Log("Stats: em dia=%d próximas=%d atrasadas=%d", stats.UpToDate, stats.Upcoming, stats.Overdue)
	}
	e.Screenshot("dashboard")
}

func TestDashboardToSchedule(t *testing.T) {
	e := NewE2EContext(t)
	defer e.Cleanup()
	e.Authenticated()

	require.NoError(t, e.Pages.Dashboard.NavigateToSchedule())
	assert.True(t, e.Pages.Schedule.IsOnSchedulePage(), "schedule page did not open")
}

func TestDashboardToHistory(t *testing.T) {
	e := NewE2EContext(t)
	defer e.Cleanup()
	e.Authenticated()

	require.NoError(t, e.Pages.Dashboard.NavigateToHistory())

	url, err := e.Pages.Base.CurrentURL()
	require.NoError(t, err)
	heading := pages.XPath("//*[contains(translate(text(),'ABCDEFGHIJKLMNOPQRSTUVWXYZ','abcdefghijklmnopqrstuvwxyz'),'histórico')]")
	assert.True(t,
		strings.Contains(strings.ToLower(url), "history") || e.Pages.Dashboard.IsVisible(heading, 0),
		"history view not reached")
}

func TestDashboardSettingsModal(t *testing.T) {
	e := NewE2EContext(t)
	defer e.Cleanup()
	e.Authenticated()

	require.NoError(t, e.Pages.Dashboard.OpenSettings())
	assert.True(t, e.Pages.Dashboard.IsVisible(pages.DashboardSettingsText, 5*time.Second), "settings modal not shown")
	e.Screenshot("settings")
}

func TestDashboardUserInfo(t *testing.T) {
	e := NewE2EContext(t)
	defer e.Cleanup()
	e.Authenticated()

	assert.True(t, e.Pages.Dashboard.IsVisible(pages.DashboardUserName, 3*time.Second), "user name not visible")
	assert.True(t, e.Pages.Dashboard.IsVisible(pages.DashboardUserEmail, 3*time.Second), "user email not visible")
}

func TestDashboardCalendarCard(t *testing.T) {
	e := NewE2EContext(t)
	defer e.Cleanup()
	e.Authenticated()

	require.NoError(t, e.Pages.Dashboard.Navigate())
	require.NoError(t, e.Pages.Dashboard.OpenCalendarDay(12))
	e.Screenshot("calendar_day_12")
}
