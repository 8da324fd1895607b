package pages

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chromedp/chromedp/kb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/browser"
	"github.com/ternarybob/imunetrack/internal/common"
)

// newFixturePages serves testdata/app.html for every path and opens a headless browser on it
func newFixturePages(t *testing.T) *Set {
	t.Helper()

	config := common.NewDefaultConfig()
	config.Browser.Headless = true
	config.Timeouts.Explicit = 5
	config.Timeouts.PageLoad = 15
	if _, err := browser.FindChrome(config); err != nil {
		t.Skipf("Chrome not available: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "testdata/app.html")
	}))
	t.Cleanup(srv.Close)
	config.Frontend.URL = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	logger := arbor.NewLogger()
	session, err := browser.NewSession(ctx, config, logger)
	require.NoError(t, err)
	t.Cleanup(session.Close)

	return New(session.Ctx, config, logger)
}

func TestLoginPage(t *testing.T) {
	p := newFixturePages(t)

	require.NoError(t, p.Login.Navigate())
	assert.True(t, p.Login.IsOnLoginPage())
	assert.True(t, p.Login.IsVisible(LoginEmailInput, 0))
	assert.False(t, p.Login.HasErrorMessage())

	title, err := p.Login.Title()
	require.NoError(t, err)
	assert.Equal(t, "ImuneTrack", title)

	t.Run("EmptyFieldsAreInvalid", func(t *testing.T) {
		require.NoError(t, p.Login.SubmitEmpty())
		valid, err := p.Login.EmailValidity()
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		require.NoError(t, p.Login.Login("invalido@example.com", "senhaerrada"))
		require.NoError(t, p.Login.WaitForText(LoginErrorMessage, "incorretos", 3*time.Second))
		assert.True(t, p.Login.HasErrorMessage())
		assert.True(t, p.Login.IsOnLoginPage())

		msg, err := p.Login.ErrorMessage()
		require.NoError(t, err)
		assert.Equal(t, "Email ou senha incorretos", msg)
	})

	t.Run("ValidCredentials", func(t *testing.T) {
		require.NoError(t, p.Login.Login("admin@teste.com", "admin1"))
		require.True(t, p.Dashboard.IsLoggedIn())

		welcome, err := p.Dashboard.WelcomeMessage()
		require.NoError(t, err)
		assert.Contains(t, welcome, "Olá")
		require.NoError(t, p.Base.WaitForURLContains("/dashboard", 5*time.Second))
	})

	t.Run("BackAndForward", func(t *testing.T) {
		require.NoError(t, p.Base.GoBack())
		assert.True(t, p.Login.IsOnLoginPage())
		require.NoError(t, p.Base.Refresh())
		assert.True(t, p.Login.IsPresent(LoginButton, 0))
	})
}

func TestLoginPage_LinkToCadastro(t *testing.T) {
	p := newFixturePages(t)

	require.NoError(t, p.Login.Navigate())
	require.NoError(t, p.Login.ClickCadastroLink())
	require.NoError(t, p.Base.WaitForURLContains("/cadastro", 5*time.Second))

	require.NoError(t, p.Cadastro.ClickLoginLink())
	require.NoError(t, p.Base.WaitForURLContains("/login", 5*time.Second))
}

func TestCadastroPage(t *testing.T) {
	p := newFixturePages(t)

	t.Run("PasswordsMismatch", func(t *testing.T) {
		require.NoError(t, p.Cadastro.Navigate())
		require.NoError(t, p.Cadastro.Signup("Maria Souza", "maria@example.com", "senha123", "senha456"))

		msg, err := p.Cadastro.ErrorMessage()
		require.NoError(t, err)
		assert.Contains(t, msg, "não coincidem")
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		require.NoError(t, p.Cadastro.Navigate())
		require.NoError(t, p.Cadastro.Signup("Teste", "email-invalido", "senha123", "senha123"))

		valid, err := p.Cadastro.EmailValidity()
		require.NoError(t, err)
		assert.False(t, valid)
		assert.False(t, p.Cadastro.HasSuccessMessage())
	})

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, p.Cadastro.Navigate())
		require.NoError(t, p.Cadastro.Signup("Maria Souza", "maria@example.com", "senha123", "senha123"))
		assert.True(t, p.Cadastro.HasSuccessMessage())

		value, err := p.Cadastro.Value(CadastroNameInput)
		require.NoError(t, err)
		assert.Equal(t, "Maria Souza", value)
	})
}

func TestDashboardPage(t *testing.T) {
	p := newFixturePages(t)
	require.NoError(t, p.Dashboard.Navigate())
	require.True(t, p.Dashboard.IsLoggedIn())

	assert.True(t, p.Dashboard.UserInfoVisible(3*time.Second))

	stats, err := p.Dashboard.Stats()
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{UpToDate: 3, Upcoming: 1, Overdue: 0}, stats)

	t.Run("Settings", func(t *testing.T) {
		require.NoError(t, p.Dashboard.OpenSettings())
		assert.True(t, p.Dashboard.IsVisible(XPath("//div[@role='dialog']//h3[contains(text(), 'Configurações')]"), 5*time.Second))
		require.NoError(t, p.Dashboard.CloseModal())
		assert.True(t, WaitForElementToDisappear(p.Base, HistoryModal, 3*time.Second))
	})

	t.Run("CalendarDay", func(t *testing.T) {
		require.NoError(t, p.Dashboard.OpenCalendarDay(12))
		assert.True(t, WaitForTextInElement(p.Base, DashboardDetailCard, "Dia 12", 3*time.Second))
	})

	t.Run("HoverAndKeys", func(t *testing.T) {
		target := ID("hover-target")
		require.NoError(t, p.Base.Hover(target))
		hovered, ok, err := p.Base.Attribute(target, "data-hovered")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "true", hovered)

		require.NoError(t, p.Base.PressKey(ID("hotkey"), kb.Enter))
		submitted, ok, err := p.Base.Attribute(ID("hotkey"), "data-submitted")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "true", submitted)
	})

	t.Run("Scrolling", func(t *testing.T) {
		var y float64
		require.NoError(t, p.Base.ScrollToBottom())
		require.NoError(t, p.Base.ExecuteScript(`window.scrollY`, &y))
		assert.Greater(t, y, 0.0)

		require.NoError(t, p.Base.ScrollToTop())
		require.NoError(t, p.Base.ExecuteScript(`window.scrollY`, &y))
		assert.Equal(t, 0.0, y)

		require.NoError(t, p.Base.ScrollTo(ID("bottom")))
	})

	t.Run("Document", func(t *testing.T) {
		doc, err := p.Base.Document()
		require.NoError(t, err)
		assert.Equal(t, 28, doc.Find("#calendar .aspect-square").Length())
		assert.Equal(t, "admin@teste.com", doc.Find("p.text-muted-foreground").Text())

		nodes, err := p.Base.FindAll(CSS("#cards .text-2xl"))
		require.NoError(t, err)
		assert.Len(t, nodes, 3)

		windows := countWindows(p.Base.Context())
		assert.GreaterOrEqual(t, windows, 1)
		assert.True(t, WaitForNumberOfWindows(p.Base.Context(), windows, 2*time.Second))
		assert.False(t, WaitForNumberOfWindows(p.Base.Context(), windows+1, 300*time.Millisecond))
	})

	t.Run("Logout", func(t *testing.T) {
		require.NoError(t, p.Dashboard.Logout())
		require.NoError(t, p.Base.WaitForURLContains("/login", 5*time.Second))
	})
}

func TestVaccineSchedulePage(t *testing.T) {
	p := newFixturePages(t)
	require.NoError(t, p.Dashboard.Navigate())
	require.NoError(t, p.Dashboard.NavigateToSchedule())
	require.True(t, p.Schedule.IsOnSchedulePage())
	require.NoError(t, p.Schedule.WaitForReact(5*time.Second))

	vaccines, err := p.Schedule.AvailableVaccines()
	require.NoError(t, err)
	assert.Contains(t, vaccines, "BCG")
	assert.Contains(t, vaccines, "Influenza (Gripe)")

	err = p.Schedule.SelectVaccine("Varíola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available options")

	require.NoError(t, p.Schedule.Submit())
	assert.True(t, p.Schedule.HasErrorMessage())

	require.NoError(t, p.Schedule.SelectDose(2))
	dose, err := p.Schedule.Value(ScheduleDoseSelect)
	require.NoError(t, err)
	assert.Equal(t, "2", dose)

	date := time.Now().AddDate(0, 0, 30).Format("02/01/2006")
	require.NoError(t, p.Schedule.ScheduleVaccine("bcg", date, "Clínica Teste", "Teste de agendamento"))
	assert.True(t, p.Schedule.HasSuccessMessage())

	selected, ok, err := p.Base.Attribute(CSS("#schedule-form"), "data-vacina")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", selected)
}

func TestHistoryPage(t *testing.T) {
	p := newFixturePages(t)
	require.NoError(t, p.Dashboard.Navigate())
	require.NoError(t, p.History.Open())
	assert.True(t, p.History.IsOnHistoryPage(time.Second))

	require.NoError(t, p.History.WaitForCardsOrEmpty(5*time.Second))
	pending, err := p.History.PendingCount()
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	require.NoError(t, p.History.MarkFirstPendingApplied())
	assert.True(t, p.History.IsModalClosed(time.Second))

	pending, err = p.History.PendingCount()
	require.NoError(t, err)
	assert.Equal(t, 0, pending)

	err = p.History.MarkFirstPendingApplied()
	assert.Error(t, err)
}
