package pages

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// Dashboard locators
var (
	DashboardWelcomeMessage = XPath("//h2[contains(text(), 'Olá')]")
	DashboardLogoutButton   = XPath("//button[contains(text(), 'Sair')]")
	DashboardUserName       = XPath("//p[@class='font-medium']")
	DashboardUserEmail      = XPath("//p[@class='text-muted-foreground']")

	DashboardScheduleTab    = XPath("//button[.//span[contains(text(), 'Agendar Vacina')]]")
	DashboardHistoryTab     = XPath("//button[.//span[contains(text(), 'Histórico')]]")
	DashboardSettingsButton = XPath("//button[contains(text(), 'Configurações')]")
	DashboardSettingsText   = XPath("//*[contains(text(), 'Configurações')]")

	DashboardUpToDateCard = XPath("//div[contains(text(), 'Vacinas em Dia')]")
	DashboardUpcomingCard = XPath("//div[contains(text(), 'Próximas Vacinas')]")
	DashboardOverdueCard  = XPath("//div[contains(text(), 'Atrasadas')]")

	DashboardUpToDateValue = statValue("Vacinas em Dia")
	DashboardUpcomingValue = statValue("Próximas Vacinas")
	DashboardOverdueValue  = statValue("Atrasadas")

	DashboardDetailCard = XPath("//div[contains(@class, 'rounded-lg') and contains(@class, 'border') and .//h4]")
)

func statValue(label string) Locator {
	return XPath(fmt.Sprintf("//div[contains(text(), '%s')]/following-sibling::div//div[@class='text-2xl font-bold']", label))
}

// CalendarDay locates a clickable day cell of the dashboard calendar
func CalendarDay(day int) Locator {
	return XPath(fmt.Sprintf("//div[contains(@class, 'aspect-square') and contains(@class, 'cursor-pointer') and normalize-space(text())='%d']", day))
}

// DashboardStats are the three summary cards
type DashboardStats struct {
	UpToDate int
	Upcoming int
	Overdue  int
}

// DashboardPage is the signed-in landing screen
type DashboardPage struct {
	*BasePage
}

func NewDashboardPage(base *BasePage) *DashboardPage {
	return &DashboardPage{BasePage: base}
}

// Navigate opens /dashboard
func (p *DashboardPage) Navigate() error {
	return p.BasePage.Navigate("/dashboard")
}

// IsLoggedIn reports whether the greeting heading appears within 10 seconds
func (p *DashboardPage) IsLoggedIn() bool {
	return p.IsVisible(DashboardWelcomeMessage, 10*time.Second)
}

func (p *DashboardPage) WelcomeMessage() (string, error) {
	return p.Text(DashboardWelcomeMessage)
}

func (p *DashboardPage) Logout() error {
	return p.Click(DashboardLogoutButton)
}

func (p *DashboardPage) NavigateToSchedule() error {
	return p.Click(DashboardScheduleTab)
}

func (p *DashboardPage) NavigateToHistory() error {
	return p.Click(DashboardHistoryTab)
}

// OpenSettings opens the settings modal
func (p *DashboardPage) OpenSettings() error {
	return p.Click(DashboardSettingsButton)
}

// CloseModal dismisses the open dialog with Escape
func (p *DashboardPage) CloseModal() error {
	return p.act(p.timeout, chromedp.KeyEvent(kb.Escape))
}

// UserInfoVisible reports whether the user's name and email are shown
func (p *DashboardPage) UserInfoVisible(timeout time.Duration) bool {
	return p.IsVisible(DashboardUserName, timeout) && p.IsVisible(DashboardUserEmail, timeout)
}

// Stats reads the summary cards
func (p *DashboardPage) Stats() (DashboardStats, error) {
	var stats DashboardStats
	cards := []struct {
		loc Locator
		dst *int
	}{
		{DashboardUpToDateValue, &stats.UpToDate},
		{DashboardUpcomingValue, &stats.Upcoming},
		{DashboardOverdueValue, &stats.Overdue},
	}
	for _, c := range cards {
		text, err := p.Text(c.loc)
		if err != nil {
			return stats, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return stats, fmt.Errorf("stat card %s is not a number: %q", c.loc, text)
		}
		*c.dst = n
	}
	return stats, nil
}

// OpenCalendarDay clicks a day in the calendar and waits for its detail card
func (p *DashboardPage) OpenCalendarDay(day int) error {
	if err := p.Click(CalendarDay(day)); err != nil {
		return err
	}
	if !p.IsPresent(DashboardDetailCard, 10*time.Second) {
		return fmt.Errorf("no detail card opened for day %d", day)
	}
	return nil
}
