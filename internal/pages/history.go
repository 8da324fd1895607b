package pages

import (
	"fmt"
	"time"
)

// History locators
var (
	HistoryTabExact    = XPath("//button[.//span[text()='Histórico']]")
	HistoryHeading     = XPath("//*[contains(text(), 'Histórico')]")
	HistoryCard        = XPath("//div[contains(@class,'rounded-lg') and .//h4]")
	HistoryEmpty       = XPath("//*[contains(text(), 'Nenhuma vacina')]")
	HistoryPendingCard = XPath("//div[contains(@class,'rounded-lg') and .//p[contains(text(),'Prevista')]]")
	HistoryModal       = XPath("//div[@role='dialog']")
	HistoryAppliedBox  = HistoryModal.Child(".//input[@id='aplicada']")
	HistoryConfirm     = HistoryModal.Child(".//button[contains(text(), 'Confirmar') and not(@disabled)]")
)

// HistoryPage is the vaccination history tab of the dashboard
type HistoryPage struct {
	*BasePage
}

func NewHistoryPage(base *BasePage) *HistoryPage {
	return &HistoryPage{BasePage: base}
}

// Open clicks the Histórico tab and waits for the heading
func (p *HistoryPage) Open() error {
	if err := p.Click(HistoryTabExact); err != nil {
		return err
	}
	if !p.IsPresent(HistoryHeading, 5*time.Second) {
		return fmt.Errorf("history heading did not appear")
	}
	return nil
}

// IsOnHistoryPage reports whether the history heading is present
func (p *HistoryPage) IsOnHistoryPage(timeout time.Duration) bool {
	return p.IsPresent(HistoryHeading, timeout)
}

// WaitForCardsOrEmpty waits for either a record card or the empty-state message
func (p *HistoryPage) WaitForCardsOrEmpty(timeout time.Duration) error {
	expr := fmt.Sprintf(`%s.length > 0 || %s.length > 0`, HistoryCard.jsAll(), HistoryEmpty.jsAll())
	if err := p.poll(expr, timeout); err != nil {
		return fmt.Errorf("history did not render cards or empty message: %w", err)
	}
	return nil
}

// PendingCount returns the number of cards still awaiting application
func (p *HistoryPage) PendingCount() (int, error) {
	return p.Count(HistoryPendingCard)
}

// OpenFirstPending clicks the first pending card and waits for its dialog
func (p *HistoryPage) OpenFirstPending() error {
	first := XPath("(" + HistoryPendingCard.Value + ")[1]")
	if err := p.Click(first); err != nil {
		return err
	}
	if !p.IsPresent(HistoryModal, 10*time.Second) {
		return fmt.Errorf("dialog did not open for pending card")
	}
	return nil
}

// MarkApplied ticks "aplicada" in the open dialog, confirms, and waits for the dialog to close
func (p *HistoryPage) MarkApplied() error {
	if err := p.Click(HistoryAppliedBox); err != nil {
		return err
	}
	if err := p.Click(HistoryConfirm); err != nil {
		return err
	}
	return p.WaitForElementToDisappear(HistoryModal, 10*time.Second)
}

// MarkFirstPendingApplied runs the whole flow on the first pending card
func (p *HistoryPage) MarkFirstPendingApplied() error {
	if err := p.WaitForCardsOrEmpty(10 * time.Second); err != nil {
		return err
	}
	n, err := p.PendingCount()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no pending vaccine to mark as applied")
	}
	if err := p.OpenFirstPending(); err != nil {
		return err
	}
	return p.MarkApplied()
}

// IsModalClosed reports whether no dialog is visible within timeout
func (p *HistoryPage) IsModalClosed(timeout time.Duration) bool {
	return WaitForElementToDisappear(p.BasePage, HistoryModal, timeout)
}
