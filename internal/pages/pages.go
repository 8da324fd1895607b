package pages

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/common"
)

// Set bundles every page object over one shared BasePage
type Set struct {
	Base      *BasePage
	Login     *LoginPage
	Cadastro  *CadastroPage
	Dashboard *DashboardPage
	Schedule  *VaccineSchedulePage
	History   *HistoryPage
}

// New creates the page objects for a browser context
func New(ctx context.Context, config *common.Config, logger arbor.ILogger) *Set {
	base := NewBasePage(ctx, config, logger)
	return &Set{
		Base:      base,
		Login:     NewLoginPage(base),
		Cadastro:  NewCadastroPage(base),
		Dashboard: NewDashboardPage(base),
		Schedule:  NewVaccineSchedulePage(base),
		History:   NewHistoryPage(base),
	}
}
