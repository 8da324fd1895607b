package e2e

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/imunetrack/internal/models"
)

func TestHistoryOpen(t *testing.T) {
	e := NewE2EContext(t)
	defer e.Cleanup()
	e.Authenticated()

	require.NoError(t, e.Pages.History.Open())
	assert.True(t, e.Pages.History.IsOnHistoryPage(5*time.Second))
}

func TestHistoryMarkPendingApplied(t *testing.T) {
	e := NewE2EContext(t)
	defer e.Cleanup()
	e.Authenticated()

	events, err := DialEvents(e.Ctx, e.APIURL)
	require.NoError(t, err)
	defer events.Close()

	require.NoError(t, e.Pages.Dashboard.NavigateToHistory())
	require.NoError(t, e.Pages.History.WaitForCardsOrEmpty(10*time.Second))

	pending, err := e.Pages.History.PendingCount()
	require.NoError(t, err)
	require.Greater(t, pending, 0, "no pending vaccine available to mark")
	e.Screenshot("history_before")

	require.NoError(t, e.Pages.History.OpenFirstPending())
	require.NoError(t, e.Pages.History.MarkApplied())
	assert.True(t, e.Pages.History.IsModalClosed(time.Second))
	e.Screenshot("history_after")

	// The frontend may persist the change with either a PATCH /aplicar or a PUT
	if ev, err := events.WaitFor(models.EventoHistoricoAplicado, 5*time.Second); err == nil {
		e.Log("Backend recorded %s for usuario %d", ev.Type, ev.UsuarioID)
	} else {
		e.Log("No %s event observed: %v", models.EventoHistoricoAplicado, err)
	}
}
