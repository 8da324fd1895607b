package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/common"
	"github.com/ternarybob/imunetrack/internal/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Server.Host = "127.0.0.1"
	config.Server.Port = 0
	return New(config, arbor.NewLogger())
}

func TestServer_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.NotZero(t, s.Port())
	assert.Contains(t, s.URL(), "http://127.0.0.1:")
	assert.Error(t, s.Start(ctx), "second start must fail")

	resp, err := http.Post(s.URL()+"/vacinas/", "application/json", strings.NewReader(`{"nome":"HPV","doses":2}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, s.Reset(ctx))

	resp, err = http.Get(s.URL() + "/vacinas/")
	require.NoError(t, err)
	var vacinas []models.Vacina
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&vacinas))
	resp.Body.Close()
	assert.Len(t, vacinas, 6)

	events := s.Events().Recent(0)
	require.NotEmpty(t, events)
	assert.Equal(t, models.EventoReset, events[0].Type)

	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))

	_, err = http.Get(s.URL() + "/health")
	assert.Error(t, err)
}

func TestServer_ResetBeforeStart(t *testing.T) {
	s := newTestServer(t)
	assert.Error(t, s.Reset(context.Background()))
	assert.Nil(t, s.Events())
}

func TestNew_NilLoggerUsesProcessLogger(t *testing.T) {
	s := New(common.NewDefaultConfig(), nil)
	assert.NotNil(t, s.logger)
}

func TestWaitForHealth_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	assert.Error(t, WaitForHealth(ctx, "http://127.0.0.1:1"))
}
