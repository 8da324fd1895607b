package e2e

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/imunetrack/internal/httpclient"
)

// TestBackendFixtures checks the backend the frontend talks to; it needs no browser
func TestBackendFixtures(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client := httpclient.New(apiURL, 5*time.Second)

	require.NoError(t, client.Health(ctx))

	vacinas, err := client.Vacinas(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, vacinas)

	login, err := client.Login(ctx, suiteConfig.TestUser.Email, suiteConfig.TestUser.Password)
	require.NoError(t, err)
	assert.Equal(t, suiteConfig.TestUser.Email, login.Email)
	assert.NotEmpty(t, login.AccessToken)

	me, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, login.ID, me.ID)

	_, err = httpclient.New(apiURL, 5*time.Second).Login(ctx, suiteConfig.TestUser.Email, "senha-errada")
	var se *httpclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}

func TestSuiteName(t *testing.T) {
	assert.Equal(t, "auth", suiteName("TestAuthLoginSuccess"))
	assert.Equal(t, "smoke", suiteName("TestSmokeAppLoads"))
	assert.Equal(t, "history", suiteName("TestHistory/sub"))
}
