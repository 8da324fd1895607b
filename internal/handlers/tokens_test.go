package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/imunetrack/internal/models"
)

func TestTokenService_RoundTrip(t *testing.T) {
	s := NewTokenService("segredo", time.Hour)

	token, err := s.Issue(&models.Usuario{ID: 42})
	require.NoError(t, err)

	id, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	_, err = NewTokenService("outro", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestTokenService_Expired(t *testing.T) {
	s := NewTokenService("segredo", -time.Minute)
	token, err := s.Issue(&models.Usuario{ID: 1})
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/usuarios/me", nil)
	_, err := BearerToken(req)
	assert.Error(t, err)

	req.Header.Set("Authorization", "Basic abc")
	_, err = BearerToken(req)
	assert.Error(t, err)

	req.Header.Set("Authorization", "bearer abc.def")
	token, err := BearerToken(req)
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)
}
