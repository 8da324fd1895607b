package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/app"
	"github.com/ternarybob/imunetrack/internal/common"
	"github.com/ternarybob/imunetrack/internal/models"
)

type testEnv struct {
	t      *testing.T
	app    *app.App
	server *httptest.Server
}

func newTestEnv(t *testing.T, storageType string) *testEnv {
	t.Helper()

	config := common.NewDefaultConfig()
	config.Storage.Type = storageType
	config.Storage.Badger.InMemory = true

	application, err := app.New(config, arbor.NewLogger())
	require.NoError(t, err)

	ts := httptest.NewServer(New(application).Handler())
	t.Cleanup(func() {
		ts.Close()
		application.Close()
	})

	return &testEnv{t: t, app: application, server: ts}
}

// send performs a request and returns the response with its body already read
func (e *testEnv) send(method, path string, body interface{}) (*http.Response, []byte) {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp, data
}

// do sends a request and decodes a JSON response into out (when non-nil)
func (e *testEnv) do(method, path string, body interface{}, out interface{}) *http.Response {
	e.t.Helper()
	resp, data := e.send(method, path, body)
	if out != nil {
		require.NoError(e.t, json.Unmarshal(data, out), string(data))
	}
	return resp
}

// detail returns the status and the "detail" message; bodies without one (users, lists, 204) give ""
func (e *testEnv) detail(method, path string, body interface{}) (int, string) {
	e.t.Helper()
	resp, data := e.send(method, path, body)

	var payload map[string]any
	if len(data) > 0 && json.Unmarshal(data, &payload) == nil {
		if msg, ok := payload["detail"].(string); ok {
			return resp.StatusCode, msg
		}
	}
	return resp.StatusCode, ""
}

func loginPath(email, senha string) string {
	return "/usuarios/login?" + url.Values{"email": {email}, "senha": {senha}}.Encode()
}

func TestHealthAndMiddleware(t *testing.T) {
	env := newTestEnv(t, "memory")

	var health map[string]string
	resp := env.do(http.MethodGet, "/health", nil, &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health["status"])
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	req, _ := http.NewRequest(http.MethodOptions, env.server.URL+"/usuarios/", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	preflight, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	preflight.Body.Close()
	assert.Equal(t, http.StatusOK, preflight.StatusCode)
	assert.Equal(t, "fixed-id", preflight.Header.Get(RequestIDHeader))
	assert.Contains(t, preflight.Header.Get("Access-Control-Allow-Methods"), "PATCH")

	status, detail := env.detail(http.MethodGet, "/nao-existe", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found", detail)

	status, _ = env.detail(http.MethodPatch, "/vacinas/", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, "memory")

	var login models.LoginResponse
	resp := env.do(http.MethodPost, loginPath("teste@example.com", "senha123"), nil, &login)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, login.ID)
	assert.Equal(t, "teste@example.com", login.Email)
	assert.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "bearer", login.TokenType)

	// configured test user; a user body carries no detail
	status, detail := env.detail(http.MethodPost, loginPath("admin@teste.com", "admin1"), nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, detail)

	for _, tc := range []struct{ email, senha string }{
		{"teste@example.com", "errada"},
		{"ninguem@example.com", "senha123"},
		{"", ""},
	} {
		status, detail := env.detail(http.MethodPost, loginPath(tc.email, tc.senha), nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Email ou senha incorretos", detail)
	}

	// /usuarios/me with the issued token
	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/usuarios/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	me, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer me.Body.Close()
	require.Equal(t, http.StatusOK, me.StatusCode)
	var user models.Usuario
	require.NoError(t, json.NewDecoder(me.Body).Decode(&user))
	assert.Equal(t, 1, user.ID)

	status, _ = env.detail(http.MethodGet, "/usuarios/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	events := env.app.EventsHandler.Recent(0)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, models.EventoLogin)
	assert.Contains(t, types, models.EventoLoginFalhou)
}

func TestUsuarios(t *testing.T) {
	for _, storageType := range []string{"memory", "badger"} {
		t.Run(storageType, func(t *testing.T) {
			env := newTestEnv(t, storageType)

			var created models.Usuario
			resp := env.do(http.MethodPost, "/usuarios/", map[string]string{
				"nome": "Maria", "email": "maria@example.com", "senha": "senha123",
			}, &created)
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			assert.Equal(t, 3, created.ID)
			assert.False(t, created.IsAdmin)

			// the new user can log in
			status, _ := env.detail(http.MethodPost, loginPath("maria@example.com", "senha123"), nil)
			assert.Equal(t, http.StatusOK, status)

			status, detail := env.detail(http.MethodPost, "/usuarios/", map[string]string{
				"nome": "Outra", "email": "maria@example.com", "senha": "senha123",
			})
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "Usuário com email 'maria@example.com' já existe", detail)

			status, _ = env.detail(http.MethodPost, "/usuarios/", map[string]string{
				"nome": "Sem Email", "email": "invalido", "senha": "senha123",
			})
			assert.Equal(t, http.StatusUnprocessableEntity, status)

			var users []models.Usuario
			env.do(http.MethodGet, "/usuarios/", nil, &users)
			assert.Len(t, users, 3)

			var updated models.Usuario
			resp = env.do(http.MethodPut, "/usuarios/3", map[string]string{"nome": "Maria Souza"}, &updated)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "Maria Souza", updated.Nome)
			assert.Equal(t, "maria@example.com", updated.Email)

			resp = env.do(http.MethodDelete, "/usuarios/3", nil, nil)
			assert.Equal(t, http.StatusNoContent, resp.StatusCode)

			status, detail = env.detail(http.MethodGet, "/usuarios/3", nil)
			assert.Equal(t, http.StatusNotFound, status)
			assert.Equal(t, "Usuário com ID 3 não encontrado", detail)

			status, _ = env.detail(http.MethodGet, "/usuarios/abc", nil)
			assert.Equal(t, http.StatusUnprocessableEntity, status)
		})
	}
}

func TestVacinas(t *testing.T) {
	env := newTestEnv(t, "memory")

	var vacinas []models.Vacina
	env.do(http.MethodGet, "/vacinas/", nil, &vacinas)
	require.Len(t, vacinas, 6)
	assert.Equal(t, "Hepatite B", vacinas[0].Nome)
	assert.Equal(t, 3, vacinas[0].Doses)

	// no trailing slash
	var again []models.Vacina
	env.do(http.MethodGet, "/vacinas", nil, &again)
	assert.Len(t, again, 6)

	var created models.Vacina
	resp := env.do(http.MethodPost, "/vacinas/", map[string]interface{}{"nome": "HPV", "doses": 2}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 7, created.ID)

	status, _ := env.detail(http.MethodPost, "/vacinas/", map[string]interface{}{"nome": "Zero", "doses": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	var updated models.Vacina
	env.do(http.MethodPut, "/vacinas/7", map[string]interface{}{"doses": 3}, &updated)
	assert.Equal(t, 3, updated.Doses)
	assert.Equal(t, "HPV", updated.Nome)

	resp = env.do(http.MethodDelete, "/vacinas/7", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	status, detail := env.detail(http.MethodGet, "/vacinas/99", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Vacina com ID 99 não encontrada", detail)
}

func TestHistorico(t *testing.T) {
	env := newTestEnv(t, "memory")
	prevista := time.Now().AddDate(0, 1, 0).Format(models.DateLayout)

	var rec models.HistoricoVacinal
	resp := env.do(http.MethodPost, "/usuarios/1/historico/", map[string]interface{}{
		"vacina_id":       4,
		"numero_dose":     1,
		"data_prevista":   prevista,
		"local_aplicacao": "UBS Centro",
	}, &rec)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Febre Amarela", rec.VacinaNome)
	assert.Equal(t, models.StatusPendente, rec.Status)
	assert.Equal(t, 1, rec.UsuarioID)

	status, detail := env.detail(http.MethodPost, "/usuarios/1/historico/", map[string]interface{}{"vacina_id": 42, "numero_dose": 1})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Vacina com ID 42 não encontrada", detail)

	status, _ = env.detail(http.MethodGet, "/usuarios/99/historico/", nil)
	assert.Equal(t, http.StatusNotFound, status)

	var list []models.HistoricoVacinal
	env.do(http.MethodGet, "/usuarios/1/historico/?vacina_id=4&status=pendente", nil, &list)
	require.Len(t, list, 1)

	list = nil
	env.do(http.MethodGet, fmt.Sprintf("/usuarios/1/historico/?ano=%d", time.Now().Year()-5), nil, &list)
	assert.Empty(t, list)

	status, _ = env.detail(http.MethodGet, "/usuarios/1/historico/?ano=abc", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	var applied models.HistoricoVacinal
	resp = env.do(http.MethodPatch, fmt.Sprintf("/usuarios/1/historico/%d/aplicar", rec.ID), map[string]string{
		"data_aplicacao": time.Now().Format(models.DateLayout),
		"lote":           "L-123",
	}, &applied)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusAplicada, applied.Status)
	require.NotNil(t, applied.Lote)
	assert.Equal(t, "L-123", *applied.Lote)

	var stats models.Estatisticas
	env.do(http.MethodGet, "/usuarios/1/historico/estatisticas", nil, &stats)
	assert.Equal(t, 1, stats.TotalDoses)
	assert.Equal(t, 1, stats.DosesAplicadas)
	assert.Equal(t, 1, stats.VacinasCompletas)

	var edited models.HistoricoVacinal
	env.do(http.MethodPut, fmt.Sprintf("/usuarios/1/historico/%d", rec.ID), map[string]string{"observacoes": "reação leve"}, &edited)
	require.NotNil(t, edited.Observacoes)
	assert.Equal(t, "reação leve", *edited.Observacoes)

	// records of another user are invisible
	status, _ = env.detail(http.MethodGet, fmt.Sprintf("/usuarios/2/historico/%d", rec.ID), nil)
	assert.Equal(t, http.StatusNotFound, status)

	resp = env.do(http.MethodDelete, fmt.Sprintf("/usuarios/1/historico/%d", rec.ID), nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	status, detail = env.detail(http.MethodGet, fmt.Sprintf("/usuarios/1/historico/%d", rec.ID), nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.True(t, strings.HasPrefix(detail, "Registro de histórico"))
}

func TestMockReset(t *testing.T) {
	env := newTestEnv(t, "memory")

	env.do(http.MethodPost, "/vacinas/", map[string]interface{}{"nome": "HPV", "doses": 2}, nil)

	resp := env.do(http.MethodPost, "/__mock/reset", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var vacinas []models.Vacina
	env.do(http.MethodGet, "/vacinas/", nil, &vacinas)
	assert.Len(t, vacinas, 6)

	var events []models.Evento
	env.do(http.MethodGet, "/__mock/eventos", nil, &events)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventoReset, events[0].Type)

	status, _ := env.detail(http.MethodGet, "/__mock/reset", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestPathSegments(t *testing.T) {
	assert.Equal(t, []string{"3", "historico"}, pathSegments("/usuarios/3/historico/", "/usuarios"))
	assert.Equal(t, []string{"login"}, pathSegments("/usuarios/login", "/usuarios"))
	assert.Nil(t, pathSegments("/usuarios/", "/usuarios"))
	assert.Nil(t, pathSegments("/usuarios", "/usuarios"))
}
