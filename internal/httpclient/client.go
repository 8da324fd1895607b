// Package httpclient is a small typed client for the ImuneTrack backend REST API,
// used by the e2e suite and the test runner to probe and prepare the backend.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/imunetrack/internal/models"
)

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// StatusError is returned for any non-2xx response; Detail carries the backend's
// {"detail": "..."} message when present
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// Client calls the backend at baseURL. After Login, requests carry the bearer token.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New creates a client for baseURL (e.g. http://localhost:8000)
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    NewDefaultHTTPClient(timeout),
	}
}

// BaseURL returns the backend address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the bearer token from the last successful Login
func (c *Client) Token() string {
	return c.token
}

// Health returns nil when GET /health answers 200
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, "", nil)
}

// Version returns the backend build information
func (c *Client) Version(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	if err := c.do(ctx, http.MethodGet, "/version", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reset restores the backend fixtures
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/__mock/reset", nil, "", nil)
}

// Login posts form credentials and keeps the returned token for later calls
func (c *Client) Login(ctx context.Context, email, senha string) (*models.LoginResponse, error) {
	form := url.Values{"email": {email}, "senha": {senha}}
	var out models.LoginResponse
	err := c.do(ctx, http.MethodPost, "/usuarios/login",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &out)
	if err != nil {
		return nil, err
	}
	c.token = out.AccessToken
	return &out, nil
}

// Me returns the user identified by the current token
func (c *Client) Me(ctx context.Context) (*models.Usuario, error) {
	var out models.Usuario
	if err := c.do(ctx, http.MethodGet, "/usuarios/me", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateUsuario registers a user
func (c *Client) CreateUsuario(ctx context.Context, payload models.UsuarioCreate) (*models.Usuario, error) {
	var out models.Usuario
	if err := c.doJSON(ctx, http.MethodPost, "/usuarios/", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Vacinas lists the vaccine catalogue
func (c *Client) Vacinas(ctx context.Context) ([]models.Vacina, error) {
	var out []models.Vacina
	if err := c.do(ctx, http.MethodGet, "/vacinas/", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Historico lists a user's vaccination records
func (c *Client) Historico(ctx context.Context, usuarioID int) ([]models.HistoricoVacinal, error) {
	var out []models.HistoricoVacinal
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/usuarios/%d/historico/", usuarioID), nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateHistorico adds a record to a user's history
func (c *Client) CreateHistorico(ctx context.Context, usuarioID int, payload models.HistoricoCreate) (*models.HistoricoVacinal, error) {
	var out models.HistoricoVacinal
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/usuarios/%d/historico/", usuarioID), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Estatisticas returns the dashboard counters for a user
func (c *Client) Estatisticas(ctx context.Context, usuarioID int) (*models.Estatisticas, error) {
	var out models.Estatisticas
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/usuarios/%d/historico/estatisticas", usuarioID), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(body), "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.NewDecoder(resp.Body).Decode(&detail) == nil {
			se.Detail = detail.Detail
		}
		return se
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
