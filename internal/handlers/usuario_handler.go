package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/interfaces"
	"github.com/ternarybob/imunetrack/internal/models"
)

const msgLoginInvalido = "Email ou senha incorretos"

// UsuarioHandler serves /usuarios/ routes
type UsuarioHandler struct {
	users   interfaces.UserStorage
	history interfaces.HistoryStorage
	tokens  *TokenService
	events  *EventsHandler
	logger  arbor.ILogger
}

// NewUsuarioHandler creates a user handler
func NewUsuarioHandler(users interfaces.UserStorage, history interfaces.HistoryStorage, tokens *TokenService, events *EventsHandler, logger arbor.ILogger) *UsuarioHandler {
	return &UsuarioHandler{
		users:   users,
		history: history,
		tokens:  tokens,
		events:  events,
		logger:  logger,
	}
}

// LoginHandler handles POST /usuarios/login?email=&senha=
func (h *UsuarioHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	senha := r.FormValue("senha")

	user, err := h.users.GetUserByEmail(r.Context(), email)
	if errors.Is(err, interfaces.ErrNotFound) || (err == nil && !user.CheckSenha(senha)) {
		h.events.Publish(models.EventoLoginFalhou, 0, map[string]string{"email": email})
		WriteDetail(w, http.StatusUnauthorized, msgLoginInvalido)
		return
	}
	if err != nil {
		WriteInternalError(w, err)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		WriteInternalError(w, err)
		return
	}

	h.events.Publish(models.EventoLogin, user.ID, map[string]string{"email": user.Email})
	WriteJSON(w, http.StatusOK, models.LoginResponse{
		Usuario:     *user,
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// MeHandler handles GET /usuarios/me
func (h *UsuarioHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	token, err := BearerToken(r)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		WriteDetail(w, http.StatusUnauthorized, "Não autenticado")
		return
	}
	id, err := h.tokens.Verify(token)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		WriteDetail(w, http.StatusUnauthorized, "Token inválido ou expirado")
		return
	}
	h.GetHandler(w, r, id)
}

// ListHandler handles GET /usuarios/
func (h *UsuarioHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		WriteInternalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

// CreateHandler handles POST /usuarios/
func (h *UsuarioHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var payload models.UsuarioCreate
	if !DecodeAndValidate(w, r, &payload) {
		return
	}

	hash, err := models.HashSenha(payload.Senha)
	if err != nil {
		WriteInternalError(w, err)
		return
	}

	user := &models.Usuario{
		Nome:      strings.TrimSpace(payload.Nome),
		Email:     strings.TrimSpace(payload.Email),
		SenhaHash: hash,
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, interfaces.ErrConflict) {
			WriteDetailf(w, http.StatusBadRequest, "Usuário com email '%s' já existe", payload.Email)
			return
		}
		WriteInternalError(w, err)
		return
	}

	h.logger.Info().Int("id", user.ID).Str("email", user.Email).Msg("User created")
	h.events.Publish(models.EventoUsuarioCriado, user.ID, user)
	WriteJSON(w, http.StatusCreated, user)
}

// GetHandler handles GET /usuarios/{id}
func (h *UsuarioHandler) GetHandler(w http.ResponseWriter, r *http.Request, id int) {
	user, ok := h.lookup(w, r, id)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// UpdateHandler handles PUT /usuarios/{id}
func (h *UsuarioHandler) UpdateHandler(w http.ResponseWriter, r *http.Request, id int) {
	user, ok := h.lookup(w, r, id)
	if !ok {
		return
	}

	var payload models.UsuarioUpdate
	if !DecodeAndValidate(w, r, &payload) {
		return
	}
	payload.Apply(user)

	if err := h.users.UpdateUser(r.Context(), user); err != nil {
		if errors.Is(err, interfaces.ErrConflict) {
			WriteDetailf(w, http.StatusBadRequest, "Usuário com email '%s' já existe", user.Email)
			return
		}
		WriteInternalError(w, err)
		return
	}

	h.events.Publish(models.EventoUsuarioAtualizado, user.ID, user)
	WriteJSON(w, http.StatusOK, user)
}

// DeleteHandler handles DELETE /usuarios/{id}, removing the user's history too
func (h *UsuarioHandler) DeleteHandler(w http.ResponseWriter, r *http.Request, id int) {
	if _, ok := h.lookup(w, r, id); !ok {
		return
	}
	if err := h.history.DeleteUserHistory(r.Context(), id); err != nil {
		WriteInternalError(w, err)
		return
	}
	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		WriteInternalError(w, err)
		return
	}

	h.events.Publish(models.EventoUsuarioRemovido, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// lookup loads a user, writing 404 when it does not exist
func (h *UsuarioHandler) lookup(w http.ResponseWriter, r *http.Request, id int) (*models.Usuario, bool) {
	user, err := h.users.GetUser(r.Context(), id)
	if errors.Is(err, interfaces.ErrNotFound) {
		WriteDetailf(w, http.StatusNotFound, "Usuário com ID %d não encontrado", id)
		return nil, false
	}
	if err != nil {
		WriteInternalError(w, err)
		return nil, false
	}
	return user, true
}
