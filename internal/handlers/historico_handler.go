package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/interfaces"
	"github.com/ternarybob/imunetrack/internal/models"
)

// HistoricoHandler serves /usuarios/{id}/historico/ routes
type HistoricoHandler struct {
	users    interfaces.UserStorage
	vaccines interfaces.VaccineStorage
	history  interfaces.HistoryStorage
	events   *EventsHandler
	logger   arbor.ILogger
	now      func() time.Time
}

// NewHistoricoHandler creates a history handler
func NewHistoricoHandler(users interfaces.UserStorage, vaccines interfaces.VaccineStorage, history interfaces.HistoryStorage, events *EventsHandler, logger arbor.ILogger) *HistoricoHandler {
	return &HistoricoHandler{
		users:    users,
		vaccines: vaccines,
		history:  history,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// ListHandler handles GET /usuarios/{id}/historico/?ano=&mes=&vacina_id=&status=
func (h *HistoricoHandler) ListHandler(w http.ResponseWriter, r *http.Request, usuarioID int) {
	if !h.requireUser(w, r, usuarioID) {
		return
	}

	filter := models.HistoricoFilter{Status: r.URL.Query().Get("status")}
	var err error
	for key, dst := range map[string]*int{"ano": &filter.Ano, "mes": &filter.Mes, "vacina_id": &filter.VacinaID} {
		if *dst, err = QueryInt(r, key); err != nil {
			WriteDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	records, err := h.history.ListHistory(r.Context(), usuarioID, filter)
	if err != nil {
		WriteInternalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, records)
}

// CreateHandler handles POST /usuarios/{id}/historico/
func (h *HistoricoHandler) CreateHandler(w http.ResponseWriter, r *http.Request, usuarioID int) {
	if !h.requireUser(w, r, usuarioID) {
		return
	}

	var payload models.HistoricoCreate
	if !DecodeAndValidate(w, r, &payload) {
		return
	}

	vacina, err := h.vaccines.GetVaccine(r.Context(), payload.VacinaID)
	if errors.Is(err, interfaces.ErrNotFound) {
		WriteDetailf(w, http.StatusNotFound, "Vacina com ID %d não encontrada", payload.VacinaID)
		return
	}
	if err != nil {
		WriteInternalError(w, err)
		return
	}

	rec := payload.ToRecord(usuarioID, vacina.Nome)
	if err := h.history.CreateHistory(r.Context(), rec); err != nil {
		WriteInternalError(w, err)
		return
	}

	h.logger.Info().
		Int("usuario_id", usuarioID).
		Int("historico_id", rec.ID).
		Str("vacina", rec.VacinaNome).
		Msg("History record created")
	h.events.Publish(models.EventoHistoricoCriado, usuarioID, rec)
	WriteJSON(w, http.StatusCreated, rec)
}

// EstatisticasHandler handles GET /usuarios/{id}/historico/estatisticas
func (h *HistoricoHandler) EstatisticasHandler(w http.ResponseWriter, r *http.Request, usuarioID int) {
	if !h.requireUser(w, r, usuarioID) {
		return
	}

	records, err := h.history.ListHistory(r.Context(), usuarioID, models.HistoricoFilter{})
	if err != nil {
		WriteInternalError(w, err)
		return
	}
	vacinas, err := h.vaccines.ListVaccines(r.Context())
	if err != nil {
		WriteInternalError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, models.ComputeEstatisticas(records, vacinas, h.now()))
}

// GetHandler handles GET /usuarios/{id}/historico/{hid}
func (h *HistoricoHandler) GetHandler(w http.ResponseWriter, r *http.Request, usuarioID, id int) {
	rec, ok := h.lookup(w, r, usuarioID, id)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

// UpdateHandler handles PUT /usuarios/{id}/historico/{hid}
func (h *HistoricoHandler) UpdateHandler(w http.ResponseWriter, r *http.Request, usuarioID, id int) {
	rec, ok := h.lookup(w, r, usuarioID, id)
	if !ok {
		return
	}

	var payload models.HistoricoUpdate
	if !DecodeAndValidate(w, r, &payload) {
		return
	}
	payload.Apply(rec)

	if err := h.history.UpdateHistory(r.Context(), rec); err != nil {
		WriteInternalError(w, err)
		return
	}

	h.events.Publish(models.EventoHistoricoAlterado, usuarioID, rec)
	WriteJSON(w, http.StatusOK, rec)
}

// AplicarHandler handles PATCH /usuarios/{id}/historico/{hid}/aplicar
func (h *HistoricoHandler) AplicarHandler(w http.ResponseWriter, r *http.Request, usuarioID, id int) {
	rec, ok := h.lookup(w, r, usuarioID, id)
	if !ok {
		return
	}

	var payload models.AplicarDose
	if !DecodeAndValidate(w, r, &payload) {
		return
	}
	payload.Apply(rec)

	if err := h.history.UpdateHistory(r.Context(), rec); err != nil {
		WriteInternalError(w, err)
		return
	}

	h.events.Publish(models.EventoHistoricoAplicado, usuarioID, rec)
	WriteJSON(w, http.StatusOK, rec)
}

// DeleteHandler handles DELETE /usuarios/{id}/historico/{hid}
func (h *HistoricoHandler) DeleteHandler(w http.ResponseWriter, r *http.Request, usuarioID, id int) {
	if _, ok := h.lookup(w, r, usuarioID, id); !ok {
		return
	}
	if err := h.history.DeleteHistory(r.Context(), usuarioID, id); err != nil {
		WriteInternalError(w, err)
		return
	}

	h.events.Publish(models.EventoHistoricoRemovido, usuarioID, map[string]int{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *HistoricoHandler) requireUser(w http.ResponseWriter, r *http.Request, usuarioID int) bool {
	_, err := h.users.GetUser(r.Context(), usuarioID)
	if errors.Is(err, interfaces.ErrNotFound) {
		WriteDetailf(w, http.StatusNotFound, "Usuário com ID %d não encontrado", usuarioID)
		return false
	}
	if err != nil {
		WriteInternalError(w, err)
		return false
	}
	return true
}

func (h *HistoricoHandler) lookup(w http.ResponseWriter, r *http.Request, usuarioID, id int) (*models.HistoricoVacinal, bool) {
	if !h.requireUser(w, r, usuarioID) {
		return nil, false
	}
	rec, err := h.history.GetHistory(r.Context(), usuarioID, id)
	if errors.Is(err, interfaces.ErrNotFound) {
		WriteDetailf(w, http.StatusNotFound, "Registro de histórico com ID %d não encontrado", id)
		return nil, false
	}
	if err != nil {
		WriteInternalError(w, err)
		return nil, false
	}
	return rec, true
}
