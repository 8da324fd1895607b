package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/interfaces"
	"github.com/ternarybob/imunetrack/internal/models"
)

// VacinaHandler serves /vacinas/ routes
type VacinaHandler struct {
	vaccines interfaces.VaccineStorage
	events   *EventsHandler
	logger   arbor.ILogger
}

// NewVacinaHandler creates a vaccine handler
func NewVacinaHandler(vaccines interfaces.VaccineStorage, events *EventsHandler, logger arbor.ILogger) *VacinaHandler {
	return &VacinaHandler{
		vaccines: vaccines,
		events:   events,
		logger:   logger,
	}
}

// ListHandler handles GET /vacinas/
func (h *VacinaHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	vacinas, err := h.vaccines.ListVaccines(r.Context())
	if err != nil {
		WriteInternalError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, vacinas)
}

// CreateHandler handles POST /vacinas/
func (h *VacinaHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var payload models.VacinaCreate
	if !DecodeAndValidate(w, r, &payload) {
		return
	}

	vacina := &models.Vacina{Nome: payload.Nome, Doses: payload.Doses}
	if err := h.vaccines.CreateVaccine(r.Context(), vacina); err != nil {
		WriteInternalError(w, err)
		return
	}

	h.events.Publish(models.EventoVacinaCriada, 0, vacina)
	WriteJSON(w, http.StatusCreated, vacina)
}

// GetHandler handles GET /vacinas/{id}
func (h *VacinaHandler) GetHandler(w http.ResponseWriter, r *http.Request, id int) {
	vacina, ok := h.lookup(w, r, id)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, vacina)
}

// UpdateHandler handles PUT /vacinas/{id}
func (h *VacinaHandler) UpdateHandler(w http.ResponseWriter, r *http.Request, id int) {
	vacina, ok := h.lookup(w, r, id)
	if !ok {
		return
	}

	var payload models.VacinaUpdate
	if !DecodeAndValidate(w, r, &payload) {
		return
	}
	payload.Apply(vacina)

	if err := h.vaccines.UpdateVaccine(r.Context(), vacina); err != nil {
		WriteInternalError(w, err)
		return
	}

	h.events.Publish(models.EventoVacinaAtualizada, 0, vacina)
	WriteJSON(w, http.StatusOK, vacina)
}

// DeleteHandler handles DELETE /vacinas/{id}
func (h *VacinaHandler) DeleteHandler(w http.ResponseWriter, r *http.Request, id int) {
	err := h.vaccines.DeleteVaccine(r.Context(), id)
	if errors.Is(err, interfaces.ErrNotFound) {
		WriteDetailf(w, http.StatusNotFound, "Vacina com ID %d não encontrada", id)
		return
	}
	if err != nil {
		WriteInternalError(w, err)
		return
	}

	h.events.Publish(models.EventoVacinaRemovida, 0, map[string]int{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *VacinaHandler) lookup(w http.ResponseWriter, r *http.Request, id int) (*models.Vacina, bool) {
	vacina, err := h.vaccines.GetVaccine(r.Context(), id)
	if errors.Is(err, interfaces.ErrNotFound) {
		WriteDetailf(w, http.StatusNotFound, "Vacina com ID %d não encontrada", id)
		return nil, false
	}
	if err != nil {
		WriteInternalError(w, err)
		return nil, false
	}
	return vacina, true
}
