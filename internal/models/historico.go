package models

import (
	"strings"
	"time"
)

// Dose status values
const (
	StatusPendente  = "pendente"
	StatusAplicada  = "aplicada"
	StatusAtrasada  = "atrasada"
	StatusCancelada = "cancelada"
)

// DateLayout is the ISO date format used by the frontend forms
const DateLayout = "2006-01-02"

// HistoricoVacinal is one dose of a user's vaccination history
type HistoricoVacinal struct {
	ID             int     `json:"id" badgerhold:"key"`
	UsuarioID      int     `json:"usuario_id" badgerhold:"index"`
	VacinaID       int     `json:"vacina_id"`
	VacinaNome     string  `json:"vacina_nome"`
	NumeroDose     int     `json:"numero_dose"`
	Status         string  `json:"status"`
	DataAplicacao  *string `json:"data_aplicacao"`
	DataPrevista   *string `json:"data_prevista"`
	Lote           *string `json:"lote"`
	LocalAplicacao *string `json:"local_aplicacao"`
	Profissional   *string `json:"profissional"`
	Observacoes    *string `json:"observacoes"`
}

// EffectiveDate returns the application date when present, otherwise the scheduled date
func (h *HistoricoVacinal) EffectiveDate() (time.Time, bool) {
	for _, d := range []*string{h.DataAplicacao, h.DataPrevista} {
		if d == nil || *d == "" {
			continue
		}
		if t, ok := ParseDate(*d); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// HistoricoCreate is the payload of POST /usuarios/{id}/historico/
type HistoricoCreate struct {
	VacinaID       int     `json:"vacina_id" validate:"required,gt=0"`
	NumeroDose     int     `json:"numero_dose" validate:"required,gte=1"`
	Status         string  `json:"status" validate:"omitempty,oneof=pendente aplicada atrasada cancelada"`
	DataAplicacao  *string `json:"data_aplicacao"`
	DataPrevista   *string `json:"data_prevista"`
	Lote           *string `json:"lote"`
	LocalAplicacao *string `json:"local_aplicacao"`
	Profissional   *string `json:"profissional"`
	Observacoes    *string `json:"observacoes"`
}

// Validate validates the create payload
func (h *HistoricoCreate) Validate() error {
	return validate.Struct(h)
}

// ToRecord builds a history record for the user, defaulting the status to pendente
func (h *HistoricoCreate) ToRecord(usuarioID int, vacinaNome string) *HistoricoVacinal {
	status := h.Status
	if status == "" {
		status = StatusPendente
	}
	return &HistoricoVacinal{
		UsuarioID:      usuarioID,
		VacinaID:       h.VacinaID,
		VacinaNome:     vacinaNome,
		NumeroDose:     h.NumeroDose,
		Status:         status,
		DataAplicacao:  h.DataAplicacao,
		DataPrevista:   h.DataPrevista,
		Lote:           h.Lote,
		LocalAplicacao: h.LocalAplicacao,
		Profissional:   h.Profissional,
		Observacoes:    h.Observacoes,
	}
}

// HistoricoUpdate is a partial update (PUT /usuarios/{id}/historico/{hid})
type HistoricoUpdate struct {
	NumeroDose     *int    `json:"numero_dose,omitempty" validate:"omitempty,gte=1"`
	Status         *string `json:"status,omitempty" validate:"omitempty,oneof=pendente aplicada atrasada cancelada"`
	DataAplicacao  *string `json:"data_aplicacao,omitempty"`
	DataPrevista   *string `json:"data_prevista,omitempty"`
	Lote           *string `json:"lote,omitempty"`
	LocalAplicacao *string `json:"local_aplicacao,omitempty"`
	Profissional   *string `json:"profissional,omitempty"`
	Observacoes    *string `json:"observacoes,omitempty"`
}

// Validate validates the update payload
func (h *HistoricoUpdate) Validate() error {
	return validate.Struct(h)
}

// Apply copies the set fields onto the record
func (h *HistoricoUpdate) Apply(rec *HistoricoVacinal) {
	if h.NumeroDose != nil {
		rec.NumeroDose = *h.NumeroDose
	}
	if h.Status != nil {
		rec.Status = *h.Status
	}
	if h.DataAplicacao != nil {
		rec.DataAplicacao = h.DataAplicacao
	}
	if h.DataPrevista != nil {
		rec.DataPrevista = h.DataPrevista
	}
	if h.Lote != nil {
		rec.Lote = h.Lote
	}
	if h.LocalAplicacao != nil {
		rec.LocalAplicacao = h.LocalAplicacao
	}
	if h.Profissional != nil {
		rec.Profissional = h.Profissional
	}
	if h.Observacoes != nil {
		rec.Observacoes = h.Observacoes
	}
}

// AplicarDose is the payload of PATCH /usuarios/{id}/historico/{hid}/aplicar
type AplicarDose struct {
	DataAplicacao  string  `json:"data_aplicacao" validate:"required"`
	Lote           *string `json:"lote"`
	LocalAplicacao *string `json:"local_aplicacao"`
	Profissional   *string `json:"profissional"`
}

// Validate validates the payload
func (a *AplicarDose) Validate() error {
	return validate.Struct(a)
}

// Apply marks the record as applied
func (a *AplicarDose) Apply(rec *HistoricoVacinal) {
	data := a.DataAplicacao
	rec.Status = StatusAplicada
	rec.DataAplicacao = &data
	if a.Lote != nil {
		rec.Lote = a.Lote
	}
	if a.LocalAplicacao != nil {
		rec.LocalAplicacao = a.LocalAplicacao
	}
	if a.Profissional != nil {
		rec.Profissional = a.Profissional
	}
}

// HistoricoFilter narrows GET /usuarios/{id}/historico/ (zero values match everything)
type HistoricoFilter struct {
	Ano      int
	Mes      int
	VacinaID int
	Status   string
}

// Matches reports whether the record passes the filter.
// Year/month filters apply to the effective date; undated records never match them.
func (f HistoricoFilter) Matches(rec *HistoricoVacinal) bool {
	if f.VacinaID != 0 && rec.VacinaID != f.VacinaID {
		return false
	}
	if f.Status != "" && !strings.EqualFold(rec.Status, f.Status) {
		return false
	}
	if f.Ano == 0 && f.Mes == 0 {
		return true
	}
	t, ok := rec.EffectiveDate()
	if !ok {
		return false
	}
	if f.Ano != 0 && t.Year() != f.Ano {
		return false
	}
	if f.Mes != 0 && int(t.Month()) != f.Mes {
		return false
	}
	return true
}

// ParseDate accepts ISO dates (with or without time) and the dd/mm/yyyy form typed in the UI
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range []string{DateLayout, time.RFC3339, "2006-01-02T15:04:05", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
