package models

import "time"

// Event types published by the mock backend on every mutation
const (
	EventoUsuarioCriado     = "usuario_criado"
	EventoUsuarioAtualizado = "usuario_atualizado"
	EventoUsuarioRemovido   = "usuario_removido"
	EventoLogin             = "login"
	EventoLoginFalhou       = "login_falhou"
	EventoVacinaCriada      = "vacina_criada"
	EventoVacinaAtualizada  = "vacina_atualizada"
	EventoVacinaRemovida    = "vacina_removida"
	EventoHistoricoCriado   = "historico_criado"
	EventoHistoricoAlterado = "historico_atualizado"
	EventoHistoricoAplicado = "historico_aplicado"
	EventoHistoricoRemovido = "historico_removido"
	EventoReset             = "reset"
)

// Evento is a mutation observed by the mock backend
type Evento struct {
	Seq       uint64      `json:"seq"`
	Type      string      `json:"type"`
	UsuarioID int         `json:"usuario_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	At        time.Time   `json:"at"`
}
