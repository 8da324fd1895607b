package interfaces

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/imunetrack/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique field is already taken
	ErrConflict = errors.New("conflict")
)

// UserStorage - interface for user persistence
type UserStorage interface {
	ListUsers(ctx context.Context) ([]*models.Usuario, error)
	GetUser(ctx context.Context, id int) (*models.Usuario, error)
	GetUserByEmail(ctx context.Context, email string) (*models.Usuario, error)
	CreateUser(ctx context.Context, user *models.Usuario) error
	UpdateUser(ctx context.Context, user *models.Usuario) error
	DeleteUser(ctx context.Context, id int) error
}

// VaccineStorage - interface for the vaccine catalogue
type VaccineStorage interface {
	ListVaccines(ctx context.Context) ([]*models.Vacina, error)
	GetVaccine(ctx context.Context, id int) (*models.Vacina, error)
	CreateVaccine(ctx context.Context, vacina *models.Vacina) error
	UpdateVaccine(ctx context.Context, vacina *models.Vacina) error
	DeleteVaccine(ctx context.Context, id int) error
}

// HistoryStorage - interface for vaccination history records
type HistoryStorage interface {
	ListHistory(ctx context.Context, usuarioID int, filter models.HistoricoFilter) ([]*models.HistoricoVacinal, error)
	GetHistory(ctx context.Context, usuarioID, id int) (*models.HistoricoVacinal, error)
	CreateHistory(ctx context.Context, rec *models.HistoricoVacinal) error
	UpdateHistory(ctx context.Context, rec *models.HistoricoVacinal) error
	DeleteHistory(ctx context.Context, usuarioID, id int) error
	DeleteUserHistory(ctx context.Context, usuarioID int) error
}

// Seed is the fixture data a store is reset to.
// Seed files of every format are decoded through their JSON shape.
type Seed struct {
	Usuarios  []SeedUsuario             `json:"usuarios"`
	Vacinas   []models.Vacina           `json:"vacinas"`
	Historico []models.HistoricoVacinal `json:"historico"`
}

// SeedUsuario is a fixture user with a plain-text password, hashed on load
type SeedUsuario struct {
	ID      int    `json:"id"`
	Nome    string `json:"nome"`
	Email   string `json:"email"`
	Senha   string `json:"senha"`
	IsAdmin bool   `json:"is_admin"`
}

// WithIDs returns a copy of the seed where every record has an id. Explicit ids are
// reserved first; records without one take max+1 in file order. A repeated id is an error.
func (s *Seed) WithIDs() (*Seed, error) {
	out := &Seed{
		Usuarios:  append([]SeedUsuario(nil), s.Usuarios...),
		Vacinas:   append([]models.Vacina(nil), s.Vacinas...),
		Historico: append([]models.HistoricoVacinal(nil), s.Historico...),
	}

	if err := assignIDs("usuario", len(out.Usuarios), func(i int) *int { return &out.Usuarios[i].ID }); err != nil {
		return nil, err
	}
	if err := assignIDs("vacina", len(out.Vacinas), func(i int) *int { return &out.Vacinas[i].ID }); err != nil {
		return nil, err
	}
	if err := assignIDs("historico", len(out.Historico), func(i int) *int { return &out.Historico[i].ID }); err != nil {
		return nil, err
	}
	return out, nil
}

func assignIDs(kind string, n int, id func(i int) *int) error {
	taken := make(map[int]bool, n)
	maxID := 0
	for i := 0; i < n; i++ {
		v := *id(i)
		if v == 0 {
			continue
		}
		if v < 0 {
			return fmt.Errorf("seed %s has negative id %d", kind, v)
		}
		if taken[v] {
			return fmt.Errorf("seed %s id %d is used twice", kind, v)
		}
		taken[v] = true
		if v > maxID {
			maxID = v
		}
	}
	for i := 0; i < n; i++ {
		if *id(i) == 0 {
			maxID++
			*id(i) = maxID
		}
	}
	return nil
}

// ToUsuario hashes the fixture password
func (s SeedUsuario) ToUsuario() (*models.Usuario, error) {
	hash, err := models.HashSenha(s.Senha)
	if err != nil {
		return nil, err
	}
	return &models.Usuario{
		ID:        s.ID,
		Nome:      s.Nome,
		Email:     s.Email,
		IsAdmin:   s.IsAdmin,
		SenhaHash: hash,
	}, nil
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	UserStorage() UserStorage
	VaccineStorage() VaccineStorage
	HistoryStorage() HistoryStorage
	// Reset drops every record and loads the seed
	Reset(ctx context.Context, seed *Seed) error
	Close() error
}
