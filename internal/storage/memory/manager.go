package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/interfaces"
	"github.com/ternarybob/imunetrack/internal/models"
)

// Manager implements the StorageManager interface with plain maps.
// All three collections share one lock so Reset is atomic.
type Manager struct {
	mu        sync.RWMutex
	usuarios  map[int]*models.Usuario
	vacinas   map[int]*models.Vacina
	historico map[int]*models.HistoricoVacinal
	logger    arbor.ILogger

	users    *UserStorage
	vaccines *VaccineStorage
	history  *HistoryStorage
}

// NewManager creates an empty in-memory storage manager
func NewManager(logger arbor.ILogger) *Manager {
	m := &Manager{
		usuarios:  make(map[int]*models.Usuario),
		vacinas:   make(map[int]*models.Vacina),
		historico: make(map[int]*models.HistoricoVacinal),
		logger:    logger,
	}
	m.users = &UserStorage{m: m}
	m.vaccines = &VaccineStorage{m: m}
	m.history = &HistoryStorage{m: m}

	logger.Debug().Msg("Memory storage manager initialized")
	return m
}

// UserStorage returns the user storage interface
func (m *Manager) UserStorage() interfaces.UserStorage {
	return m.users
}

// VaccineStorage returns the vaccine storage interface
func (m *Manager) VaccineStorage() interfaces.VaccineStorage {
	return m.vaccines
}

// HistoryStorage returns the history storage interface
func (m *Manager) HistoryStorage() interfaces.HistoryStorage {
	return m.history
}

// Reset drops every record and loads the seed
func (m *Manager) Reset(ctx context.Context, seed *interfaces.Seed) error {
	usuarios := make(map[int]*models.Usuario)
	vacinas := make(map[int]*models.Vacina)
	historico := make(map[int]*models.HistoricoVacinal)

	if seed != nil {
		seed, err := seed.WithIDs()
		if err != nil {
			return err
		}
		for _, su := range seed.Usuarios {
			user, err := su.ToUsuario()
			if err != nil {
				return err
			}
			usuarios[user.ID] = user
		}
		for i := range seed.Vacinas {
			vacinas[seed.Vacinas[i].ID] = &seed.Vacinas[i]
		}
		for i := range seed.Historico {
			historico[seed.Historico[i].ID] = &seed.Historico[i]
		}
	}

	m.mu.Lock()
	m.usuarios = usuarios
	m.vacinas = vacinas
	m.historico = historico
	m.mu.Unlock()

	m.logger.Debug().
		Int("usuarios", len(usuarios)).
		Int("vacinas", len(vacinas)).
		Int("historico", len(historico)).
		Msg("Memory storage reset")
	return nil
}

// Close is a no-op for the memory backend
func (m *Manager) Close() error {
	return nil
}

// nextID returns max(existing)+1
func nextID[T any](items map[int]T) int {
	highest := 0
	for id := range items {
		if id > highest {
			highest = id
		}
	}
	return highest + 1
}

func sortedKeys[T any](items map[int]T) []int {
	keys := make([]int, 0, len(items))
	for id := range items {
		keys = append(keys, id)
	}
	sort.Ints(keys)
	return keys
}

// UserStorage implements interfaces.UserStorage
type UserStorage struct {
	m *Manager
}

// ListUsers returns all users ordered by id
func (s *UserStorage) ListUsers(ctx context.Context) ([]*models.Usuario, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	users := make([]*models.Usuario, 0, len(s.m.usuarios))
	for _, id := range sortedKeys(s.m.usuarios) {
		u := *s.m.usuarios[id]
		users = append(users, &u)
	}
	return users, nil
}

// GetUser returns the user with the given id
func (s *UserStorage) GetUser(ctx context.Context, id int) (*models.Usuario, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	u, ok := s.m.usuarios[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail looks a user up by email (case-insensitive)
func (s *UserStorage) GetUserByEmail(ctx context.Context, email string) (*models.Usuario, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	for _, id := range sortedKeys(s.m.usuarios) {
		u := s.m.usuarios[id]
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

// CreateUser assigns the next id and stores the user
func (s *UserStorage) CreateUser(ctx context.Context, user *models.Usuario) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for _, u := range s.m.usuarios {
		if strings.EqualFold(u.Email, user.Email) {
			return interfaces.ErrConflict
		}
	}

	user.ID = nextID(s.m.usuarios)
	cp := *user
	s.m.usuarios[user.ID] = &cp
	return nil
}

// UpdateUser replaces a stored user
func (s *UserStorage) UpdateUser(ctx context.Context, user *models.Usuario) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.usuarios[user.ID]; !ok {
		return interfaces.ErrNotFound
	}
	for id, u := range s.m.usuarios {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return interfaces.ErrConflict
		}
	}

	cp := *user
	s.m.usuarios[user.ID] = &cp
	return nil
}

// DeleteUser removes a user
func (s *UserStorage) DeleteUser(ctx context.Context, id int) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.usuarios[id]; !ok {
		return interfaces.ErrNotFound
	}
	delete(s.m.usuarios, id)
	return nil
}

// VaccineStorage implements interfaces.VaccineStorage
type VaccineStorage struct {
	m *Manager
}

// ListVaccines returns the catalogue ordered by id
func (s *VaccineStorage) ListVaccines(ctx context.Context) ([]*models.Vacina, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	vacinas := make([]*models.Vacina, 0, len(s.m.vacinas))
	for _, id := range sortedKeys(s.m.vacinas) {
		v := *s.m.vacinas[id]
		vacinas = append(vacinas, &v)
	}
	return vacinas, nil
}

// GetVaccine returns the vaccine with the given id
func (s *VaccineStorage) GetVaccine(ctx context.Context, id int) (*models.Vacina, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	v, ok := s.m.vacinas[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

// CreateVaccine assigns the next id and stores the vaccine
func (s *VaccineStorage) CreateVaccine(ctx context.Context, vacina *models.Vacina) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	vacina.ID = nextID(s.m.vacinas)
	cp := *vacina
	s.m.vacinas[vacina.ID] = &cp
	return nil
}

// UpdateVaccine replaces a stored vaccine
func (s *VaccineStorage) UpdateVaccine(ctx context.Context, vacina *models.Vacina) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.vacinas[vacina.ID]; !ok {
		return interfaces.ErrNotFound
	}
	cp := *vacina
	s.m.vacinas[vacina.ID] = &cp
	return nil
}

// DeleteVaccine removes a vaccine
func (s *VaccineStorage) DeleteVaccine(ctx context.Context, id int) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.vacinas[id]; !ok {
		return interfaces.ErrNotFound
	}
	delete(s.m.vacinas, id)
	return nil
}

// HistoryStorage implements interfaces.HistoryStorage
type HistoryStorage struct {
	m *Manager
}

// ListHistory returns the user's records matching the filter, ordered by id
func (s *HistoryStorage) ListHistory(ctx context.Context, usuarioID int, filter models.HistoricoFilter) ([]*models.HistoricoVacinal, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	records := make([]*models.HistoricoVacinal, 0)
	for _, id := range sortedKeys(s.m.historico) {
		h := s.m.historico[id]
		if h.UsuarioID != usuarioID || !filter.Matches(h) {
			continue
		}
		cp := *h
		records = append(records, &cp)
	}
	return records, nil
}

// GetHistory returns one of the user's records
func (s *HistoryStorage) GetHistory(ctx context.Context, usuarioID, id int) (*models.HistoricoVacinal, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	h, ok := s.m.historico[id]
	if !ok || h.UsuarioID != usuarioID {
		return nil, interfaces.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

// CreateHistory assigns the next id and stores the record
func (s *HistoryStorage) CreateHistory(ctx context.Context, rec *models.HistoricoVacinal) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	rec.ID = nextID(s.m.historico)
	cp := *rec
	s.m.historico[rec.ID] = &cp
	return nil
}

// UpdateHistory replaces a stored record
func (s *HistoryStorage) UpdateHistory(ctx context.Context, rec *models.HistoricoVacinal) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	h, ok := s.m.historico[rec.ID]
	if !ok || h.UsuarioID != rec.UsuarioID {
		return interfaces.ErrNotFound
	}
	cp := *rec
	s.m.historico[rec.ID] = &cp
	return nil
}

// DeleteHistory removes one of the user's records
func (s *HistoryStorage) DeleteHistory(ctx context.Context, usuarioID, id int) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	h, ok := s.m.historico[id]
	if !ok || h.UsuarioID != usuarioID {
		return interfaces.ErrNotFound
	}
	delete(s.m.historico, id)
	return nil
}

// DeleteUserHistory removes all records of a user
func (s *HistoryStorage) DeleteUserHistory(ctx context.Context, usuarioID int) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for id, h := range s.m.historico {
		if h.UsuarioID == usuarioID {
			delete(s.m.historico, id)
		}
	}
	return nil
}
