package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/imunetrack/internal/interfaces"
	"github.com/ternarybob/imunetrack/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// VaccineStorage implements interfaces.VaccineStorage for Badger
type VaccineStorage struct {
	m *Manager
}

// ListVaccines returns the catalogue ordered by id
func (s *VaccineStorage) ListVaccines(ctx context.Context) ([]*models.Vacina, error) {
	var vacinas []models.Vacina
	if err := s.m.store.Find(&vacinas, all()); err != nil {
		return nil, fmt.Errorf("failed to list vaccines: %w", err)
	}

	result := make([]*models.Vacina, len(vacinas))
	for i := range vacinas {
		result[i] = &vacinas[i]
	}
	return result, nil
}

// GetVaccine returns the vaccine with the given id
func (s *VaccineStorage) GetVaccine(ctx context.Context, id int) (*models.Vacina, error) {
	var vacina models.Vacina
	err := s.m.store.Get(id, &vacina)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vaccine: %w", err)
	}
	return &vacina, nil
}

// CreateVaccine assigns the next id and stores the vaccine
func (s *VaccineStorage) CreateVaccine(ctx context.Context, vacina *models.Vacina) error {
	s.m.writes.Lock()
	defer s.m.writes.Unlock()

	vacinas, err := s.ListVaccines(ctx)
	if err != nil {
		return err
	}
	vacina.ID = 1
	if len(vacinas) > 0 {
		vacina.ID = vacinas[len(vacinas)-1].ID + 1
	}

	if err := s.m.store.Insert(vacina.ID, vacina); err != nil {
		return fmt.Errorf("failed to create vaccine: %w", err)
	}
	return nil
}

// UpdateVaccine replaces a stored vaccine
func (s *VaccineStorage) UpdateVaccine(ctx context.Context, vacina *models.Vacina) error {
	err := s.m.store.Update(vacina.ID, vacina)
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update vaccine: %w", err)
	}
	return nil
}

// DeleteVaccine removes a vaccine
func (s *VaccineStorage) DeleteVaccine(ctx context.Context, id int) error {
	err := s.m.store.Delete(id, &models.Vacina{})
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete vaccine: %w", err)
	}
	return nil
}
